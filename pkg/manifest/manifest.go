// Package manifest reads Reky dependency declarations.
//
// A manifest is a line-oriented text file, conventionally named sn.reky, in
// the style of a requirements.txt:
//
//	#!reky 1
//	# comments and blank lines are ignored
//	json==1.2.0
//	http == 0.4.1
//
// Each declaration is "name==version". Whitespace around both sides is
// ignored. The optional "#!reky <n>" directive pins the format version; only
// [FormatVersion] is understood.
//
// Problems are collected rather than reported one at a time: [Parse] scans the
// whole file and returns every malformed line in a single
// [errors.ManifestError].
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
)

const (
	// DefaultFile is the conventional manifest filename inside a project.
	DefaultFile = "sn.reky"

	// Separator splits a declaration into name and version.
	Separator = "=="

	// FormatVersion is the manifest format understood by this package.
	FormatVersion = 1

	commentPrefix   = "#"
	directivePrefix = "#!reky"
)

// Requirement is a declared dependency. DownloadURL stays empty until the
// package catalog is consulted.
type Requirement struct {
	Name        string
	Version     string
	DownloadURL string
	Line        int
}

// String renders the requirement as "name==version".
func (r Requirement) String() string { return r.Name + Separator + r.Version }

// Manifest holds the requirements of one file in declaration order.
type Manifest struct {
	Path         string
	Requirements []Requirement
}

// Map returns the requirements as a name -> version mapping.
func (m *Manifest) Map() map[string]string {
	out := make(map[string]string, len(m.Requirements))
	for _, r := range m.Requirements {
		out[r.Name] = r.Version
	}
	return out
}

// Names returns the required package names in declaration order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Requirements))
	for i, r := range m.Requirements {
		names[i] = r.Name
	}
	return names
}

// Len returns the number of requirements.
func (m *Manifest) Len() int { return len(m.Requirements) }

// ParseDir parses the default manifest inside the project directory dir.
func ParseDir(dir string) (*Manifest, error) {
	return Parse(filepath.Join(dir, DefaultFile))
}

// Parse reads the manifest at path. A missing file is not an error and
// yields an empty manifest. Malformed lines are returned together as a
// *errors.ManifestError.
func Parse(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &Manifest{Path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, path)
}

// Read parses manifest content from r. name is used in diagnostics.
func Read(r io.Reader, name string) (*Manifest, error) {
	m := &Manifest{Path: name}
	diag := &rekyerrors.ManifestError{File: name}
	seen := make(map[string]Requirement)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, directivePrefix) {
			checkDirective(diag, lineNo, line)
			continue
		}
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		req, ok := parseLine(diag, lineNo, line)
		if !ok {
			continue
		}
		if prev, dup := seen[req.Name]; dup {
			if prev.Version != req.Version {
				diag.Add(lineNo, "package %q already declared with version %q on line %d", req.Name, prev.Version, prev.Line)
			}
			continue
		}
		seen[req.Name] = req
		m.Requirements = append(m.Requirements, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", name, err)
	}

	if err := diag.ErrOrNil(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseLine(diag *rekyerrors.ManifestError, lineNo int, line string) (Requirement, bool) {
	name, version, found := strings.Cut(line, Separator)
	if !found {
		if strings.Contains(line, ":") {
			diag.Add(lineNo, "invalid package format %q: use 'name%sversion' (':' is not a separator)", line, Separator)
		} else {
			diag.Add(lineNo, "invalid package format %q: must be 'name%sversion'", line, Separator)
		}
		return Requirement{}, false
	}

	name = strings.TrimSpace(name)
	version = strings.TrimSpace(version)

	ok := true
	if name == "" {
		diag.Add(lineNo, "invalid name format: package name is empty")
		ok = false
	} else if err := rekyerrors.ValidatePackageName(name); err != nil {
		diag.Add(lineNo, "%s", rekyerrors.UserMessage(err))
		ok = false
	}
	if version == "" {
		diag.Add(lineNo, "invalid version format: version for %q is empty", name)
		ok = false
	} else if err := rekyerrors.ValidateVersion(version); err != nil {
		diag.Add(lineNo, "%s", rekyerrors.UserMessage(err))
		ok = false
	}
	if !ok {
		return Requirement{}, false
	}

	return Requirement{Name: name, Version: version, Line: lineNo}, true
}

func checkDirective(diag *rekyerrors.ManifestError, lineNo int, line string) {
	v := strings.TrimSpace(strings.TrimPrefix(line, directivePrefix))
	if v != fmt.Sprint(FormatVersion) {
		diag.Add(lineNo, "unsupported manifest format version %q (supported: %d)", v, FormatVersion)
	}
}
