// Package index mirrors the remote Reky package catalog.
//
// The catalog is a git repository holding one JSON document per package under
// pkgs/:
//
//	pkgs/json.json
//	{
//	  "versions": ["1.0.0", "1.2.0"],
//	  "download_url": "https://github.com/snowball-lang/json.git"
//	}
//
// An [Index] keeps a local working copy of that repository. The copy is
// cloned on first use and pulled at most once per Index value, so a
// resolution session pays for one refresh no matter how many passes it runs.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
	"github.com/snowball-lang/reky/pkg/observability"
	"github.com/snowball-lang/reky/pkg/vcs"
)

const (
	// DefaultURL is the upstream catalog repository.
	DefaultURL = "https://github.com/snowball-lang/packages.git"

	// packagesDir is the catalog subdirectory holding package documents.
	packagesDir = "pkgs"
)

// Entry is the catalog metadata of one package.
type Entry struct {
	Name        string   `json:"-"`
	Versions    []string `json:"versions"`
	DownloadURL string   `json:"download_url"`
}

// HasVersion reports whether version is listed. Matching is exact.
func (e *Entry) HasVersion(version string) bool {
	return slices.Contains(e.Versions, version)
}

// Index is a local working copy of the catalog.
type Index struct {
	dir    string
	url    string
	runner vcs.Runner
	logger *log.Logger

	fetched bool
}

// New creates an Index stored in dir and mirrored from url.
func New(dir, url string, runner vcs.Runner, logger *log.Logger) *Index {
	if url == "" {
		url = DefaultURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Index{dir: dir, url: url, runner: runner, logger: logger}
}

// Dir returns the local catalog directory.
func (x *Index) Dir() string { return x.dir }

// URL returns the remote catalog URL.
func (x *Index) URL() string { return x.url }

// Fetched reports whether EnsureFetched already ran for this Index.
func (x *Index) Fetched() bool { return x.fetched }

// EnsureFetched clones the catalog if the local copy is missing and pulls it
// otherwise. Only the first call does any work. A failed fetch is not
// retried on later calls; the error is fatal to the session.
func (x *Index) EnsureFetched(ctx context.Context) error {
	if x.fetched {
		return nil
	}
	x.fetched = true

	start := time.Now()
	_, err := os.Stat(x.dir)
	cloned := os.IsNotExist(err)

	if cloned {
		x.logger.Info("Fetching package index", "url", x.url)
		if err := os.MkdirAll(filepath.Dir(x.dir), 0o755); err != nil {
			return fmt.Errorf("create index parent: %w", err)
		}
		err = vcs.Clone(ctx, x.runner, x.url, x.dir, vcs.CloneOptions{})
	} else {
		x.logger.Info("Updating package index", "dir", x.dir)
		err = vcs.Pull(ctx, x.runner, x.dir)
	}

	observability.Index().OnIndexFetch(ctx, cloned, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("fetch package index: %w", err)
	}
	return nil
}

// Lookup loads the catalog document for name. A package without a document
// yields (nil, false, nil); only a malformed document is an error.
func (x *Index) Lookup(name string) (*Entry, bool, error) {
	if err := rekyerrors.ValidatePackageName(name); err != nil {
		return nil, false, err
	}

	path := filepath.Join(x.dir, packagesDir, name+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read catalog entry %s: %w", name, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, rekyerrors.Wrap(rekyerrors.ErrCodeMalformedCatalog, err, "catalog entry %s", path)
	}
	e.Name = name
	return &e, true, nil
}

// Names lists every package with a catalog document, sorted.
func (x *Index) Names() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(x.dir, packagesDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var names []string
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		names = append(names, de.Name()[:len(de.Name())-len(".json")])
	}
	slices.Sort(names)
	return names, nil
}
