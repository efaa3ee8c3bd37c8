package errors

import (
	"fmt"
	"strings"
)

// Diagnostic is a single problem bound to a file and 1-based line number.
// Line is 0 when the problem concerns the file as a whole.
type Diagnostic struct {
	File    string
	Line    int
	Message string
}

// String formats the diagnostic as "file:line: message".
func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.File, d.Message)
}

// ManifestError batches every malformed line found while scanning one file.
type ManifestError struct {
	File        string
	Diagnostics []Diagnostic
}

// Error lists all diagnostics, one per line.
func (e *ManifestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d malformed line(s) in %s", ErrCodeMalformedManifest, len(e.Diagnostics), e.File)
	for _, d := range e.Diagnostics {
		b.WriteString("\n  ")
		b.WriteString(d.String())
	}
	return b.String()
}

// Add records a diagnostic for line.
func (e *ManifestError) Add(line int, format string, args ...any) {
	e.Diagnostics = append(e.Diagnostics, Diagnostic{
		File:    e.File,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// ErrOrNil returns e when it holds diagnostics and nil otherwise.
func (e *ManifestError) ErrOrNil() error {
	if e == nil || len(e.Diagnostics) == 0 {
		return nil
	}
	return e
}
