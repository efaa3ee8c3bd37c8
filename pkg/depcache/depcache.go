// Package depcache persists the resolved name -> version bindings of a
// workspace.
//
// The cache is the single source of truth for what is currently resolved: a
// package name is bound to at most one version, and the resolver consults the
// cache before any install. The on-disk form shares the manifest's line
// format, with names padded to a common width so diffs stay readable:
//
//	http   == 0.4.1
//	json   == 1.2.0
//	sqlite == 3.0
package depcache

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/snowball-lang/reky/pkg/manifest"
)

// DefaultFile is the conventional cache filename in the Reky workspace.
const DefaultFile = ".reky_cache"

// Cache maps package names to bound versions and tracks whether it changed
// since the last Reset. The zero value is not usable; use New or Load.
// Cache is not safe for concurrent use.
type Cache struct {
	entries map[string]string
	dirty   bool
}

// New returns an empty, clean cache.
func New() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Has reports whether name is bound.
func (c *Cache) Has(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Get returns the version bound to name.
func (c *Cache) Get(name string) (string, bool) {
	v, ok := c.entries[name]
	return v, ok
}

// Add binds name to version, overwriting any previous binding, and marks the
// cache dirty. Conflict detection is the caller's job.
func (c *Cache) Add(name, version string) {
	c.entries[name] = version
	c.dirty = true
}

// Reset clears the dirty flag.
func (c *Cache) Reset() { c.dirty = false }

// Dirty reports whether Add was called since the last Reset.
func (c *Cache) Dirty() bool { return c.dirty }

// Len returns the number of bindings.
func (c *Cache) Len() int { return len(c.entries) }

// Names returns the bound names sorted alphabetically.
func (c *Cache) Names() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

// Entries returns a copy of the bindings.
func (c *Cache) Entries() map[string]string {
	return maps.Clone(c.entries)
}

// Load reads a cache file. A missing file yields an empty cache. The
// returned cache is clean.
func Load(path string) (*Cache, error) {
	m, err := manifest.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	c := New()
	for _, r := range m.Requirements {
		c.entries[r.Name] = r.Version
	}
	return c, nil
}

// Save writes the cache to path, sorted by name with the name column padded
// to the longest name. The file is replaced atomically.
func (c *Cache) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	c.write(w)
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// String returns the cache in its on-disk form.
func (c *Cache) String() string {
	var b strings.Builder
	c.write(&b)
	return b.String()
}

func (c *Cache) write(w io.StringWriter) {
	names := c.Names()
	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}
	for _, n := range names {
		w.WriteString(fmt.Sprintf("%-*s %s %s\n", width, n, manifest.Separator, c.entries[n]))
	}
}
