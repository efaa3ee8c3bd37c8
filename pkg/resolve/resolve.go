// Package resolve computes the set of packages a group of projects needs.
//
// Resolution is a fixed point over a worklist of project directories. Each
// pass parses the manifest of every directory in the worklist, binds names the
// cache has not seen, and queues the install directory of each new package.
// When a pass binds anything, the missing packages are installed and another
// pass runs, because freshly installed packages can declare dependencies of
// their own. A pass that binds nothing ends the run.
//
// Binding is first-writer-wins: once a name is bound, a later request for a
// different version is a [errors.ConflictError]. There is no version solving.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/snowball-lang/reky/pkg/depcache"
	"github.com/snowball-lang/reky/pkg/depgraph"
	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
	"github.com/snowball-lang/reky/pkg/manifest"
	"github.com/snowball-lang/reky/pkg/observability"
)

// DefaultMaxPasses bounds the number of passes in one run.
const DefaultMaxPasses = 1000

// Installer materializes packages. *install.Installer implements it.
type Installer interface {
	Dir(name string) string
	IsInstalled(name, version string) bool
	Install(ctx context.Context, name, version string) error
	RecoverName(hash string) string
}

// Index is the package catalog. *index.Index implements it.
type Index interface {
	EnsureFetched(ctx context.Context) error
}

// Options configures a Session.
type Options struct {
	// CachePath is the persisted cache. Empty starts from an empty cache.
	CachePath string
	// ManifestFile is the manifest name inside each project directory.
	ManifestFile string
	// MaxPasses bounds the loop. Zero means DefaultMaxPasses.
	MaxPasses int
	Logger    *log.Logger
}

// Result is the outcome of a successful run.
type Result struct {
	Cache     *depcache.Cache
	Graph     *depgraph.Graph
	Installed []string
	Passes    int
}

// Session holds the state of one resolution run.
type Session struct {
	ID string

	opts      Options
	installer Installer
	index     Index
	logger    *log.Logger

	firstRun bool
	work     *worklist
	cache    *depcache.Cache
	graph    *depgraph.Graph
}

// NewSession returns a Session that installs through inst and refreshes idx
// before installing.
func NewSession(inst Installer, idx Index, opts Options) *Session {
	if opts.ManifestFile == "" {
		opts.ManifestFile = manifest.DefaultFile
	}
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultMaxPasses
	}
	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		ID:        id,
		opts:      opts,
		installer: inst,
		index:     idx,
		logger:    logger.With("session", id[:8]),
		firstRun:  true,
		work:      newWorklist(),
		graph:     depgraph.New(),
	}
}

// Cache returns the session's cache, or nil before the first Resolve.
func (s *Session) Cache() *depcache.Cache { return s.cache }

// Graph returns the dependency graph built so far.
func (s *Session) Graph() *depgraph.Graph { return s.graph }

// Paths returns the project directories scanned so far, in queue order.
func (s *Session) Paths() []string { return s.work.snapshot() }

// Resolve runs passes over projects until the cache stops changing. The
// cache is not saved; see Save and Run.
func (s *Session) Resolve(ctx context.Context, projects []string) (*Result, error) {
	if s.firstRun {
		if err := s.start(); err != nil {
			return nil, err
		}
	}
	for _, p := range projects {
		s.work.add(p, "")
	}

	res := &Result{Cache: s.cache, Graph: s.graph}
	for {
		if res.Passes == s.opts.MaxPasses {
			return nil, rekyerrors.New(rekyerrors.ErrCodeInternal,
				"resolution did not settle after %d passes", s.opts.MaxPasses)
		}
		res.Passes++

		before := s.cache.Len()
		if err := s.pass(ctx); err != nil {
			return nil, err
		}
		added := s.cache.Len() - before
		observability.Resolver().OnPassComplete(ctx, res.Passes, s.work.len(), added)
		s.logger.Debug("Pass complete", "pass", res.Passes, "paths", s.work.len(), "added", added)

		// The first pass also repairs packages that are cached but missing
		// on disk, e.g. after the deps directory was removed.
		missing := s.missing()
		if !s.cache.Dirty() && (res.Passes > 1 || len(missing) == 0) {
			return res, nil
		}

		installed, err := s.install(ctx, missing)
		res.Installed = append(res.Installed, installed...)
		if err != nil {
			return nil, err
		}
		s.cache.Reset()
	}
}

// Save writes the cache to Options.CachePath.
func (s *Session) Save() error {
	if s.cache == nil || s.opts.CachePath == "" {
		return nil
	}
	return s.cache.Save(s.opts.CachePath)
}

// Run resolves projects in a fresh session and saves the cache.
func Run(ctx context.Context, inst Installer, idx Index, opts Options, projects []string) (*Result, error) {
	s := NewSession(inst, idx, opts)
	res, err := s.Resolve(ctx, projects)
	if err != nil {
		return nil, err
	}
	if err := s.Save(); err != nil {
		return nil, err
	}
	return res, nil
}

// start loads the persisted cache and queues every cached package so its
// own manifest is scanned again.
func (s *Session) start() error {
	s.firstRun = false
	if s.opts.CachePath == "" {
		s.cache = depcache.New()
		return nil
	}

	c, err := depcache.Load(s.opts.CachePath)
	if err != nil {
		return err
	}
	s.cache = c
	for _, name := range c.Names() {
		s.work.add(s.installer.Dir(name), name)
	}
	s.logger.Debug("Loaded cache", "path", s.opts.CachePath, "packages", c.Len())
	return nil
}

// pass drains the worklist, including paths queued during the pass.
func (s *Session) pass(ctx context.Context) error {
	for i := 0; i < s.work.len(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir, pkg := s.work.at(i)
		if err := s.scan(dir, pkg); err != nil {
			return err
		}
	}
	return nil
}

// scan reads the manifest in dir. pkg names the package installed there, or
// is empty for a project directory.
func (s *Session) scan(dir, pkg string) error {
	// Packages are scanned once a later pass finds them installed at their
	// bound version. A stale install of another version is not read.
	if pkg != "" {
		if version, ok := s.cache.Get(pkg); ok && !s.installer.IsInstalled(pkg, version) {
			return nil
		}
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	m, err := manifest.Parse(filepath.Join(dir, s.opts.ManifestFile))
	if err != nil {
		return err
	}

	project := s.projectID(dir)
	s.graph.Set(project, m.Names())

	for _, req := range m.Requirements {
		bound, ok := s.cache.Get(req.Name)
		switch {
		case !ok:
			s.logger.Debug("Bind", "package", req.Name, "version", req.Version, "by", project)
			s.cache.Add(req.Name, req.Version)
			s.work.add(s.installer.Dir(req.Name), req.Name)
		case bound != req.Version:
			return rekyerrors.VersionConflict(req.Name, bound, req.Version)
		}
	}
	return nil
}

// projectID names the project at dir: the package name for install
// directories, otherwise the directory's base name.
func (s *Session) projectID(dir string) string {
	base := filepath.Base(dir)
	if base == "." || base == string(filepath.Separator) {
		base = dir
	}
	return s.installer.RecoverName(base)
}

// missing returns the bound packages that are not on disk at their bound
// version, in name order.
func (s *Session) missing() []string {
	var names []string
	for _, name := range s.cache.Names() {
		version, _ := s.cache.Get(name)
		if !s.installer.IsInstalled(name, version) {
			names = append(names, name)
		}
	}
	return names
}

// install refreshes the index once and installs names in order.
func (s *Session) install(ctx context.Context, missing []string) ([]string, error) {
	if len(missing) == 0 {
		return nil, nil
	}
	if err := s.index.EnsureFetched(ctx); err != nil {
		return nil, fmt.Errorf("refresh package index: %w", err)
	}

	var done []string
	for _, name := range missing {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		version, _ := s.cache.Get(name)
		start := time.Now()
		if err := s.installer.Install(ctx, name, version); err != nil {
			return done, err
		}
		s.logger.Debug("Installed", "package", name, "version", version, "took", time.Since(start))
		done = append(done, name)
	}
	return done, nil
}

// worklist is an append-only list of cleaned absolute paths without
// duplicates. Install directories remember the package they hold.
type worklist struct {
	paths []string
	seen  map[string]string
}

func newWorklist() *worklist {
	return &worklist{seen: make(map[string]string)}
}

// add queues path unless it is already present and reports whether it was
// added. pkg is empty for project directories.
func (w *worklist) add(path, pkg string) bool {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.Clean(path)
	if _, ok := w.seen[path]; ok {
		return false
	}
	w.seen[path] = pkg
	w.paths = append(w.paths, path)
	return true
}

func (w *worklist) len() int { return len(w.paths) }

func (w *worklist) at(i int) (path, pkg string) {
	path = w.paths[i]
	return path, w.seen[path]
}

func (w *worklist) snapshot() []string { return append([]string(nil), w.paths...) }
