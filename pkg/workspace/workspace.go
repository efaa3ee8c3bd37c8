// Package workspace maps logical Reky locations to filesystem paths.
//
// A project keeps its Reky state in a hidden .sn directory:
//
//	myproject/
//	  sn.reky               manifest
//	  .sn/
//	    .reky_cache         resolved bindings
//	    deps/               installed packages (hashed names)
//
// The package catalog is shared by all projects and lives in the Snowball
// home directory ($SNOWBALL_HOME, default ~/.snowball).
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/snowball-lang/reky/pkg/depcache"
)

// Kind names a logical workspace location.
type Kind int

const (
	// KindReky is the directory holding Reky state (the cache file).
	KindReky Kind = iota
	// KindDeps is the directory holding installed packages.
	KindDeps
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindReky:
		return "reky"
	case KindDeps:
		return "deps"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	stateDir   = ".sn"
	depsDir    = "deps"
	indexDir   = "packages"
	homeEnvVar = "SNOWBALL_HOME"
)

// Workspace resolves paths for one project root and Snowball home.
type Workspace struct {
	Root string
	Home string
}

// New returns a Workspace rooted at root. An empty home resolves through
// DefaultHome.
func New(root, home string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	if home == "" {
		if home, err = DefaultHome(); err != nil {
			return nil, err
		}
	}
	return &Workspace{Root: abs, Home: home}, nil
}

// DefaultHome returns $SNOWBALL_HOME, falling back to ~/.snowball.
func DefaultHome() (string, error) {
	if h := os.Getenv(homeEnvVar); h != "" {
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".snowball"), nil
}

// Path returns the directory for kind.
func (w *Workspace) Path(kind Kind) string {
	switch kind {
	case KindDeps:
		return filepath.Join(w.Root, stateDir, depsDir)
	default:
		return filepath.Join(w.Root, stateDir)
	}
}

// CachePath returns the location of the dependency cache file.
func (w *Workspace) CachePath() string {
	return filepath.Join(w.Path(KindReky), depcache.DefaultFile)
}

// IndexDir returns the local catalog working copy.
func (w *Workspace) IndexDir() string {
	return filepath.Join(w.Home, indexDir)
}
