// Package install materializes catalog packages on disk.
//
// Every package lives in a directory named by the SHA-256 of its name, so
// arbitrary names never produce unsafe or over-long paths. Because the hash
// cannot be reversed, each install writes a sidecar next to its directory:
//
//	deps/
//	  3f2a...c9/          shallow clone of the pinned tag
//	  3f2a...c9.name      name = "json", version = "1.2.0", ...
//
// The sidecar also records the installed version, which lets [Installer.IsInstalled]
// tell a current install from a stale one.
package install

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
	"github.com/snowball-lang/reky/pkg/index"
	"github.com/snowball-lang/reky/pkg/observability"
	"github.com/snowball-lang/reky/pkg/vcs"
)

// sidecarExt is appended to the hashed directory name.
const sidecarExt = ".name"

// Catalog looks up package metadata. *index.Index implements it.
type Catalog interface {
	Lookup(name string) (*index.Entry, bool, error)
}

// Sidecar is the metadata written next to an installed package.
type Sidecar struct {
	Name        string    `toml:"name"`
	Version     string    `toml:"version"`
	URL         string    `toml:"url"`
	InstalledAt time.Time `toml:"installed_at"`
}

// Installer clones packages into a dependency directory.
type Installer struct {
	dir     string
	catalog Catalog
	runner  vcs.Runner
	logger  *log.Logger
}

// New returns an Installer that places packages under dir.
func New(dir string, catalog Catalog, runner vcs.Runner, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.Default()
	}
	return &Installer{dir: dir, catalog: catalog, runner: runner, logger: logger}
}

// HashName returns the stable directory name for a package.
func HashName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])
}

// Root returns the dependency directory.
func (i *Installer) Root() string { return i.dir }

// Dir returns the install directory of name.
func (i *Installer) Dir(name string) string {
	return filepath.Join(i.dir, HashName(name))
}

func (i *Installer) sidecarPath(name string) string {
	return i.Dir(name) + sidecarExt
}

// ReadSidecar loads the sidecar stored for the hashed directory hash.
func (i *Installer) ReadSidecar(hash string) (*Sidecar, error) {
	path := filepath.Join(i.dir, hash+sidecarExt)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Sidecar
	if _, err := toml.Decode(string(data), &sc); err != nil {
		// Sidecars from older releases hold only the bare name.
		return &Sidecar{Name: string(data)}, nil
	}
	return &sc, nil
}

// RecoverName maps a hashed directory name back to its package name. Names
// without a readable sidecar are returned unchanged.
func (i *Installer) RecoverName(hash string) string {
	sc, err := i.ReadSidecar(hash)
	if err != nil || sc.Name == "" {
		return hash
	}
	return sc.Name
}

// IsInstalled reports whether name is present at version. A directory whose
// sidecar records another version is stale and does not count. A sidecar
// without a version matches any version.
func (i *Installer) IsInstalled(name, version string) bool {
	if _, err := os.Stat(i.Dir(name)); err != nil {
		return false
	}
	sc, err := i.ReadSidecar(HashName(name))
	if err != nil {
		return true
	}
	return sc.Version == "" || sc.Version == version
}

// Install clones name at version into its hashed directory. The catalog
// must list the exact version. A stale install of another version is
// replaced. If the clone or the sidecar write fails, the package directory
// is removed and the error is returned so the next run starts clean.
func (i *Installer) Install(ctx context.Context, name, version string) (err error) {
	entry, ok, err := i.catalog.Lookup(name)
	if err != nil {
		return err
	}
	if !ok {
		return rekyerrors.PackageNotFound(name)
	}
	if !entry.HasVersion(version) {
		return rekyerrors.VersionNotFound(name, version)
	}

	start := time.Now()
	observability.Resolver().OnInstallStart(ctx, name, version)
	defer func() {
		observability.Resolver().OnInstallComplete(ctx, name, version, time.Since(start), err)
	}()

	target := i.Dir(name)
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return fmt.Errorf("create deps dir: %w", err)
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("remove stale install of %s: %w", name, err)
	}

	i.logger.Info("Download", "package", fmt.Sprintf("%s@%s", name, version))
	opts := vcs.CloneOptions{Tag: version, Shallow: true}
	if err := vcs.Clone(ctx, i.runner, entry.DownloadURL, target, opts); err != nil {
		_ = os.RemoveAll(target)
		return fmt.Errorf("install %s@%s: %w", name, version, err)
	}

	// Without a sidecar the clone would pass for any version.
	if err := i.writeSidecar(Sidecar{
		Name:        name,
		Version:     version,
		URL:         entry.DownloadURL,
		InstalledAt: time.Now().UTC().Truncate(time.Second),
	}); err != nil {
		_ = os.RemoveAll(target)
		return err
	}
	return nil
}

func (i *Installer) writeSidecar(sc Sidecar) error {
	f, err := os.Create(i.sidecarPath(sc.Name))
	if err != nil {
		return fmt.Errorf("write sidecar for %s: %w", sc.Name, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(sc); err != nil {
		return fmt.Errorf("write sidecar for %s: %w", sc.Name, err)
	}
	return nil
}
