// Package config loads reky.toml.
//
// Values are layered: built-in defaults, then the config file, then the
// environment (REKY_INDEX_URL, REKY_GIT, SNOWBALL_HOME). A missing file at the
// default location is not an error.
//
// Example reky.toml:
//
//	index_url = "https://github.com/snowball-lang/packages.git"
//	git       = "/usr/bin/git"
//	home      = "~/.snowball"
//	manifest  = "sn.reky"
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
	"github.com/snowball-lang/reky/pkg/index"
	"github.com/snowball-lang/reky/pkg/manifest"
	"github.com/snowball-lang/reky/pkg/vcs"
	"github.com/snowball-lang/reky/pkg/workspace"
)

const (
	appName  = "reky"
	fileName = "reky.toml"

	envIndexURL = "REKY_INDEX_URL"
	envGit      = "REKY_GIT"
	envHome     = "SNOWBALL_HOME"
)

// Config is the user configuration.
type Config struct {
	IndexURL string `toml:"index_url"`
	Git      string `toml:"git"`
	Home     string `toml:"home"`
	Manifest string `toml:"manifest"`

	// Path is the file the config was read from, empty if none.
	Path string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		IndexURL: index.DefaultURL,
		Git:      vcs.DefaultGit,
		Manifest: manifest.DefaultFile,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/reky/reky.toml, falling back to
// ~/.config/reky/reky.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the config at path. An empty path uses DefaultPath, and a
// missing default file yields the defaults. An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, rekyerrors.Wrap(rekyerrors.ErrCodeInvalidConfig, err, "locate config")
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return nil, rekyerrors.Wrap(rekyerrors.ErrCodeInvalidConfig, err, "read %s", path)
	default:
		cfg.Path = path
		if keys := md.Undecoded(); len(keys) > 0 {
			return nil, rekyerrors.New(rekyerrors.ErrCodeInvalidConfig,
				"%s: unknown key %q", path, keys[0].String())
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envIndexURL); v != "" {
		c.IndexURL = v
	}
	if v := os.Getenv(envGit); v != "" {
		c.Git = v
	}
	if v := os.Getenv(envHome); v != "" {
		c.Home = v
	}
}

// Validate checks the config for unusable values.
func (c *Config) Validate() error {
	if err := rekyerrors.ValidateURL(c.IndexURL); err != nil {
		return rekyerrors.Wrap(rekyerrors.ErrCodeInvalidConfig, err, "index_url")
	}
	if c.Manifest == "" || strings.ContainsAny(c.Manifest, `/\`) {
		return rekyerrors.New(rekyerrors.ErrCodeInvalidConfig,
			"manifest must be a file name, got %q", c.Manifest)
	}
	return nil
}

// HomeDir returns the Snowball home, expanding a leading ~.
func (c *Config) HomeDir() (string, error) {
	if c.Home == "" {
		return workspace.DefaultHome()
	}
	if c.Home == "~" || strings.HasPrefix(c.Home, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(c.Home, "~")), nil
	}
	return c.Home, nil
}

// GitPath resolves the configured git executable.
func (c *Config) GitPath() (string, error) {
	return vcs.Discover(c.Git)
}
