// Package vcs runs the git executable on behalf of the package index and the
// installer.
//
// All invocations are quiet: stdout is discarded and stderr is captured so a
// failure can be reported with git's own message, but nothing reaches the
// terminal on success.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
)

// DefaultGit is the executable name looked up on PATH by [Discover].
const DefaultGit = "git"

// Runner executes a VCS command with the given arguments.
type Runner interface {
	Run(ctx context.Context, args ...string) error
}

// Git runs a git executable.
type Git struct {
	Path   string
	Logger *log.Logger
}

// NewGit returns a Git runner for the executable at path.
func NewGit(path string, logger *log.Logger) *Git {
	if logger == nil {
		logger = log.Default()
	}
	return &Git{Path: path, Logger: logger}
}

// Discover resolves name (or [DefaultGit] when empty) against PATH.
func Discover(name string) (string, error) {
	if name == "" {
		name = DefaultGit
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", rekyerrors.Wrap(rekyerrors.ErrCodeVCS, err, "git executable %q not found", name)
	}
	return path, nil
}

// Run executes git with args. Output is suppressed; on failure the captured
// stderr is folded into the returned error.
func (g *Git) Run(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.Path, args...)
	cmd.Stderr = &stderr

	g.Logger.Debug("exec", "cmd", g.Path, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := lastLine(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return rekyerrors.Wrap(rekyerrors.ErrCodeVCS, err, "git %s", Subcommand(args))
	}
	return nil
}

// CloneOptions pins a clone to a tag.
type CloneOptions struct {
	// Tag selects the branch or tag to check out. Empty clones the default branch.
	Tag string
	// Shallow limits history to the tip commit of a single branch.
	Shallow bool
}

// CloneArgs builds the argument list for a quiet clone of url into dest.
func CloneArgs(url, dest string, opts CloneOptions) []string {
	args := []string{"clone", "-q"}
	if opts.Tag != "" {
		args = append(args, "-c", "advice.detachedHead=false", "--branch", opts.Tag)
	}
	if opts.Shallow {
		args = append(args, "--depth", "1", "--single-branch")
	}
	return append(args, "--", url, dest)
}

// PullArgs builds the argument list for a quiet pull inside dir.
func PullArgs(dir string) []string {
	return []string{"-C", dir, "pull", "-q"}
}

// Clone clones url into dest using r.
func Clone(ctx context.Context, r Runner, url, dest string, opts CloneOptions) error {
	if err := rekyerrors.ValidateURL(url); err != nil {
		return err
	}
	return r.Run(ctx, CloneArgs(url, dest, opts)...)
}

// Pull updates the working copy at dir using r.
func Pull(ctx context.Context, r Runner, dir string) error {
	return r.Run(ctx, PullArgs(dir)...)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
