package vcs

import (
	"context"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// Recorder is a Runner that records invocations instead of executing them.
// It backs --dry-run and stands in for git in tests. Hook, when set, runs
// for every call and its error is returned.
type Recorder struct {
	Calls  [][]string
	Hook   func(args []string) error
	Logger *log.Logger
}

// Run records args.
func (r *Recorder) Run(ctx context.Context, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Calls = append(r.Calls, slices.Clone(args))
	if r.Logger != nil {
		r.Logger.Info("dry run", "cmd", "git "+strings.Join(args, " "))
	}
	if r.Hook != nil {
		return r.Hook(args)
	}
	return nil
}

// Count returns how many recorded calls start with subcommand (e.g. "clone").
// A leading "-C <dir>" is skipped.
func (r *Recorder) Count(subcommand string) int {
	n := 0
	for _, c := range r.Calls {
		if Subcommand(c) == subcommand {
			n++
		}
	}
	return n
}

// Subcommand returns the git subcommand in args, skipping "-C <dir>".
func Subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-C" {
			i++
			continue
		}
		return args[i]
	}
	return ""
}

// CloneDest returns the destination of a clone built by CloneArgs.
func CloneDest(args []string) string {
	if Subcommand(args) != "clone" || len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}
