// Package cli implements the reky command-line interface.
//
// The commands wrap the resolution engine in pkg/resolve: they locate the
// workspace, wire the package index and installer to a git runner, and print
// the outcome. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - resolve: Resolve and install the dependencies of one or more projects
//   - graph: Export the dependency graph as DOT or SVG
//   - cache: Inspect or clear the resolved cache and installed packages
//   - index: Update or query the package catalog
//   - hash: Print the install directory name of a package
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/snowball-lang/reky/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Resolved 12 packages in 3 passes (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// hookLogger reports resolver and index events through the CLI logger.
type hookLogger struct {
	observability.NoopResolverHooks
	logger *log.Logger
}

func (h hookLogger) OnPassComplete(_ context.Context, pass, paths, added int) {
	h.logger.Debug("Pass", "n", pass, "paths", paths, "bound", added)
}

func (h hookLogger) OnInstallComplete(_ context.Context, name, version string, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("Install failed", "package", name+"@"+version, "err", err)
		return
	}
	h.logger.Info("Installed", "package", name+"@"+version, "took", d.Round(time.Millisecond))
}

func (h hookLogger) OnIndexFetch(_ context.Context, cloned bool, d time.Duration, err error) {
	h.logger.Debug("Index fetch", "cloned", cloned, "took", d.Round(time.Millisecond), "ok", err == nil)
}
