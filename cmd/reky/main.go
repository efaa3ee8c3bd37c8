package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/snowball-lang/reky/internal/cli"
	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
)

const (
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRoot().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// newRoot adds --verbose on top of the CLI's commands. The level is applied
// by cobra's initializers, which run after flag parsing and before the
// config is loaded.
func newRoot() *cobra.Command {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log each pass, bind and git command")
	cobra.OnInitialize(func() {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
	})
	return root
}

// exitCode reports err on stderr and maps it to a process exit status.
// An interrupted resolve exits quietly; the partial state is left for the
// next run to repair.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		cli.PrintError("%s", rekyerrors.UserMessage(err))
		return exitFailure
	}
}
