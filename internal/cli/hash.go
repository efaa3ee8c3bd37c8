package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
	"github.com/snowball-lang/reky/pkg/install"
)

// hashCommand creates the hash command.
func (c *CLI) hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <package>",
		Short: "Print the install directory name of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rekyerrors.ValidatePackageName(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), install.HashName(args[0]))
			return err
		},
	}
}
