package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
	"github.com/snowball-lang/reky/pkg/install"
)

// indexCommand creates the package index command.
func (c *CLI) indexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Update or query the package index",
	}

	cmd.AddCommand(c.indexUpdateCommand())
	cmd.AddCommand(c.indexShowCommand())
	cmd.AddCommand(c.indexListCommand())

	return cmd
}

// indexUpdateCommand creates the "index update" subcommand.
func (c *CLI) indexUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Clone or pull the package index",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context(), ".")
			if err != nil {
				return err
			}
			if err := e.index.EnsureFetched(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Package index is up to date")
			printDetail("Directory: %s", e.index.Dir())
			return nil
		},
	}
}

// indexShowCommand creates the "index show" subcommand.
func (c *CLI) indexShowCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "show <package>",
		Short: "Show the catalog entry of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			e, err := c.newEnv(cmd.Context(), root)
			if err != nil {
				return err
			}
			entry, ok, err := e.index.Lookup(name)
			if err != nil {
				return err
			}
			if !ok {
				printNextStep("Refresh the index", "reky index update")
				return rekyerrors.PackageNotFound(name)
			}

			installed := "no"
			if sc, err := e.packages.ReadSidecar(install.HashName(name)); err == nil {
				installed = sc.Version
				if installed == "" {
					installed = "yes"
				}
			}

			printKeyValue("name", entry.Name)
			printKeyValue("versions", strings.Join(entry.Versions, ", "))
			printKeyValue("url", entry.DownloadURL)
			printKeyValue("installed", installed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&root, "workspace", "w", ".", "workspace root holding .sn/")
	return cmd
}

// indexListCommand creates the "index list" subcommand.
func (c *CLI) indexListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every package in the local index",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.newEnv(cmd.Context(), ".")
			if err != nil {
				return err
			}
			names, err := e.index.Names()
			if err != nil {
				return err
			}
			for _, n := range names {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), n); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
