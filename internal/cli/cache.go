package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snowball-lang/reky/pkg/depcache"
	"github.com/snowball-lang/reky/pkg/workspace"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear resolved versions and installed packages",
	}
	cmd.PersistentFlags().StringVarP(&root, "workspace", "w", ".", "workspace root holding .sn/")

	cmd.AddCommand(c.cacheShowCommand(&root))
	cmd.AddCommand(c.cacheClearCommand(&root))
	cmd.AddCommand(c.cachePathCommand(&root))

	return cmd
}

// cacheShowCommand creates the "cache show" subcommand.
func (c *CLI) cacheShowCommand(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.workspace(*root)
			if err != nil {
				return err
			}
			cache, err := depcache.Load(ws.CachePath())
			if err != nil {
				return err
			}
			if cache.Len() == 0 {
				printInfo("Cache is empty")
				return nil
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), cache.String())
			return err
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the resolved versions and every installed package",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.workspace(*root)
			if err != nil {
				return err
			}
			deps := ws.Path(workspace.KindDeps)

			count := 0
			entries, err := os.ReadDir(deps)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("read deps dir: %w", err)
			}
			for _, e := range entries {
				if e.IsDir() {
					count++
				}
			}

			if c.dryRun {
				printInfo("Would remove %d installed packages", count)
				printDetail("Directory: %s", deps)
				return nil
			}
			if err := os.RemoveAll(deps); err != nil {
				return fmt.Errorf("remove deps dir: %w", err)
			}
			if err := os.Remove(ws.CachePath()); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove cache: %w", err)
			}

			printSuccess("Cleared %d installed packages", count)
			printDetail("Directory: %s", deps)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.workspace(*root)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ws.CachePath())
			return err
		},
	}
}
