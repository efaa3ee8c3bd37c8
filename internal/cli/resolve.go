package cli

import (
	"github.com/spf13/cobra"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "resolve [project...]",
		Short: "Resolve and install the dependencies of one or more projects",
		Long: `Resolve reads the manifest of every project, binds each required package
to one version and installs what is missing. Installed packages are scanned
for their own manifests until nothing new is found.

Without arguments the workspace root is the only project. Resolved versions
are written to .sn/.reky_cache and packages are installed into .sn/deps.`,
		Example: `  # Resolve the project in the current directory
  reky resolve

  # Resolve two projects that share one workspace
  reky resolve -w . ./app ./lib

  # Show what would be installed
  reky resolve --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.runResolve(cmd.Context(), root, args)
			if err != nil {
				return err
			}

			printSuccess("Resolved %d packages", res.Cache.Len())
			printStats(res.Cache.Len(), len(res.Installed), res.Passes)
			for _, name := range res.Installed {
				version, _ := res.Cache.Get(name)
				printDetail("+ %s %s", name, version)
			}
			if len(res.Installed) > 0 {
				printNextStep("Inspect the graph", "reky graph --svg deps.svg")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&root, "workspace", "w", ".", "workspace root holding .sn/")
	return cmd
}
