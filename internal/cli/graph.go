package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/snowball-lang/reky/pkg/depgraph"
	rekyerrors "github.com/snowball-lang/reky/pkg/errors"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		root    string
		output  string
		format  string
		svgPath string
	)

	cmd := &cobra.Command{
		Use:   "graph [project...]",
		Short: "Resolve projects and export the dependency graph",
		Long: `Graph runs a resolution and exports who requires what as Graphviz DOT
or JSON. The graph goes to stdout unless --output is set. With --svg it is
also rendered to an SVG file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			write, err := graphWriter(format)
			if err != nil {
				return err
			}
			res, err := c.runResolve(ctx, root, args)
			if err != nil {
				return err
			}

			if output != "" {
				var buf bytes.Buffer
				if err := write(res.Graph, &buf); err != nil {
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				printFile(output)
			}
			if svgPath != "" {
				svg, err := depgraph.RenderSVG(ctx, res.Graph.ToDOT())
				if err != nil {
					return err
				}
				if err := os.WriteFile(svgPath, svg, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", svgPath, err)
				}
				printFile(svgPath)
			}
			if output == "" && svgPath == "" {
				return write(res.Graph, cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&root, "workspace", "w", ".", "workspace root holding .sn/")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the graph to this file")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or json")
	cmd.Flags().StringVar(&svgPath, "svg", "", "render the graph to this SVG file")
	return cmd
}

func graphWriter(format string) (func(*depgraph.Graph, io.Writer) error, error) {
	switch format {
	case "dot", "":
		return (*depgraph.Graph).WriteDOT, nil
	case "json":
		return (*depgraph.Graph).WriteJSON, nil
	default:
		return nil, rekyerrors.New(rekyerrors.ErrCodeInvalidInput, "unknown graph format %q (want dot or json)", format)
	}
}
