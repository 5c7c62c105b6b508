package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/pipeline"
	"github.com/shaderflow/shaderflow/pkg/render"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// vizOpts holds the command-line flags for the viz command.
type vizOpts struct {
	output   string // output file path
	format   string // "dot" or "svg"
	passes   bool   // render the compiled pass DAG instead of the graph
	detailed bool   // include port names and types in node labels
	noCache  bool   // disable the compile cache (pass DAG mode only)
}

// vizCommand creates the viz command for visualizing graphs and pass chains.
func (c *CLI) vizCommand() *cobra.Command {
	opts := vizOpts{format: formatDOT}

	cmd := &cobra.Command{
		Use:   "viz [file]",
		Short: "Render a graph document or its pass chain as DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatDOT && opts.format != formatSVG {
				return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", opts.format)
			}
			return c.runViz(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot (default), svg")
	cmd.Flags().BoolVar(&opts.passes, "passes", false, "compile first and render the pass DAG")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with port names and types")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the compile cache")

	return cmd
}

func (c *CLI) runViz(ctx context.Context, input string, opts *vizOpts) error {
	logger := loggerFromContext(ctx)

	g, docOutput, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}

	var dot string
	if opts.passes {
		res, err := c.newRunner(opts.noCache).Execute(ctx, g, pipeline.Options{Output: docOutput})
		if err != nil {
			return err
		}
		logger.Debugf("Compiled %d passes", len(res.Passes))
		dot = render.PassesToDOT(res.Passes)
	} else {
		dot = render.ToDOT(g, render.Options{Detailed: opts.detailed})
	}

	data := []byte(dot)
	if opts.format == formatSVG {
		prog := newProgress(logger)
		data, err = render.RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
		prog.done("Rendered SVG")
	}

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(data); err != nil {
		return err
	}
	if opts.output != "" {
		printFile(opts.output)
	}
	return nil
}
