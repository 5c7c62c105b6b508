package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/pipeline"
)

// compileOpts holds the command-line flags for the compile command.
type compileOpts struct {
	output        string // output node id override
	outFile       string // pass-chain JSON destination
	noCache       bool   // skip the compile cache entirely
	refresh       bool   // bypass cache reads, still store results
	skipInference bool   // compile the document's port types as-is
	arrayCapacity int    // default capacity for unsized array ports
}

// compileCommand creates the compile command.
func (c *CLI) compileCommand() *cobra.Command {
	var opts compileOpts

	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile a graph document into render passes",
		Long: `Compile reads a graph document (JSON or YAML), runs type inference
across its connections, and emits the ordered render pass chain as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompile(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outFile, "out", "o", "", "write passes to file instead of stdout")
	cmd.Flags().StringVar(&opts.output, "output", "", "output node id (overrides the document)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the compile cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompile even on a cache hit")
	cmd.Flags().BoolVar(&opts.skipInference, "skip-inference", false, "compile declared port types as-is")
	cmd.Flags().IntVar(&opts.arrayCapacity, "array-capacity", 0, "default capacity for unsized array ports")

	return cmd
}

func (c *CLI) runCompile(ctx context.Context, input string, opts *compileOpts) error {
	logger := loggerFromContext(ctx)

	g, docOutput, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded %s: %d nodes, %d edges", input, g.NodeCount(), g.EdgeCount())

	output := opts.output
	if output == "" {
		output = docOutput
	}

	sp := newSpinnerWithContext(ctx, "Compiling "+input)
	sp.Start()
	res, err := c.newRunner(opts.noCache).Execute(ctx, g, pipeline.Options{
		Output:        output,
		Refresh:       opts.refresh,
		SkipInference: opts.skipInference,
		ArrayCapacity: opts.arrayCapacity,
	})
	if err != nil {
		sp.StopWithError("Compilation failed")
		return err
	}
	sp.StopWithSuccess(fmt.Sprintf("Compiled %d passes", len(res.Passes)))

	out, err := openOutput(opts.outFile)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Passes); err != nil {
		return err
	}

	if opts.outFile != "" {
		printFile(opts.outFile)
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.PassCount, res.CacheInfo.CompileHit)
	return nil
}
