package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/shaderflow/shaderflow/pkg/compile"
	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/pipeline"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	interactive bool // browse passes in a TUI instead of printing
	noCache     bool // disable the compile cache
	source      bool // include full program sources in the printed summary
}

// inspectCommand creates the inspect command for examining compiled output.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Compile a graph document and summarize its pass chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse passes interactively")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the compile cache")
	cmd.Flags().BoolVar(&opts.source, "source", false, "print full program sources")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input string, opts *inspectOpts) error {
	g, docOutput, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}

	res, err := c.newRunner(opts.noCache).Execute(ctx, g, pipeline.Options{Output: docOutput})
	if err != nil {
		return err
	}

	if opts.interactive {
		model := newPassBrowser(res.Passes)
		_, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
		return err
	}

	fmt.Println(StyleTitle.Render("Pass Chain"))
	printKeyValue("graph", res.GraphHash[:12])
	printKeyValue("passes", fmt.Sprintf("%d", len(res.Passes)))
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.PassCount, res.CacheInfo.CompileHit)
	fmt.Println()

	for i, p := range res.Passes {
		fmt.Printf("%s %s\n", StyleDim.Render(fmt.Sprintf("[%d]", i)), StyleHighlight.Render(p.ID))
		for _, line := range passSummary(p) {
			printDetail("%s", line)
		}
		if opts.source {
			fmt.Println(StyleDim.Render(indent(p.Source, "    ")))
		}
	}
	return nil
}

// passSummary renders one pass's bindings as indented detail lines.
func passSummary(p *compile.RenderPass) []string {
	var lines []string

	if len(p.Uniforms) > 0 {
		names := make([]string, 0, len(p.Uniforms))
		for name := range p.Uniforms {
			names = append(names, name)
		}
		sort.Strings(names)
		lines = append(lines, fmt.Sprintf("uniforms: %s", strings.Join(names, ", ")))
	}

	if len(p.Inputs) > 0 {
		names := make([]string, 0, len(p.Inputs))
		for name := range p.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("%s %s %s", name, iconArrow, p.Inputs[name]))
		}
	}

	if p.Feedback != nil {
		var traits []string
		if p.Feedback.Persistent {
			traits = append(traits, "persistent")
		}
		if p.Feedback.HasClear {
			traits = append(traits, fmt.Sprintf("clear %v", p.Feedback.Clear))
		}
		if p.Feedback.Initial != "" {
			traits = append(traits, "initial "+p.Feedback.Initial)
		}
		lines = append(lines, "feedback: "+strings.Join(traits, ", "))
	}

	if p.Loop > 1 {
		lines = append(lines, fmt.Sprintf("loop: %d iterations", p.Loop))
	}
	return lines
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+prefix)
}
