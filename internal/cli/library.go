package cli

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/shaderflow/shaderflow/pkg/library"
)

// libraryCommand creates the library management command.
func (c *CLI) libraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage node definitions",
	}

	cmd.AddCommand(c.libraryListCommand())
	cmd.AddCommand(c.libraryValidateCommand())
	cmd.AddCommand(c.libraryPushCommand())
	cmd.AddCommand(c.libraryPullCommand())

	return cmd
}

// libraryListCommand creates the "library list" subcommand.
func (c *CLI) libraryListCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available node definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := library.Builtin()
			if dir != "" {
				extra, err := library.LoadDir(dir)
				if err != nil {
					return err
				}
				defs = append(defs, extra...)
			}

			for _, d := range defs {
				kind := "standard"
				if len(d.Stages) > 0 {
					kind = fmt.Sprintf("staged (%d)", len(d.Stages))
				}
				fmt.Printf("%s %s %s\n",
					StyleHighlight.Render(fmt.Sprintf("%-12s", d.ID)),
					StyleValue.Render(fmt.Sprintf("%-20s", d.Label)),
					StyleDim.Render(kind+"  "+strings.Join(d.Tags, ",")))
			}
			printDetail("%d definitions", len(defs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "include definitions from a manifest directory")
	return cmd
}

// libraryValidateCommand creates the "library validate" subcommand.
func (c *CLI) libraryValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate a manifest directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := library.LoadDir(args[0])
			if err != nil {
				printError("%s", err)
				return err
			}
			for _, d := range defs {
				if _, err := d.Instantiate(); err != nil {
					printWarning("%s: %s", d.ID, err)
					continue
				}
				printSuccess("%s", d.ID)
			}
			printDetail("%d definitions valid", len(defs))
			return nil
		},
	}
}

// libraryPushCommand creates the "library push" subcommand.
func (c *CLI) libraryPushCommand() *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "push [dir]",
		Short: "Upload a manifest directory to the shared registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			defs, err := library.LoadDir(args[0])
			if err != nil {
				return err
			}

			reg, err := library.NewMongoRegistry(ctx, uri)
			if err != nil {
				return err
			}
			defer reg.Close(ctx)

			for _, d := range defs {
				if err := reg.Put(ctx, d); err != nil {
					return err
				}
				printSuccess("%s", d.ID)
			}
			printDetail("%d definitions pushed", len(defs))
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "registry connection URI (default $"+library.EnvLibraryURI+")")
	return cmd
}

// libraryPullCommand creates the "library pull" subcommand.
func (c *CLI) libraryPullCommand() *cobra.Command {
	var uri, output string

	cmd := &cobra.Command{
		Use:   "pull [id]",
		Short: "Fetch definitions from the shared registry as a TOML manifest",
		Long: `Pull fetches one definition by id, or every stored definition when no
id is given, and writes them as a TOML manifest.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reg, err := library.NewMongoRegistry(ctx, uri)
			if err != nil {
				return err
			}
			defer reg.Close(ctx)

			var defs []library.Definition
			if len(args) == 1 {
				d, err := reg.Get(ctx, args[0])
				if err != nil {
					return err
				}
				defs = []library.Definition{d}
			} else {
				if defs, err = reg.List(ctx); err != nil {
					return err
				}
			}

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()

			manifest := struct {
				Nodes []library.Definition `toml:"node"`
			}{Nodes: defs}
			if err := toml.NewEncoder(out).Encode(manifest); err != nil {
				return err
			}
			if output != "" {
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "registry connection URI (default $"+library.EnvLibraryURI+")")
	cmd.Flags().StringVarP(&output, "out", "o", "", "write manifest to file instead of stdout")
	return cmd
}
