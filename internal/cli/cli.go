// Package cli implements the shaderflow command-line interface.
//
// This package provides commands for compiling shader graphs into render
// pass chains, visualizing graphs and pass DAGs, inspecting compiled
// output, serving the compile API, and managing the compile cache and node
// library. The CLI is built using cobra and supports verbose logging via
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - compile: Compile a graph document into render passes
//   - viz: Render a graph or its pass chain as DOT or SVG
//   - inspect: Summarize a compiled pass chain
//   - serve: Run the HTTP compile service
//   - cache: Manage the compile cache
//   - library: List, validate, and sync node definitions
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shaderflow/shaderflow/pkg/buildinfo"
	"github.com/shaderflow/shaderflow/pkg/cache"
	"github.com/shaderflow/shaderflow/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "shaderflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Shaderflow compiles shader graphs into render pass chains",
		Long:         `Shaderflow is a multi-pass shader graph compiler: it parses restricted shading-language node bodies, infers port types across connections, and emits an ordered chain of render passes with uniform and texture bindings.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.compileCommand())
	root.AddCommand(c.vizCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.libraryCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) *pipeline.Runner {
	return pipeline.NewRunner(newCache(noCache), nil, c.Logger)
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNull()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNull()
	}
	fc, err := cache.NewFile(dir)
	if err != nil {
		return cache.NewNull()
	}
	return fc
}

// cacheDir returns the cache directory using XDG standard
// (~/.cache/shaderflow/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// nopCloser wraps an io.Writer with a no-op Close method so os.Stdout can
// stand in for a file.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path, or stdout when path
// is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
