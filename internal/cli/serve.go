package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaderflow/shaderflow/internal/server"
	"github.com/shaderflow/shaderflow/pkg/cache"
	"github.com/shaderflow/shaderflow/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr  string // listen address
	redis string // redis address for a shared cache; empty uses the file cache
}

// serveCommand creates the serve command running the HTTP compile service.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: ":8383"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP compile service",
		Long: `Serve exposes POST /compile over HTTP for out-of-process editors.
With --redis (or SHADERFLOW_REDIS_ADDR set), compilations are cached in
redis so several service replicas reuse each other's results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "redis address for a shared compile cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	backend, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	defer backend.Close()

	runner := pipeline.NewRunner(backend, nil, logger)
	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           server.New(runner, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", opts.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// serveCache picks the service cache backend: redis when configured,
// otherwise the local file cache.
func (c *CLI) serveCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	if opts.redis != "" || os.Getenv(cache.EnvRedisAddr) != "" {
		return cache.NewRedis(ctx, cache.RedisOptions{Addr: opts.redis})
	}
	return newCache(false), nil
}
