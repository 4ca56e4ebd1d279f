package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/flowdex/internal/server"
	"github.com/dshills/flowdex/internal/watcher"
)

var serveReindex bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveReindex, "reindex", false, "run a reindex before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine()
	if err != nil {
		return err
	}
	defer eng.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveReindex {
		stats, err := eng.indexer.Reindex(ctx, eng.config.Workflows.Root, false)
		if err != nil {
			return err
		}
		eng.logger.Info("startup reindex complete",
			zap.Int("processed", stats.Processed),
			zap.Int("skipped", stats.Skipped),
			zap.Int("failed", stats.Failed))
	}

	if eng.config.Workflows.Watch {
		w, err := watcher.New(eng.config.Workflows.Root, eng.config.Workflows.Debounce, func(ctx context.Context) error {
			_, err := eng.indexer.Reindex(ctx, eng.config.Workflows.Root, false)
			if err == nil {
				eng.searcher.InvalidateCache()
			}
			return err
		}, eng.logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
	}

	srv := server.New(eng.searcher, eng.indexer, server.Config{
		Addr:            eng.config.Addr(),
		WorkflowsRoot:   eng.config.Workflows.Root,
		RateLimitEnable: eng.config.RateLimit.Enable,
		RateLimitRPS:    eng.config.RateLimit.RPS,
		RateLimitBurst:  eng.config.RateLimit.Burst,
	}, eng.logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		eng.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
