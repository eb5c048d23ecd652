package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/memorama/internal/config"
	"github.com/playperu/memorama/internal/game"
	"github.com/playperu/memorama/internal/memory"
	"github.com/playperu/memorama/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Games ---
	images, err := memory.DefaultImages(cfg.ImageURLTemplate)
	if err != nil {
		return fmt.Errorf("card images: %w", err)
	}
	opts := game.Options{
		Images:         images,
		InitialSeconds: cfg.GameSeconds,
		RevealWindow:   cfg.RevealWindow,
		FlipBackDelay:  cfg.FlipBackDelay,
		WinDelay:       cfg.WinDelay,
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("game options: %w", err)
	}

	broker := server.NewBroker()
	games := server.NewRegistry(opts, broker, logger, cfg.MaxSessions)
	defer games.Close()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, games, broker, cfg.SPADir)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return games.Reap(gctx, cfg.SessionIdleTTL, cfg.ReapInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
