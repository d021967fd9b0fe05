package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vargha1/bounceroyale/internal/config"
	"github.com/vargha1/bounceroyale/internal/discovery"
	"github.com/vargha1/bounceroyale/internal/game"
	"github.com/vargha1/bounceroyale/internal/httpapi"
	"github.com/vargha1/bounceroyale/internal/relay"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var disco *discovery.Service
	if cfg.DiscoveryEnabled {
		disco = discovery.New(cfg.Port, cfg.DiscoveryInterval, logger)
	}

	opts := relay.Options{Logger: logger}
	if disco != nil {
		opts.Announcer = disco
	}
	rl := relay.New(ctx, game.NewRegistry(), opts)

	handler := httpapi.SetupRoutes(rl, disco, cfg.PublicHost, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if cfg.TLSEnabled() {
			logger.Info("starting HTTPS server", zap.Int("port", cfg.Port))
			return srv.ListenAndServeTLS(cfg.SSLCertPath, cfg.SSLKeyPath)
		}
		logger.Info("SSL certificates not found, starting HTTP server", zap.Int("port", cfg.Port))
		return srv.ListenAndServe()
	})

	if disco != nil {
		g.Go(func() error {
			disco.Browse(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server exited", zap.Error(err))
	}
}
