package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-shexform/pkg/server"
)

// ServeCmd serves form sessions until interrupted.
type ServeCmd struct {
	SchemaFlags

	Addr          string        `name:"addr" short:"a" help:"Listen address. Defaults to :8080."`
	BasePath      string        `name:"base-path" help:"Path prefix when mounted behind a proxy."`
	IdleTimeout   time.Duration `name:"idle-timeout" help:"Forget sessions unused this long. Defaults to 30m."`
	SweepInterval time.Duration `name:"sweep-interval" help:"How often idle sessions are collected. Defaults to 1m."`
	MaxSessions   int           `name:"max-sessions" help:"Sessions held in memory. Defaults to 1000."`
	Origins       []string      `name:"origin" help:"Extra origins allowed to open live connections."`
	NoLive        bool          `name:"no-live" help:"Disable live editing over websockets."`
	ShutdownGrace time.Duration `name:"shutdown-grace" default:"5s" help:"Time allowed for in-flight requests on shutdown."`
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals, env *Env) error {
	ctx = g.Context(ctx)
	logger := slog.Default()
	cfg := g.Settings().Server

	orch, err := c.orchestrator(g)
	if err != nil {
		return err
	}
	req, err := c.request(ctx, g, env, orch)
	if err != nil {
		return err
	}

	options := []server.Option{
		server.WithOrchestrator(orch),
		server.WithDefaults(req),
		server.WithLogger(logger),
		server.WithBasePath(firstNonEmpty(c.BasePath, cfg.BasePath)),
		server.WithOriginPatterns(append(append([]string(nil), cfg.Origins...), c.Origins...)...),
	}
	if d := firstDuration(c.IdleTimeout, cfg.IdleTimeout); d > 0 {
		options = append(options, server.WithIdleTimeout(d))
	}
	if d := firstDuration(c.SweepInterval, cfg.SweepInterval); d > 0 {
		options = append(options, server.WithSweepInterval(d))
	}
	if n := firstPositive(c.MaxSessions, cfg.MaxSessions); n > 0 {
		options = append(options, server.WithMaxSessions(n))
	}
	if c.NoLive || cfg.DisableLive {
		options = append(options, server.WithoutLive())
	}

	srv, err := server.New(ctx, options...)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              firstNonEmpty(c.Addr, cfg.Addr, ":8080"),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening", "addr", httpServer.Addr, "start", req.Start)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return srv.Run(gctx)
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "error", err)
		}
		return nil
	})
	return group.Wait()
}

func firstDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
