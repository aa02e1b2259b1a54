package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RLGADM/Kenshou-beta-3/internal/config"
	"github.com/RLGADM/Kenshou-beta-3/internal/httpapi"
	"github.com/RLGADM/Kenshou-beta-3/internal/ident"
	"github.com/RLGADM/Kenshou-beta-3/internal/presence"
	"github.com/RLGADM/Kenshou-beta-3/internal/registry"
	"github.com/RLGADM/Kenshou-beta-3/internal/ws"
)

func main() {
	cfg := config.Load()

	logger, err := buildLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ids := ident.New()
	reg := registry.New(ctx, ids, logger)

	// Grace expiry re-enters through the registry inbox so room state stays
	// single-writer.
	tracker := presence.NewTracker(cfg.GracePeriod, func(identity string) {
		reg.Send(registry.RemoveByIdentity{Identity: identity})
	}, logger)

	handler := httpapi.SetupRoutes(reg, ws.Handler(reg, tracker, ids, cfg.AllowedOrigins, logger))
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		tracker.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
