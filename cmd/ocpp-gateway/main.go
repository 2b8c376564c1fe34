package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voltgrid/csms/internal/config"
	"github.com/voltgrid/csms/internal/core"
	"github.com/voltgrid/csms/internal/gateway"
	"github.com/voltgrid/csms/internal/logging"
	"github.com/voltgrid/csms/internal/metrics"
	"github.com/voltgrid/csms/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("ocpp-gateway"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := store.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to identity store")
	}
	defer redisClient.Close()
	metrics.RegisterRedisMetrics(redisClient)

	// The gateway only reads security state and verifies credentials, so it
	// runs without the relational directory.
	chargers := store.NewChargerStore(redisClient, cfg.ChargerKeyPrefix, logger)
	identities := core.NewChargePointIdentityService(chargers, nil, core.BootstrapConfig{
		DefaultMinutes: cfg.BootstrapDefaultMinutes,
		MaxMinutes:     cfg.BootstrapMaxMinutes,
	}, logger)

	tlsConf, err := cfg.GatewayTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure gateway TLS")
	}

	metricsSrv := metrics.NewServer(cfg.MetricsListenAddr)
	go func() {
		logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	srv := gateway.NewServer(logger, identities)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.GatewayListenAddr).
			Bool("tls", tlsConf != nil).
			Msg("starting ocpp gateway")
		errCh <- srv.ListenAndServe(ctx, cfg.GatewayListenAddr, tlsConf)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info().Msg("shutting down gateway")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("gateway failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)
}
