package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/voltgrid/csms/internal/api/handler"
	mw "github.com/voltgrid/csms/internal/api/middleware"
	"github.com/voltgrid/csms/internal/config"
	"github.com/voltgrid/csms/internal/core"
	"github.com/voltgrid/csms/internal/store"
)

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	services    *core.Services
	corePool    *pgxpool.Pool
	redisClient *redis.Client
	cfg         *config.Config
	auditLogger *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, coreDB *pgxpool.Pool, redisClient *redis.Client, cfg *config.Config) *Server {
	chargers := store.NewChargerStore(redisClient, cfg.ChargerKeyPrefix, logger)
	services := core.NewServices(coreDB, chargers, core.BootstrapConfig{
		DefaultMinutes: cfg.BootstrapDefaultMinutes,
		MaxMinutes:     cfg.BootstrapMaxMinutes,
	}, logger)
	auditLogger := mw.NewAuditLogger(coreDB, logger)

	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		services:    services,
		corePool:    coreDB,
		redisClient: redisClient,
		cfg:         cfg,
		auditLogger: auditLogger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.corePool))
		r.Use(s.auditLogger.Middleware)

		cp := handler.NewChargePoint(s.services.ChargePoint)
		r.Get("/charge-points/{id}", cp.Get)
		r.Post("/charge-points/{id}/provision", cp.Provision)
		r.Post("/charge-points/{id}/certificates", cp.BindCertificate)
		r.Put("/charge-points/{id}/bootstrap", cp.UpdateBootstrap)
		r.Get("/charge-points/{id}/security-state", cp.SecurityState)
		r.Put("/charge-points/{id}/status", cp.SetStatus)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.corePool.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		checks["identity_store"] = err.Error()
		healthy = false
	} else {
		checks["identity_store"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

// Close flushes the async audit writer.
func (s *Server) Close() {
	s.auditLogger.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
