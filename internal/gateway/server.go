package gateway

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	admissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_admissions_total",
			Help: "Connection admission decisions by outcome",
		},
		[]string{"result", "profile"},
	)

	connectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_connections_active",
			Help: "Currently open charge point connections",
		},
	)
)

// Server terminates charge point WebSocket connections. Admission is the
// whole job: message handling past the handshake is logged and dropped.
type Server struct {
	router   chi.Router
	admitter *Admitter
	logger   zerolog.Logger
}

func NewServer(logger zerolog.Logger, decider SecurityDecider) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		admitter: NewAdmitter(decider, logger),
		logger:   logger,
	}

	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.router.Get("/ocpp/{chargePointId}", s.handleConnect)

	return s
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	chargePointID := chi.URLParam(r, "chargePointId")
	if chargePointID == "" {
		http.Error(w, "missing charge point id", http.StatusBadRequest)
		return
	}

	attempt := ConnAttempt{
		ChargePointID:  chargePointID,
		RemoteIP:       remoteAddr(r),
		TLSFingerprint: peerFingerprint(r),
	}
	attempt.Username, attempt.Password, attempt.HasCredentials = r.BasicAuth()

	decision, err := s.admitter.Admit(r.Context(), attempt)
	if err != nil {
		admissionsTotal.WithLabelValues("error", string(decision.Profile)).Inc()
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if !decision.Allow {
		admissionsTotal.WithLabelValues("denied", string(decision.Profile)).Inc()
		s.logger.Warn().
			Str("charge_point_id", chargePointID).
			Str("remote_ip", attempt.RemoteIP.String()).
			Str("reason", decision.Reason).
			Msg("connection denied")
		w.Header().Set("WWW-Authenticate", `Basic realm="ocpp"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	admissionsTotal.WithLabelValues("allowed", string(decision.Profile)).Inc()

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: decision.AllowedProtocols,
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("charge_point_id", chargePointID).
			Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	s.logger.Info().
		Str("charge_point_id", chargePointID).
		Str("remote_ip", attempt.RemoteIP.String()).
		Str("auth_profile", string(decision.Profile)).
		Str("subprotocol", ws.Subprotocol()).
		Str("reason", decision.Reason).
		Msg("charge point connected")

	connectionsActive.Inc()
	defer connectionsActive.Dec()

	s.readLoop(r.Context(), ws, chargePointID)
}

// readLoop drains inbound frames until the peer goes away. OCPP message
// handling lives upstream; here every frame is logged and discarded.
func (s *Server) readLoop(ctx context.Context, ws *websocket.Conn, chargePointID string) {
	for {
		msgType, data, err := ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				s.logger.Info().Str("charge_point_id", chargePointID).Msg("charge point disconnected")
			} else {
				s.logger.Warn().Err(err).Str("charge_point_id", chargePointID).Msg("read failed")
			}
			return
		}
		s.logger.Debug().
			Str("charge_point_id", chargePointID).
			Str("type", msgType.String()).
			Int("bytes", len(data)).
			Msg("frame received")
	}
}

// ListenAndServe runs the gateway until ctx is cancelled. A nil tlsConf
// serves plaintext, for deployments behind a TLS-terminating proxy.
func (s *Server) ListenAndServe(ctx context.Context, addr string, tlsConf *tls.Config) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		TLSConfig:         tlsConf,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if tlsConf != nil {
			errCh <- srv.ListenAndServeTLS("", "")
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func remoteAddr(r *http.Request) netip.Addr {
	addrPort, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		return netip.Addr{}
	}
	return addrPort.Addr()
}

// peerFingerprint returns the SHA-256 digest of the client certificate
// presented during the TLS handshake, or "" for plain connections.
func peerFingerprint(r *http.Request) string {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return ""
	}
	sum := sha256.Sum256(r.TLS.PeerCertificates[0].Raw)
	return hex.EncodeToString(sum[:])
}
