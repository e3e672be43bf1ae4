// Package http exposes the service's HTTP surface: the SNS inbound endpoint
// plus health, readiness, and metrics routes.
package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geistdevelopment/wetter-bericht/internal/adapter/inbound"
	"github.com/geistdevelopment/wetter-bericht/internal/domain"
)

// maxInboundBody caps the accepted SNS POST body. SES receipt notifications
// carry the full MIME message inline.
const maxInboundBody = 1 << 20 // 1 MiB

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// InboundHandler processes one decoded inbound email.
type InboundHandler interface {
	HandleInbound(ctx context.Context, msg domain.InboundEmail) error
}

// Server exposes the inbound endpoint plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	handler    InboundHandler
	logger     *slog.Logger
}

// NewServer creates an HTTP server with POST /inbound, /healthz, /readyz, and
// /metrics routes.
func NewServer(addr string, handler InboundHandler, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		handler: handler,
		logger:  logger,
	}

	mux.HandleFunc("POST /inbound", s.handleInbound)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleInbound accepts an SNS POST. Subscription confirmations are logged
// and acknowledged so the operator can confirm the topic out of band; malformed
// notifications get a 400 so SNS does not redeliver them indefinitely.
func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInboundBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body too large or unreadable"})
		return
	}

	env, err := inbound.ParseEnvelope(body)
	if err != nil {
		s.logger.Warn("rejecting inbound post", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	switch env.Type {
	case inbound.TypeSubscriptionConfirmation:
		s.logger.Info("sns subscription confirmation received", "topic", env.TopicArn, "subscribe_url", env.SubscribeURL)
		writeJSON(w, http.StatusOK, map[string]string{"status": "confirmation logged"})

	case inbound.TypeNotification:
		msg, err := inbound.DecodeNotification(env.Message)
		if err != nil {
			s.logger.Warn("rejecting undecodable notification", "message_id", env.MessageID, "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		if err := s.handler.HandleInbound(r.Context(), msg); err != nil {
			s.logger.Error("inbound handling failed", "message_id", env.MessageID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "processing failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})

	default:
		s.logger.Warn("ignoring unsupported sns message type", "type", env.Type)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
