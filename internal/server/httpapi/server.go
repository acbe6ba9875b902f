// Package httpapi exposes the portal services over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 10 * time.Minute
	shutdownTimeout   = 15 * time.Second
)

type Server struct {
	address      string
	logger       logging.Logger
	svc          Services
	cookieTTL    time.Duration
	secureCookie bool
}

func NewServer(cfg *config.Config, l logging.Logger, svc Services) *Server {
	return &Server{
		address:      cfg.HTTPAddr,
		logger:       l.With("module", "http_server"),
		svc:          svc,
		cookieTTL:    cfg.AccessTokenValidityDuration,
		secureCookie: strings.HasPrefix(cfg.PublicBaseURL, "https://"),
	}
}

// Handler builds the route table wrapped in tracing and access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /auth/magic-link", s.handleMagicLink)
	mux.HandleFunc("GET /auth/verify", s.handleVerify)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.Handle("GET /auth/me", s.session(s.handleMe))

	mux.Handle("GET /projects", s.session(s.handleListProjects))
	mux.Handle("GET /projects/{id}", s.session(s.handleGetProject))
	mux.Handle("POST /projects/{id}/feedback", s.session(s.handleFeedback))
	mux.Handle("POST /projects/{id}/release", s.session(s.handleRelease))

	mux.Handle("GET /deliverables/{id}/download", s.session(s.handleDeliverableDownload))
	mux.Handle("POST /files/{id}/link", s.session(s.handleFileLink))
	mux.HandleFunc("GET /files/{id}/download", s.handleSignedDownload)

	mux.HandleFunc("POST /webhooks/stripe", s.handleStripeWebhook)
	mux.HandleFunc("POST /leads", s.handleLead)
	mux.HandleFunc("POST /newsletter", s.handleNewsletter)
	mux.HandleFunc("GET /field-notes", s.handleFieldNotes)

	mux.Handle("GET /admin/dashboard", s.admin(s.handleDashboard))
	mux.Handle("POST /admin/clients", s.admin(s.handleCreateClient))
	mux.Handle("POST /admin/projects", s.admin(s.handleCreateProject))
	mux.Handle("POST /admin/projects/{id}/invoices", s.admin(s.handleCreateInvoice))
	mux.Handle("POST /admin/projects/{id}/deliverables", s.admin(s.handleCreateDeliverable))
	mux.Handle("POST /admin/projects/{id}/files", s.admin(s.handleCreateProjectFile))
	mux.Handle("POST /admin/deliverables/{id}/files", s.admin(s.handleReplaceDeliverableFiles))
	mux.Handle("POST /admin/invoices/{id}/paid", s.admin(s.handleInvoicePaid))
	mux.Handle("GET /admin/payments/unmatched", s.admin(s.handleUnmatchedPayments))
	mux.Handle("POST /admin/payments/{id}/reconcile", s.admin(s.handleReconcile))

	return s.accessLog(otelhttp.NewHandler(mux, "portal"))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	err := srv.Serve(listen)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
