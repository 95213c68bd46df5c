// Package api exposes the attachment service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/careplanner/internal/attachments"
	"github.com/dharsanguruparan/careplanner/internal/config"
	"github.com/dharsanguruparan/careplanner/internal/repository"
	"github.com/dharsanguruparan/careplanner/internal/signing"
	"github.com/dharsanguruparan/careplanner/internal/storage"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Attachments *attachments.Service
	Previews    repository.PreviewStore
	// Blobs and Signer are only set for the memory backend, whose signed links
	// point back at this server.
	Blobs  storage.ObjectStore
	Signer *signing.Signer
}

// Server exposes HTTP endpoints for attachments.
type Server struct {
	cfg     *config.Config
	deps    Deps
	log     logrus.FieldLogger
	handler http.Handler
	once    sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, deps Deps, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{cfg: cfg, deps: deps, log: log}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() { s.handler = s.routes() })
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware, requestLogger(s.log), metricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/owners/{kind}/{id}/attachments", s.handleList)
		r.Post("/owners/{kind}/{id}/attachments", s.handleUpload)
		r.Get("/attachments/{attachmentID}/signed-url", s.handleSignedURL)
		r.Get("/attachments/{attachmentID}/preview", s.handlePreview)
	})

	if s.deps.Signer != nil && s.deps.Blobs != nil {
		r.Get("/blobs/{bucket}/*", s.handleBlob)
	}
	return r
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	s.log.WithField("addr", s.cfg.Address).Info("api listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
