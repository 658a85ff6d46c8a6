package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pmani/ad-mosaic/internal/auth"
	"github.com/pmani/ad-mosaic/internal/config"
	"github.com/pmani/ad-mosaic/internal/inspector"
	"github.com/pmani/ad-mosaic/internal/pages"
	"github.com/pmani/ad-mosaic/internal/storage"
	"github.com/pmani/ad-mosaic/internal/warehouse"
)

// Server is the HTTP front for the suite: auth, warehouse proxy, pages
// CRUD, the inspector endpoints and the form tools.
type Server struct {
	config      config.ServerConfig
	handler     http.Handler
	handlers    *Handlers
	server      *http.Server
	authManager *auth.Manager
	router      *chi.Mux
}

// Handlers bundles the services the route handlers dispatch into.
type Handlers struct {
	datasets  *inspector.Manager
	exporter  *inspector.Exporter
	pages     *pages.Service
	warehouse *warehouse.Client
	archiver  *storage.Archiver
	maxUpload int64
}

// NewHandlers wires the handler set. warehouse and pages may be nil when
// the warehouse is not configured; their endpoints then return 503.
// archiver may be nil, which disables export archiving.
func NewHandlers(cfg config.InspectorConfig, datasets *inspector.Manager, exporter *inspector.Exporter, pagesSvc *pages.Service, wh *warehouse.Client, archiver *storage.Archiver) *Handlers {
	maxUpload := int64(cfg.MaxUploadSizeMB) << 20
	if maxUpload <= 0 {
		maxUpload = 100 << 20
	}
	return &Handlers{
		datasets:  datasets,
		exporter:  exporter,
		pages:     pagesSvc,
		warehouse: wh,
		archiver:  archiver,
		maxUpload: maxUpload,
	}
}

// NewServer creates the API server. authManager may be nil to run without
// authentication (local development).
func NewServer(cfg config.ServerConfig, h *Handlers, authManager *auth.Manager) *Server {
	router := SetupRoutes(cfg, h, authManager)
	return &Server{
		config:      cfg,
		handler:     router,
		handlers:    h,
		authManager: authManager,
		router:      router,
	}
}

// ListenAndServe starts the HTTP server. Write timeout is generous because
// with-media exports stream large workbooks.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.config.GetHost(), s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       5 * time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
