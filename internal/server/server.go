// Package server provides the HTTP API for solarlist.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/solarlist/solarlist/internal/catalog"
	"github.com/solarlist/solarlist/internal/config"
	"github.com/solarlist/solarlist/internal/storage"
	"github.com/solarlist/solarlist/internal/workflow"
)

// Server is the HTTP server for the solarlist API.
type Server struct {
	controller *workflow.Controller
	storage    storage.Storage
	catalog    *catalog.Catalog
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	controller *workflow.Controller,
	store storage.Storage,
	cat *catalog.Catalog,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		controller: controller,
		storage:    store,
		catalog:    cat,
		config:     cfg,
		logger:     logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/catalog", s.handleCatalog)
	r.Post("/api/v1/records", s.handleSubmit)
	r.Get("/api/v1/records", s.handleHistory)
	r.Get("/api/v1/records/export", s.handleExport)
	r.Get("/api/v1/records/{id}", s.handleGetRecord)
	r.Get("/api/v1/records/{id}/document", s.handleGetDocument)
	r.Get("/api/v1/records/{id}/whatsapp", s.handleWhatsApp)
	r.Delete("/api/v1/records/{id}", s.handleDelete)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
