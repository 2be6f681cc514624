// Package api exposes the HTTP surface: the flow trigger entry point,
// the management API and the execution log stream.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/api/middleware"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/config"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/registry"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/runtime"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/services"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/storage"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/webhooks"
)

// Deps carries the collaborators the server needs.
type Deps struct {
	Flows      *registry.FlowRegistry
	Vault      *services.SecretVaultService
	JWT        *services.JWTService
	Executions storage.ExecutionStore
	Engine     *runtime.Engine
	Verifier   *webhooks.Verifier
}

// Server is the HTTP server for flow triggers and management.
type Server struct {
	config     *config.Config
	router     *mux.Router
	httpServer *http.Server
	deps       Deps
	hub        *LogHub
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Verifier == nil {
		deps.Verifier = webhooks.NewVerifier()
	}

	s := &Server{
		config: cfg,
		router: mux.NewRouter(),
		deps:   deps,
		hub:    NewLogHub(),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: middleware.CORS(s.router),
	}
	return s
}

func (s *Server) setupRoutes() {
	// Flow trigger entry point. OPTIONS is answered by the CORS
	// middleware before routing.
	s.router.HandleFunc("/hooks/{slug}", s.handleTrigger).
		Methods(http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions)

	s.router.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	// Websocket clients cannot set an Authorization header from a
	// browser, so the stream endpoint sits outside the auth subrouter.
	s.router.HandleFunc("/api/executions/{id}/stream", s.handleStreamExecution).Methods(http.MethodGet)

	// Management API behind JWT auth.
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(s.deps.JWT))

	api.HandleFunc("/flows", s.handleCreateFlow).Methods(http.MethodPost)
	api.HandleFunc("/flows", s.handleListFlows).Methods(http.MethodGet)
	api.HandleFunc("/flows/{id}", s.handleGetFlow).Methods(http.MethodGet)
	api.HandleFunc("/flows/{id}", s.handleUpdateFlow).Methods(http.MethodPut)
	api.HandleFunc("/flows/{id}", s.handleDeleteFlow).Methods(http.MethodDelete)
	api.HandleFunc("/flows/{id}/publish", s.handlePublishFlow).Methods(http.MethodPost)
	api.HandleFunc("/flows/{id}/api-key", s.handleSetAPIKey).Methods(http.MethodPut)

	api.HandleFunc("/flows/{id}/secrets", s.handleListSecrets).Methods(http.MethodGet)
	api.HandleFunc("/flows/{id}/secrets/{key}", s.handleSetSecret).Methods(http.MethodPut)
	api.HandleFunc("/flows/{id}/secrets/{key}", s.handleDeleteSecret).Methods(http.MethodDelete)

	api.HandleFunc("/flows/{id}/executions", s.handleListExecutions).Methods(http.MethodGet)
	api.HandleFunc("/executions/{id}", s.handleGetExecution).Methods(http.MethodGet)
	api.HandleFunc("/executions/{id}/logs", s.handleGetExecutionLogs).Methods(http.MethodGet)
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return middleware.CORS(s.router)
}

// Start begins listening for requests.
func (s *Server) Start() error {
	if s.config.Server.TLS.Enabled {
		return s.httpServer.ListenAndServeTLS(s.config.Server.TLS.CertFile, s.config.Server.TLS.KeyFile)
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
