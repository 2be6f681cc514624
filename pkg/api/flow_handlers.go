package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/storage"
)

type createFlowRequest struct {
	Name         string `json:"name"`
	EndpointSlug string `json:"endpoint_slug"`
}

func (s *Server) handleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var req createFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	flow, err := s.deps.Flows.Create(req.Name, req.EndpointSlug)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, flow)
}

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := s.deps.Flows.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, flows)
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := s.deps.Flows.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

type updateFlowRequest struct {
	Name           string                  `json:"name,omitempty"`
	Signature      *models.SignatureConfig `json:"signature,omitempty"`
	Variables      map[string]string       `json:"variables,omitempty"`
	InternalSecret *string                 `json:"internal_secret,omitempty"`
}

func (s *Server) handleUpdateFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := s.deps.Flows.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	var req updateFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if req.Name != "" {
		flow.Name = req.Name
	}
	if req.Signature != nil {
		flow.Signature = *req.Signature
	}
	if req.Variables != nil {
		flow.Variables = req.Variables
	}
	if req.InternalSecret != nil {
		flow.InternalSecret = *req.InternalSecret
	}

	if err := s.deps.Flows.Update(flow); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (s *Server) handleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Flows.Delete(mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePublishFlow(w http.ResponseWriter, r *http.Request) {
	var graph models.FlowGraph
	if err := json.NewDecoder(r.Body).Decode(&graph); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	flow, err := s.deps.Flows.Publish(mux.Vars(r)["id"], graph)
	if err != nil {
		if errors.Is(err, storage.ErrFlowNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

type setAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	var req setAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if err := s.deps.Flows.SetAPIKey(mux.Vars(r)["id"], req.APIKey); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	executions, err := s.deps.Executions.ListExecutions(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, executions)
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	execution, err := s.deps.Executions.GetExecution(mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, execution)
}

func (s *Server) handleGetExecutionLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.deps.Executions.GetExecutionLogs(mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// writeStoreError maps storage sentinel errors to HTTP statuses.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrFlowNotFound),
		errors.Is(err, storage.ErrGraphNotFound),
		errors.Is(err, storage.ErrExecutionNotFound),
		errors.Is(err, storage.ErrSecretNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
