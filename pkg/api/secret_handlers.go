package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type setSecretRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleSetSecret(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req setSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if _, err := s.deps.Flows.Get(vars["id"]); err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.deps.Vault.Set(vars["id"], vars["key"], req.Value); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListSecrets returns secret keys only; values never leave the vault.
func (s *Server) handleListSecrets(w http.ResponseWriter, r *http.Request) {
	keys, err := s.deps.Vault.List(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"keys": keys})
}

func (s *Server) handleDeleteSecret(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.deps.Vault.Delete(vars["id"], vars["key"]); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
