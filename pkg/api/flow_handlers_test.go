package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

func (ts *testStack) api(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func (ts *testStack) login(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	ts.server.config.Auth.AdminUsername = "admin"
	ts.server.config.Auth.AdminPasswordHash = string(hash)

	rec := ts.api(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])
	return resp["token"]
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestStack(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	ts.server.config.Auth.AdminUsername = "admin"
	ts.server.config.Auth.AdminPasswordHash = string(hash)

	rec := ts.api(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestManagementAPIRequiresToken(t *testing.T) {
	ts := newTestStack(t)

	rec := ts.api(t, http.MethodGet, "/api/flows", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.api(t, http.MethodGet, "/api/flows", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFlowLifecycleOverAPI(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)

	rec := ts.api(t, http.MethodPost, "/api/flows", token, map[string]string{
		"name":          "Order intake",
		"endpoint_slug": "order-intake",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var flow models.Flow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flow))
	assert.Equal(t, models.FlowStatusDraft, flow.Status)

	rec = ts.api(t, http.MethodPost, "/api/flows/"+flow.ID+"/publish", token, conditionGraph())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.api(t, http.MethodGet, "/api/flows", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var flows []models.Flow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flows))
	require.Len(t, flows, 1)
	assert.Equal(t, models.FlowStatusPublished, flows[0].Status)

	rec = ts.api(t, http.MethodPut, "/api/flows/"+flow.ID, token, map[string]interface{}{
		"signature": map[string]interface{}{"provider": "github", "secret": "gh"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flow))
	assert.Equal(t, "github", flow.Signature.Provider)

	rec = ts.api(t, http.MethodDelete, "/api/flows/"+flow.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.api(t, http.MethodGet, "/api/flows/"+flow.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublishRejectsInvalidGraphOverAPI(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)

	rec := ts.api(t, http.MethodPost, "/api/flows", token, map[string]string{
		"name": "Loop", "endpoint_slug": "loop",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var flow models.Flow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flow))

	cyclic := models.FlowGraph{
		Nodes: []models.Node{{ID: "a"}, {ID: "b"}},
		Edges: []models.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}},
	}
	rec = ts.api(t, http.MethodPost, "/api/flows/"+flow.ID+"/publish", token, cyclic)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecretEndpoints(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)

	rec := ts.api(t, http.MethodPost, "/api/flows", token, map[string]string{
		"name": "Env", "endpoint_slug": "env",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var flow models.Flow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flow))

	base := fmt.Sprintf("/api/flows/%s/secrets", flow.ID)

	rec = ts.api(t, http.MethodPut, base+"/API_TOKEN", token, map[string]string{"value": "s3cr3t"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.api(t, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, []string{"API_TOKEN"}, listed["keys"])
	// Values never appear in the listing.
	assert.NotContains(t, rec.Body.String(), "s3cr3t")

	rec = ts.api(t, http.MethodDelete, base+"/API_TOKEN", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.api(t, http.MethodDelete, base+"/API_TOKEN", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecutionEndpoints(t *testing.T) {
	ts := newTestStack(t)
	token := ts.login(t)
	flow := ts.publish(t, "orders", conditionGraph())

	rec := ts.trigger(http.MethodPost, "/hooks/orders", []byte(`{"amount": 150}`), nil)
	executionID := rec.Header().Get("X-Execution-Id")
	require.NotEmpty(t, executionID)

	rec = ts.api(t, http.MethodGet, "/api/flows/"+flow.ID+"/executions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var executions []models.ExecutionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &executions))
	require.Len(t, executions, 1)

	rec = ts.api(t, http.MethodGet, "/api/executions/"+executionID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.api(t, http.MethodGet, "/api/executions/"+executionID+"/logs", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []models.ExecutionLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.NotEmpty(t, logs)
}
