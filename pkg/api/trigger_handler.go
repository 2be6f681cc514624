package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/registry"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/runtime"
)

const internalSignatureHeader = "X-Internal-Signature"

// handleTrigger is the flow entry point. It resolves the slug, verifies
// signatures and API keys, runs the graph and shapes the HTTP response.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	flow, err := s.deps.Flows.GetBySlug(slug)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "flow not found"})
		return
	}
	if flow.Status != models.FlowStatusPublished {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "flow is not published"})
		return
	}

	// The raw body is read once: signature verification and JSON parsing
	// both need it.
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	verification := s.deps.Verifier.VerifyProviderSignature(flow.Signature.Provider, rawBody, r.Header, flow.Signature)
	if !verification.Valid {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": fmt.Sprintf("signature verification failed: %s", verification.Error)})
		return
	}

	if sig := r.Header.Get(internalSignatureHeader); sig != "" && flow.InternalSecret != "" {
		if !verifyInternalSignature(sig, rawBody, flow.InternalSecret) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "internal signature mismatch"})
			return
		}
	}

	if !registry.CheckAPIKey(flow, r.Header.Get("X-API-Key")) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
		return
	}

	graph, err := s.deps.Flows.LatestGraph(flow.ID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "flow has no published graph"})
		return
	}

	env, err := s.deps.Vault.EnvironmentFor(flow)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	executionID := uuid.New().String()
	startTime := time.Now()

	ec := runtime.NewExecutionContext(flow.ID, executionID, buildRequestData(r, rawBody), env)
	ec.SetLogSink(s.hub.SinkFor(executionID))

	record := models.ExecutionRecord{
		ID:        executionID,
		FlowID:    flow.ID,
		Status:    models.ExecutionStatusRunning,
		StartTime: startTime,
	}
	if err := s.deps.Executions.SaveExecution(record); err != nil {
		log.Printf("failed to save execution record %s: %v", executionID, err)
	}

	ctx := r.Context()
	if s.config.Engine.RequestTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.config.Engine.RequestTimeoutSeconds)*time.Second)
		defer cancel()
	}

	result, execErr := s.deps.Engine.Execute(ctx, graph, ec)
	elapsed := time.Since(startTime)
	if execErr != nil {
		// Cancellation or deadline: outside the structured envelope.
		s.finishExecution(record, models.ExecutionStatusFailed, execErr.Error(), nil, ec)
		w.Header().Set("X-Execution-Id", executionID)
		w.Header().Set("X-Execution-Time", fmt.Sprintf("%dms", elapsed.Milliseconds()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": execErr.Error()})
		return
	}

	status := models.ExecutionStatusCompleted
	if !result.Success {
		status = models.ExecutionStatusFailed
	}
	record.PartialErrors = result.PartialErrors
	record.Response = result.Response
	s.finishExecution(record, status, result.Error, result.Response, ec)

	w.Header().Set("X-Execution-Id", executionID)
	w.Header().Set("X-Execution-Time", fmt.Sprintf("%dms", elapsed.Milliseconds()))

	statusCode, responseBytes := s.writeTriggerResponse(w, executionID, elapsed, result)

	s.saveAnalytics(models.AnalyticsRecord{
		ExecutionID:   executionID,
		FlowID:        flow.ID,
		Method:        r.Method,
		StatusCode:    statusCode,
		DurationMS:    elapsed.Milliseconds(),
		RequestBytes:  len(rawBody),
		ResponseBytes: responseBytes,
		RequestEcho:   maskedRequestEcho(r, rawBody),
		CreatedAt:     time.Now(),
	})
}

// writeTriggerResponse applies the response node verbatim when one ran,
// otherwise synthesizes the standard envelope. Returns the status code
// and body size for analytics.
func (s *Server) writeTriggerResponse(w http.ResponseWriter, executionID string, elapsed time.Duration, result *runtime.Result) (int, int) {
	if result.Response != nil {
		statusCode := 200
		if code, ok := result.Response["statusCode"].(float64); ok {
			statusCode = int(code)
		} else if code, ok := result.Response["statusCode"].(int); ok {
			statusCode = code
		}

		contentType, _ := result.Response["contentType"].(string)
		if contentType == "" {
			contentType = "application/json"
		}
		if headers, ok := result.Response["headers"].(map[string]interface{}); ok {
			for key, value := range headers {
				w.Header().Set(key, fmt.Sprintf("%v", value))
			}
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(statusCode)

		body := result.Response["body"]
		var payload []byte
		if text, ok := body.(string); ok && !strings.HasPrefix(contentType, "application/json") {
			payload = []byte(text)
		} else {
			payload, _ = json.Marshal(body)
		}
		w.Write(payload)
		return statusCode, len(payload)
	}

	statusCode := http.StatusOK
	message := "flow executed"
	if !result.Success {
		statusCode = http.StatusInternalServerError
		message = result.Error
	}
	envelope := map[string]interface{}{
		"success":       result.Success,
		"message":       message,
		"executionId":   executionID,
		"executionTime": elapsed.Milliseconds(),
	}
	if len(result.PartialErrors) > 0 {
		envelope["partialErrors"] = result.PartialErrors
	}

	payload, _ := json.Marshal(envelope)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(payload)
	return statusCode, len(payload)
}

// finishExecution persists the final record and logs. Failures here are
// best-effort: they are logged and never affect the HTTP response.
func (s *Server) finishExecution(record models.ExecutionRecord, status, errMessage string, response map[string]interface{}, ec *runtime.ExecutionContext) {
	record.Status = status
	record.Error = errMessage
	record.EndTime = time.Now()
	record.Response = response

	if err := s.deps.Executions.UpdateExecution(record); err != nil {
		log.Printf("failed to update execution record %s: %v", record.ID, err)
	}
	if err := s.deps.Executions.SaveExecutionLogs(record.ID, ec.Logs()); err != nil {
		log.Printf("failed to save execution logs %s: %v", record.ID, err)
	}
	s.hub.Close(record.ID)
}

func (s *Server) saveAnalytics(record models.AnalyticsRecord) {
	if err := s.deps.Executions.SaveAnalytics(record); err != nil {
		log.Printf("failed to save analytics for execution %s: %v", record.ExecutionID, err)
	}
}

// buildRequestData assembles the reserved "request" context entry.
// Bodies that fail to parse as JSON are wrapped as {raw: text}.
func buildRequestData(r *http.Request, rawBody []byte) map[string]interface{} {
	var body interface{}
	if len(rawBody) == 0 {
		body = map[string]interface{}{}
	} else if err := json.Unmarshal(rawBody, &body); err != nil {
		body = map[string]interface{}{"raw": string(rawBody)}
	}

	headers := make(map[string]interface{}, len(r.Header))
	for key := range r.Header {
		headers[key] = r.Header.Get(key)
	}
	query := make(map[string]interface{})
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}

	return map[string]interface{}{
		"body":    body,
		"headers": headers,
		"query":   query,
		"method":  r.Method,
	}
}

// verifyInternalSignature checks the HMAC-SHA256 hex signature applied
// to internally generated trigger calls.
func verifyInternalSignature(signature string, rawBody []byte, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(strings.TrimPrefix(signature, "sha256=")), []byte(expected))
}

// maskedRequestEcho captures the request line and headers for analytics
// with credentials blanked out.
func maskedRequestEcho(r *http.Request, rawBody []byte) string {
	masked := []string{"x-api-key", "authorization", "x-webhook-signature", "x-hub-signature-256", "x-shopify-hmac-sha256", "x-webflow-signature", "stripe-signature", "x-internal-signature"}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", r.Method, r.URL.Path)
	for key := range r.Header {
		value := r.Header.Get(key)
		for _, m := range masked {
			if strings.EqualFold(key, m) {
				value = "***"
				break
			}
		}
		fmt.Fprintf(&b, "\n%s: %s", key, value)
	}
	if len(rawBody) > 0 {
		body := string(rawBody)
		if len(body) > 1024 {
			body = body[:1024] + "..."
		}
		fmt.Fprintf(&b, "\n\n%s", body)
	}
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
