package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

// HTTPRequestHandler performs an outbound HTTP call. Success means a
// status in [200,300); anything else fails the node with the status and
// body in the error message.
type HTTPRequestHandler struct {
	client *http.Client
}

// NewHTTPRequestHandler creates an HTTP request handler.
func NewHTTPRequestHandler(client *http.Client) *HTTPRequestHandler {
	return &HTTPRequestHandler{client: client}
}

// Execute implements NodeHandler.
func (h *HTTPRequestHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	rawURL, _ := inputs["url"].(string)
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	method, _ := inputs["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if params, ok := inputs["queryParams"].(map[string]interface{}); ok {
		query := parsedURL.Query()
		for key, value := range params {
			query.Set(key, fmt.Sprintf("%v", value))
		}
		parsedURL.RawQuery = query.Encode()
	}

	var bodyReader io.Reader
	if body, ok := inputs["body"]; ok && body != nil {
		switch b := body.(type) {
		case string:
			bodyReader = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
			bodyReader = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, parsedURL.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if headers, ok := inputs["headers"].(map[string]interface{}); ok {
		for key, value := range headers {
			req.Header.Set(key, fmt.Sprintf("%v", value))
		}
	}
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsedBody interface{}
	if err := json.Unmarshal(rawBody, &parsedBody); err != nil {
		parsedBody = string(rawBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request to %s returned status %d: %s", rawURL, resp.StatusCode, truncate(string(rawBody), 256))
	}

	responseHeaders := make(map[string]interface{}, len(resp.Header))
	for key := range resp.Header {
		responseHeaders[key] = resp.Header.Get(key)
	}

	return map[string]interface{}{
		"status":  resp.StatusCode,
		"body":    parsedBody,
		"headers": responseHeaders,
	}, nil
}

// validateURL fails fast on syntactically broken URLs so the node error
// names the misconfiguration instead of a transport failure.
func validateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("url is required")
	}
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", rawURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
