// Package webhooks verifies the authenticity of inbound trigger requests
// against provider-specific HMAC signature schemes.
package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

// Supported signature providers.
const (
	ProviderNone    = "none"
	ProviderGeneric = "generic"
	ProviderCustom  = "custom"
	ProviderGitHub  = "github"
	ProviderShopify = "shopify"
	ProviderWebflow = "webflow"
	ProviderStripe  = "stripe"
)

// DefaultTimestampTolerance bounds the replay window for timestamped schemes.
const DefaultTimestampTolerance = 300 * time.Second

// Default signature headers per provider, overridable via SignatureConfig.
var defaultHeaders = map[string]string{
	ProviderGeneric: "X-Webhook-Signature",
	ProviderCustom:  "X-Webhook-Signature",
	ProviderGitHub:  "X-Hub-Signature-256",
	ProviderShopify: "X-Shopify-Hmac-Sha256",
	ProviderWebflow: "X-Webflow-Signature",
	ProviderStripe:  "Stripe-Signature",
}

// WebflowTimestampHeader carries the request timestamp for webflow signatures.
const WebflowTimestampHeader = "X-Webflow-Timestamp"

// VerificationResult is the outcome of verifying one inbound request.
type VerificationResult struct {
	// Valid indicates the signature matched
	Valid bool `json:"valid"`

	// Skipped is true when no verification is configured
	Skipped bool `json:"skipped,omitempty"`

	// Error describes why verification failed
	Error string `json:"error,omitempty"`
}

// Verifier validates inbound webhook signatures. The clock is injectable so
// replay-window behavior is testable.
type Verifier struct {
	now func() time.Time
}

// NewVerifier creates a Verifier using the system clock.
func NewVerifier() *Verifier {
	return &Verifier{now: time.Now}
}

// NewVerifierWithClock creates a Verifier with a fixed clock function.
func NewVerifierWithClock(now func() time.Time) *Verifier {
	return &Verifier{now: now}
}

// VerifyProviderSignature checks rawBody and headers against the configured
// provider scheme. A missing signature header or missing secret is a hard
// verification failure, not a skip. The secret is never included in results.
func (v *Verifier) VerifyProviderSignature(provider string, rawBody []byte, headers http.Header, config models.SignatureConfig) VerificationResult {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || provider == ProviderNone {
		return VerificationResult{Valid: true, Skipped: true}
	}

	if config.Secret == "" {
		return VerificationResult{Error: "signature secret not configured"}
	}

	headerName := config.HeaderName
	if headerName == "" {
		headerName = defaultHeaders[provider]
	}
	if headerName == "" {
		return VerificationResult{Error: fmt.Sprintf("unsupported signature provider %q", provider)}
	}

	signature := headers.Get(headerName)
	if signature == "" {
		return VerificationResult{Error: fmt.Sprintf("missing signature header %s", headerName)}
	}

	switch provider {
	case ProviderGeneric, ProviderCustom:
		return v.verifyHexSignature(signature, rawBody, config.Secret, false)
	case ProviderGitHub:
		return v.verifyHexSignature(signature, rawBody, config.Secret, true)
	case ProviderShopify:
		return v.verifyShopify(signature, rawBody, config.Secret)
	case ProviderWebflow:
		return v.verifyWebflow(signature, headers.Get(WebflowTimestampHeader), rawBody, config)
	case ProviderStripe:
		return v.verifyStripe(signature, rawBody, config)
	default:
		return VerificationResult{Error: fmt.Sprintf("unsupported signature provider %q", provider)}
	}
}

// verifyHexSignature handles the generic and github HMAC-SHA256 hex schemes.
// GitHub mandates the sha256= prefix; the generic scheme accepts either form.
func (v *Verifier) verifyHexSignature(signature string, body []byte, secret string, requirePrefix bool) VerificationResult {
	if requirePrefix && !strings.HasPrefix(signature, "sha256=") {
		return VerificationResult{Error: "signature must use the sha256= prefix"}
	}
	signature = strings.TrimPrefix(signature, "sha256=")

	expected := hexHMAC(secret, body)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return VerificationResult{Error: "signature mismatch"}
	}
	return VerificationResult{Valid: true}
}

func (v *Verifier) verifyShopify(signature string, body []byte, secret string) VerificationResult {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return VerificationResult{Error: "signature mismatch"}
	}
	return VerificationResult{Valid: true}
}

// verifyWebflow signs timestamp:body when a timestamp header is present,
// otherwise the body alone. Timestamped requests outside the tolerance
// window are rejected to prevent replay.
func (v *Verifier) verifyWebflow(signature, timestamp string, body []byte, config models.SignatureConfig) VerificationResult {
	signedContent := body
	if timestamp != "" {
		ts, err := parseUnixTimestamp(timestamp)
		if err != nil {
			return VerificationResult{Error: "invalid signature timestamp"}
		}
		if outsideTolerance(v.now(), ts, tolerance(config)) {
			return VerificationResult{Error: "signature timestamp outside tolerance window"}
		}
		signedContent = []byte(timestamp + ":" + string(body))
	}

	expected := hexHMAC(config.Secret, signedContent)
	if !hmac.Equal([]byte(strings.TrimPrefix(signature, "sha256=")), []byte(expected)) {
		return VerificationResult{Error: "signature mismatch"}
	}
	return VerificationResult{Valid: true}
}

// verifyStripe parses the t=<timestamp>,v1=<signature> header format and
// verifies HMAC-SHA256 over "{timestamp}.{body}".
func (v *Verifier) verifyStripe(signature string, body []byte, config models.SignatureConfig) VerificationResult {
	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return VerificationResult{Error: "malformed stripe signature header"}
	}

	ts, err := parseUnixTimestamp(timestamp)
	if err != nil {
		return VerificationResult{Error: "invalid signature timestamp"}
	}
	if outsideTolerance(v.now(), ts, tolerance(config)) {
		return VerificationResult{Error: "signature timestamp outside tolerance window"}
	}

	expected := hexHMAC(config.Secret, []byte(timestamp+"."+string(body)))
	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return VerificationResult{Valid: true}
		}
	}
	return VerificationResult{Error: "signature mismatch"}
}

func hexHMAC(secret string, content []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(content)
	return hex.EncodeToString(mac.Sum(nil))
}

// parseUnixTimestamp accepts seconds or milliseconds since the epoch; webflow
// sends milliseconds, stripe sends seconds.
func parseUnixTimestamp(value string) (time.Time, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if len(value) >= 13 {
		return time.UnixMilli(n), nil
	}
	return time.Unix(n, 0), nil
}

func outsideTolerance(now, ts time.Time, window time.Duration) bool {
	delta := now.Sub(ts)
	if delta < 0 {
		delta = -delta
	}
	return delta > window
}

func tolerance(config models.SignatureConfig) time.Duration {
	if config.TimestampToleranceSeconds > 0 {
		return time.Duration(config.TimestampToleranceSeconds) * time.Second
	}
	return DefaultTimestampTolerance
}
