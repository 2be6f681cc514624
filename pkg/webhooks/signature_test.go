package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

func hexSign(secret string, content []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(content)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyNoneProviderIsSkipped(t *testing.T) {
	v := NewVerifier()

	result := v.VerifyProviderSignature("none", []byte("{}"), http.Header{}, models.SignatureConfig{})

	assert.True(t, result.Valid)
	assert.True(t, result.Skipped)
}

func TestVerifyGenericRoundTrip(t *testing.T) {
	v := NewVerifier()
	body := []byte(`{"amount":150}`)
	secret := "shh"

	headers := http.Header{}
	headers.Set("X-Webhook-Signature", "sha256="+hexSign(secret, body))

	result := v.VerifyProviderSignature("generic", body, headers, models.SignatureConfig{Secret: secret})
	assert.True(t, result.Valid)

	// Flipping a body byte must invalidate the signature
	tampered := append([]byte(nil), body...)
	tampered[0] ^= 0x01
	result = v.VerifyProviderSignature("generic", tampered, headers, models.SignatureConfig{Secret: secret})
	assert.False(t, result.Valid)
	assert.Equal(t, "signature mismatch", result.Error)
}

func TestVerifyGenericAcceptsUnprefixedSignature(t *testing.T) {
	v := NewVerifier()
	body := []byte("payload")

	headers := http.Header{}
	headers.Set("X-Webhook-Signature", hexSign("secret", body))

	result := v.VerifyProviderSignature("generic", body, headers, models.SignatureConfig{Secret: "secret"})

	assert.True(t, result.Valid)
}

func TestVerifyGitHubRequiresPrefix(t *testing.T) {
	v := NewVerifier()
	body := []byte("payload")

	headers := http.Header{}
	headers.Set("X-Hub-Signature-256", hexSign("secret", body))

	result := v.VerifyProviderSignature("github", body, headers, models.SignatureConfig{Secret: "secret"})
	assert.False(t, result.Valid)

	headers.Set("X-Hub-Signature-256", "sha256="+hexSign("secret", body))
	result = v.VerifyProviderSignature("github", body, headers, models.SignatureConfig{Secret: "secret"})
	assert.True(t, result.Valid)
}

func TestVerifyShopifyUsesBase64(t *testing.T) {
	v := NewVerifier()
	body := []byte(`{"order":1}`)

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(body)
	headers := http.Header{}
	headers.Set("X-Shopify-Hmac-Sha256", base64.StdEncoding.EncodeToString(mac.Sum(nil)))

	result := v.VerifyProviderSignature("shopify", body, headers, models.SignatureConfig{Secret: "secret"})

	assert.True(t, result.Valid)
}

func TestVerifyMissingHeaderIsHardFailure(t *testing.T) {
	v := NewVerifier()

	result := v.VerifyProviderSignature("generic", []byte("x"), http.Header{}, models.SignatureConfig{Secret: "secret"})

	assert.False(t, result.Valid)
	assert.False(t, result.Skipped)
	assert.Contains(t, result.Error, "missing signature header")
}

func TestVerifyMissingSecretIsHardFailure(t *testing.T) {
	v := NewVerifier()
	headers := http.Header{}
	headers.Set("X-Webhook-Signature", "sha256=deadbeef")

	result := v.VerifyProviderSignature("generic", []byte("x"), headers, models.SignatureConfig{})

	assert.False(t, result.Valid)
	assert.False(t, result.Skipped)
}

func TestVerifyStripeToleranceBoundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewVerifierWithClock(func() time.Time { return now })
	body := []byte(`{"id":"evt_1"}`)
	secret := "whsec"
	config := models.SignatureConfig{Secret: secret}

	sign := func(ts int64) http.Header {
		signed := fmt.Sprintf("%d.%s", ts, body)
		headers := http.Header{}
		headers.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts, hexSign(secret, []byte(signed))))
		return headers
	}

	// One second inside the window: accepted
	inside := now.Unix() - 300 + 1
	result := v.VerifyProviderSignature("stripe", body, sign(inside), config)
	assert.True(t, result.Valid)

	// One second outside the window: rejected
	outside := now.Unix() - 300 - 1
	result = v.VerifyProviderSignature("stripe", body, sign(outside), config)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "tolerance")
}

func TestVerifyWebflowWithTimestamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewVerifierWithClock(func() time.Time { return now })
	body := []byte(`{"site":"abc"}`)
	secret := "wf"

	sign := func(ts int64) http.Header {
		timestamp := fmt.Sprintf("%d", ts)
		headers := http.Header{}
		headers.Set("X-Webflow-Timestamp", timestamp)
		headers.Set("X-Webflow-Signature", hexSign(secret, []byte(timestamp+":"+string(body))))
		return headers
	}

	result := v.VerifyProviderSignature("webflow", body, sign(now.UnixMilli()), models.SignatureConfig{Secret: secret})
	assert.True(t, result.Valid)

	stale := now.Add(-301 * time.Second).UnixMilli()
	result = v.VerifyProviderSignature("webflow", body, sign(stale), models.SignatureConfig{Secret: secret})
	assert.False(t, result.Valid)
}

func TestVerifyWebflowWithoutTimestampSignsBodyAlone(t *testing.T) {
	v := NewVerifier()
	body := []byte(`{"site":"abc"}`)

	headers := http.Header{}
	headers.Set("X-Webflow-Signature", hexSign("wf", body))

	result := v.VerifyProviderSignature("webflow", body, headers, models.SignatureConfig{Secret: "wf"})

	assert.True(t, result.Valid)
}

func TestVerifyCustomHeaderOverride(t *testing.T) {
	v := NewVerifier()
	body := []byte("data")

	headers := http.Header{}
	headers.Set("X-My-Signature", hexSign("secret", body))

	config := models.SignatureConfig{Secret: "secret", HeaderName: "X-My-Signature"}
	result := v.VerifyProviderSignature("custom", body, headers, config)

	assert.True(t, result.Valid)
}
