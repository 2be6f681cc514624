package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Sign computes the signature header a provider would attach to body, so a
// flow can be exercised with curl before real webhooks point at it. It
// returns the header name and value. Webflow is signed in body-only mode;
// stripe signatures embed the supplied timestamp.
func Sign(provider, secret string, body []byte, timestamp time.Time) (string, string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if secret == "" {
		return "", "", fmt.Errorf("signing secret is required")
	}

	header := defaultHeaders[provider]
	switch provider {
	case ProviderGeneric, ProviderCustom, ProviderGitHub:
		return header, "sha256=" + hexHMAC(secret, body), nil
	case ProviderShopify:
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		return header, base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
	case ProviderWebflow:
		return header, hexHMAC(secret, body), nil
	case ProviderStripe:
		ts := fmt.Sprintf("%d", timestamp.Unix())
		value := hexHMAC(secret, []byte(ts+"."+string(body)))
		return header, fmt.Sprintf("t=%s,v1=%s", ts, value), nil
	default:
		return "", "", fmt.Errorf("unsupported signature provider %q", provider)
	}
}
