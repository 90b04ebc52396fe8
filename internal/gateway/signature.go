package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyWebhookSignature checks the hex-encoded HMAC-SHA256 signature the
// gateway sends for a webhook delivery. It must be run over the exact raw
// request body, before any JSON parsing, and compares in constant time.
func VerifyWebhookSignature(rawBody []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
