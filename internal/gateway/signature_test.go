package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	secret := "whsec_test"

	assert.True(t, VerifyWebhookSignature(body, sign(body, secret), secret))
	assert.False(t, VerifyWebhookSignature(body, sign(body, "other"), secret))
	assert.False(t, VerifyWebhookSignature(body, "", secret))

	// The signature covers the exact byte sequence; any mutation breaks it.
	tampered := append([]byte{}, body...)
	tampered[0] = ' '
	assert.False(t, VerifyWebhookSignature(tampered, sign(body, secret), secret))
}
