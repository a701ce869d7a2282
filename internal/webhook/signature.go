package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SignatureHeader is the request header carrying the gateway's HMAC signature.
const SignatureHeader = "x-konnect-signature"

// Sign computes the hex-encoded HMAC-SHA256 of body under secret. Used by
// tests and by tooling that replays webhooks.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks that signature is a valid hex HMAC-SHA256 of the
// exact body bytes as received. The body must never be re-serialized before
// verification: re-encoding would change the byte sequence and break the MAC.
// Comparison is constant-time via hmac.Equal.
func VerifySignature(body []byte, secret, signature string) error {
	presented, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(expected, presented) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
