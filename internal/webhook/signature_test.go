package webhook

import "testing"

func TestVerifySignature_RoundTrip(t *testing.T) {
	body := []byte(`{"payment":{"reference":"pay-1","status":"completed"}}`)
	secret := "whsec-test"

	sig := Sign(body, secret)
	if err := VerifySignature(body, secret, sig); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
}

func TestVerifySignature_Rejects(t *testing.T) {
	body := []byte(`{"payment":{"reference":"pay-1","status":"completed"}}`)
	secret := "whsec-test"
	sig := Sign(body, secret)

	tests := []struct {
		name      string
		body      []byte
		secret    string
		signature string
	}{
		{"wrong secret", body, "whsec-other", sig},
		{"tampered body", []byte(`{"payment":{"reference":"pay-1","status":"failed"}}`), secret, sig},
		{"truncated signature", body, secret, sig[:len(sig)-2]},
		{"non-hex signature", body, secret, "not-hex-at-all"},
		{"empty signature", body, secret, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := VerifySignature(tt.body, tt.secret, tt.signature); err == nil {
				t.Error("expected verification to fail")
			}
		})
	}
}

// Verification must operate on the bytes as received: two JSON-equal bodies
// with different whitespace do not share a signature.
func TestVerifySignature_ExactBytes(t *testing.T) {
	secret := "whsec-test"
	compact := []byte(`{"payment":{"reference":"pay-1","status":"completed"}}`)
	spaced := []byte(`{"payment": {"reference": "pay-1", "status": "completed"}}`)

	sig := Sign(compact, secret)
	if err := VerifySignature(spaced, secret, sig); err == nil {
		t.Error("signature over different byte sequence should not verify")
	}
}
