package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"
)

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{"reference":"REF-1"}}`)
	secret := "sk_test_abc123"
	valid := signPayload(payload, secret)

	if !VerifyWebhookSignature(payload, valid, secret) {
		t.Fatalf("expected valid signature to verify")
	}
	if !VerifyWebhookSignature(payload, strings.ToUpper(valid), secret) {
		t.Fatalf("expected uppercase hex signature to verify")
	}
	if VerifyWebhookSignature(payload, valid, "sk_test_other") {
		t.Fatalf("signature must not verify with a different secret")
	}
	if VerifyWebhookSignature([]byte(`{"tampered":true}`), valid, secret) {
		t.Fatalf("signature must not verify for a modified body")
	}
	if VerifyWebhookSignature(payload, "", secret) {
		t.Fatalf("empty signature must not verify")
	}
	if VerifyWebhookSignature(payload, valid, "") {
		t.Fatalf("empty secret must not verify")
	}
	if VerifyWebhookSignature(payload, "zzzz-not-hex", secret) {
		t.Fatalf("non-hex signature must not verify")
	}
}
