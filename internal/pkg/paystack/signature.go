package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature checks the X-Paystack-Signature header against the
// raw, unparsed request body. Paystack signs with HMAC-SHA512 keyed by the
// account's secret key. A mismatch means the event must be discarded without
// processing and without retry.
func VerifyWebhookSignature(payload []byte, signatureHeader, secretKey string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(secretKey)
	if sig == "" || secret == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}
