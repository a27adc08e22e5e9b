package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectwave/portal/internal/pkg/constants"
)

func newWebhookTestApp() *fiber.App {
	app := fiber.New()
	app.Post(constants.PaystackWebhookRoute, HandlePaystackWebhook)
	return app
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHandlePaystackWebhookRejectsMissingSignature(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc123")
	app := newWebhookTestApp()

	req := httptest.NewRequest("POST", constants.PaystackWebhookRoute, bytes.NewReader([]byte(`{"event":"charge.success"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandlePaystackWebhookRejectsBadSignature(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc123")
	app := newWebhookTestApp()

	body := []byte(`{"event":"charge.success","data":{"reference":"REF-1"}}`)
	req := httptest.NewRequest("POST", constants.PaystackWebhookRoute, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Paystack-Signature", signBody(body, "sk_wrong_secret"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandlePaystackWebhookRejectsUnparseablePayload(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc123")
	app := newWebhookTestApp()

	body := []byte(`this is not json`)
	req := httptest.NewRequest("POST", constants.PaystackWebhookRoute, bytes.NewReader(body))
	req.Header.Set("X-Paystack-Signature", signBody(body, "sk_test_abc123"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandlePaystackWebhookIgnoresOtherEventTypes(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc123")
	app := newWebhookTestApp()

	body := []byte(`{"event":"transfer.success","data":{"reference":"TRF-1"}}`)
	req := httptest.NewRequest("POST", constants.PaystackWebhookRoute, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Paystack-Signature", signBody(body, "sk_test_abc123"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
