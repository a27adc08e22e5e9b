package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := &Client{
		SecretKey:  "sk_test_abc123",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}
	return c, srv
}

func TestParseWebhookEvent(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"REF-1","amount":500000,"status":"success","metadata":{"username":"jdoe"}}}`)
	ev, err := ParseWebhookEvent(body)
	if err != nil {
		t.Fatalf("ParseWebhookEvent returned error: %v", err)
	}
	if ev.Event != EventTypeChargeSuccess {
		t.Fatalf("event = %q", ev.Event)
	}
	if ev.Data.Reference != "REF-1" || ev.Data.Amount != 500000 {
		t.Fatalf("unexpected data: %+v", ev.Data)
	}

	if _, err := ParseWebhookEvent([]byte(`{}`)); err == nil {
		t.Fatalf("payload without event type must be rejected")
	}
	if _, err := ParseWebhookEvent([]byte(`not json`)); err == nil {
		t.Fatalf("invalid JSON must be rejected")
	}
}

func TestDecodeMetadata(t *testing.T) {
	md := DecodeMetadata(json.RawMessage(`{"username":"jdoe","srvid":"4"}`))
	if md["username"] != "jdoe" {
		t.Fatalf("object metadata: %v", md)
	}

	// Paystack sometimes delivers metadata as a JSON-encoded string.
	md = DecodeMetadata(json.RawMessage(`"{\"username\":\"jdoe\"}"`))
	if md["username"] != "jdoe" {
		t.Fatalf("string-encoded metadata: %v", md)
	}

	if md = DecodeMetadata(nil); len(md) != 0 {
		t.Fatalf("nil metadata should decode to empty map")
	}
	if md = DecodeMetadata(json.RawMessage(`"not an object"`)); len(md) != 0 {
		t.Fatalf("undecodable metadata should degrade to empty map")
	}
	if md = DecodeMetadata(json.RawMessage(`42`)); len(md) != 0 {
		t.Fatalf("numeric metadata should degrade to empty map")
	}
}

func TestVerifyTransaction(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/REF-1" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_abc123" {
			t.Fatalf("authorization header = %q", got)
		}
		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"amount":500000,"status":"success","metadata":{"username":"jdoe"}}}`))
	})
	defer srv.Close()

	result, err := c.VerifyTransaction(context.Background(), "REF-1")
	if err != nil {
		t.Fatalf("VerifyTransaction returned error: %v", err)
	}
	if !result.Verified || result.Status != "success" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.AmountKobo != 500000 {
		t.Fatalf("amount = %d", result.AmountKobo)
	}
	if result.Metadata["username"] != "jdoe" {
		t.Fatalf("metadata: %v", result.Metadata)
	}
}

func TestVerifyTransactionFailedStatus(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"message":"ok","data":{"amount":500000,"status":"failed"}}`))
	})
	defer srv.Close()

	result, err := c.VerifyTransaction(context.Background(), "REF-2")
	if err != nil {
		t.Fatalf("VerifyTransaction returned error: %v", err)
	}
	if result.Verified {
		t.Fatalf("failed transaction must not verify")
	}
	if result.Status != "failed" {
		t.Fatalf("status = %q", result.Status)
	}
}

func TestVerifyTransactionAPIError(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	})
	defer srv.Close()

	if _, err := c.VerifyTransaction(context.Background(), "REF-GHOST"); err == nil {
		t.Fatalf("expected error on HTTP 404")
	}
}

func TestInitializeTransaction(t *testing.T) {
	c, srv := testClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Fatalf("%s %s", r.Method, r.URL.Path)
		}
		var req InitializeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.AmountKobo != 550000 || req.Email != "new@example.com" {
			t.Fatalf("unexpected request: %+v", req)
		}
		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"CWP-1"}}`))
	})
	defer srv.Close()

	result, err := c.InitializeTransaction(context.Background(), InitializeRequest{
		Email:      "new@example.com",
		AmountKobo: 550000,
		Reference:  "CWP-1",
	})
	if err != nil {
		t.Fatalf("InitializeTransaction returned error: %v", err)
	}
	if result.AuthorizationURL != "https://checkout.paystack.com/abc" {
		t.Fatalf("authorization url = %q", result.AuthorizationURL)
	}
	if result.Reference != "CWP-1" {
		t.Fatalf("reference = %q", result.Reference)
	}
}

func TestInitializeTransactionValidation(t *testing.T) {
	c := &Client{SecretKey: "sk", APIBaseURL: "http://unused", HTTPClient: http.DefaultClient}

	if _, err := c.InitializeTransaction(context.Background(), InitializeRequest{AmountKobo: 100}); err == nil {
		t.Fatalf("missing email must be rejected")
	}
	if _, err := c.InitializeTransaction(context.Background(), InitializeRequest{Email: "a@b.c"}); err == nil {
		t.Fatalf("non-positive amount must be rejected")
	}
}
