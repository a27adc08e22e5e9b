package radius

import (
	"encoding/json"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  bool
	}{
		{name: "array envelope", body: `[0, {"username": "jdoe"}]`, wantCode: 0},
		{name: "array envelope with error code", body: `[3, "invalid login"]`, wantCode: 3},
		{name: "keyed object envelope", body: `{"0": 0, "1": {"username": "jdoe"}}`, wantCode: 0},
		{name: "keyed object with string code", body: `{"0": "0", "1": []}`, wantCode: 0},
		{name: "string result code in array", body: `["2", "error"]`, wantCode: 2},
		{name: "code only", body: `[0]`, wantCode: 0},
		{name: "empty array", body: `[]`, wantErr: true},
		{name: "missing result code key", body: `{"1": {}}`, wantErr: true},
		{name: "non-numeric code", body: `["ok", {}]`, wantErr: true},
		{name: "garbage", body: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		code, _, err := decodeEnvelope([]byte(tt.body))
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: decodeEnvelope error: %v", tt.name, err)
		}
		if code != tt.wantCode {
			t.Fatalf("%s: code = %d, want %d", tt.name, code, tt.wantCode)
		}
	}
}

func TestUnwrapRecord(t *testing.T) {
	rec, err := unwrapRecord(json.RawMessage(`{"username": "jdoe"}`))
	if err != nil {
		t.Fatalf("direct object: %v", err)
	}
	if rec["username"] != "jdoe" {
		t.Fatalf("direct object: username = %v", rec["username"])
	}

	rec, err = unwrapRecord(json.RawMessage(`[{"username": "jdoe"}]`))
	if err != nil {
		t.Fatalf("wrapped array: %v", err)
	}
	if rec["username"] != "jdoe" {
		t.Fatalf("wrapped array: username = %v", rec["username"])
	}

	rec, err = unwrapRecord(json.RawMessage(`[]`))
	if err != nil {
		t.Fatalf("empty array: %v", err)
	}
	if len(rec) != 0 {
		t.Fatalf("empty array should yield empty record")
	}

	rec, err = unwrapRecord(nil)
	if err != nil {
		t.Fatalf("nil payload: %v", err)
	}
	if len(rec) != 0 {
		t.Fatalf("nil payload should yield empty record")
	}

	if _, err = unwrapRecord(json.RawMessage(`"user not found"`)); err == nil {
		t.Fatalf("string payload must be surfaced as an error")
	}
}
