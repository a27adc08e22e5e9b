package radius

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// The backend does not answer with one uniform shape. Most operations return
// a positional two-element array [resultCode, payload]; some return an object
// keyed by stringified indices ({"0": resultCode, "1": payload}). A zero
// result code means success. decodeEnvelope normalizes both shapes and fails
// loudly on anything else instead of guessing.
func decodeEnvelope(body []byte) (int, json.RawMessage, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(body, &arr); err == nil {
		if len(arr) == 0 {
			return 0, nil, errors.New("empty response envelope")
		}
		code, err := decodeResultCode(arr[0])
		if err != nil {
			return 0, nil, err
		}
		var payload json.RawMessage
		if len(arr) > 1 {
			payload = arr[1]
		}
		return code, payload, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return 0, nil, fmt.Errorf("unrecognized response envelope: %s", truncateBody(body))
	}
	raw, ok := obj["0"]
	if !ok {
		return 0, nil, errors.New("response envelope missing result code")
	}
	code, err := decodeResultCode(raw)
	if err != nil {
		return 0, nil, err
	}
	return code, obj["1"], nil
}

// decodeResultCode accepts the code as a JSON number or a numeric string.
// An absent or non-numeric code is treated as failure by the caller.
func decodeResultCode(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, convErr := strconv.Atoi(strings.TrimSpace(s))
		if convErr != nil {
			return 0, fmt.Errorf("non-numeric result code %q", s)
		}
		return n, nil
	}
	return 0, fmt.Errorf("unparseable result code: %s", string(raw))
}

// unwrapRecord extracts the single record from a success payload. The record
// arrives either directly as an object or wrapped in a one-element array.
func unwrapRecord(payload json.RawMessage) (map[string]any, error) {
	if len(payload) == 0 {
		return map[string]any{}, nil
	}

	var rec map[string]any
	if err := json.Unmarshal(payload, &rec); err == nil {
		return rec, nil
	}

	var list []map[string]any
	if err := json.Unmarshal(payload, &list); err == nil {
		if len(list) == 0 {
			return map[string]any{}, nil
		}
		return list[0], nil
	}

	// Some error payloads are plain strings; surface them unchanged.
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return nil, fmt.Errorf("unexpected string payload: %s", s)
	}
	return nil, fmt.Errorf("unrecognized payload shape: %s", truncateBody(payload))
}

// payloadMessage renders a failure payload as an error message.
func payloadMessage(payload json.RawMessage) string {
	if len(payload) == 0 {
		return "no error detail"
	}
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	return truncateBody(payload)
}
