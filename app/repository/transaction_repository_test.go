package repository

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmountTotal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "empty result set", raw: "", want: "0"},
		{name: "integer zero", raw: "0", want: "0"},
		{name: "exact decimal total", raw: "12345.67", want: "12345.67"},
		{name: "total with trailing fraction", raw: "99999999.99", want: "99999999.99"},
		{name: "garbage", raw: "not-a-number", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseAmountTotal(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: parseAmountTotal(%q) error: %v", tt.name, tt.raw, err)
		}
		if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
			t.Fatalf("%s: parseAmountTotal(%q) = %s, want %s", tt.name, tt.raw, got, want)
		}
	}
}
