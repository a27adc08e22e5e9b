package provisioning

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeCommission(t *testing.T) {
	tests := []struct {
		amount string
		rate   string
		want   string
	}{
		{amount: "5000", rate: "10", want: "500"},
		{amount: "1999.99", rate: "10", want: "200"},
		{amount: "333.33", rate: "7.5", want: "25"},
		{amount: "100", rate: "12.5", want: "12.5"},
		{amount: "0.01", rate: "10", want: "0"},
		{amount: "5000", rate: "0", want: "0"},
	}

	for _, tt := range tests {
		amount := decimal.RequireFromString(tt.amount)
		rate := decimal.RequireFromString(tt.rate)
		want := decimal.RequireFromString(tt.want)
		if got := ComputeCommission(amount, rate); !got.Equal(want) {
			t.Fatalf("ComputeCommission(%s, %s) = %s, want %s", tt.amount, tt.rate, got, want)
		}
	}
}

func TestComputeCommissionRoundsHalfUp(t *testing.T) {
	// 123.45 * 10% = 12.345 -> 12.35 at two decimal places
	got := ComputeCommission(decimal.RequireFromString("123.45"), decimal.NewFromInt(10))
	if want := decimal.RequireFromString("12.35"); !got.Equal(want) {
		t.Fatalf("ComputeCommission rounding = %s, want %s", got, want)
	}
}
