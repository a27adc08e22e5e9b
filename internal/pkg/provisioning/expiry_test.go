package provisioning

import (
	"testing"
	"time"
)

func TestComputeNewExpiry(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		current  time.Time
		planDays int
		want     time.Time
	}{
		{
			name:     "active account extends from current expiry",
			current:  now.AddDate(0, 0, 14),
			planDays: 30,
			want:     now.AddDate(0, 0, 44),
		},
		{
			name:     "lapsed account extends from the past due date",
			current:  now.AddDate(0, 0, -10),
			planDays: 30,
			want:     now.AddDate(0, 0, 20),
		},
		{
			name:     "unset expiry bases on now",
			current:  time.Time{},
			planDays: 30,
			want:     now.AddDate(0, 0, 30),
		},
		{
			name:     "expiry exactly now",
			current:  now,
			planDays: 7,
			want:     now.AddDate(0, 0, 7),
		},
	}

	for _, tt := range tests {
		if got := ComputeNewExpiry(tt.current, now, tt.planDays); !got.Equal(tt.want) {
			t.Fatalf("%s: ComputeNewExpiry = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestComputeNewExpiryPastAndFutureShareOnePath(t *testing.T) {
	// A customer 10 days lapsed and a customer 10 days ahead must come out
	// exactly 20 days apart after the same credit.
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	lapsed := ComputeNewExpiry(now.AddDate(0, 0, -10), now, 30)
	active := ComputeNewExpiry(now.AddDate(0, 0, 10), now, 30)

	if diff := active.Sub(lapsed); diff != 20*24*time.Hour {
		t.Fatalf("expected 20 day gap between lapsed and active result, got %v", diff)
	}
}

func TestTrafficBytes(t *testing.T) {
	tests := []struct {
		name            string
		limitComb       int
		trafficUnitComb int64
		want            int64
	}{
		{name: "unlimited plan credits zero bytes", limitComb: 0, trafficUnitComb: 50000, want: 0},
		{name: "limited plan converts units to bytes", limitComb: 1, trafficUnitComb: 10240, want: 10240 * 1048576},
		{name: "limited plan with zero units", limitComb: 1, trafficUnitComb: 0, want: 0},
	}

	for _, tt := range tests {
		if got := TrafficBytes(tt.limitComb, tt.trafficUnitComb); got != tt.want {
			t.Fatalf("%s: TrafficBytes(%d, %d) = %d, want %d", tt.name, tt.limitComb, tt.trafficUnitComb, got, tt.want)
		}
	}
}
