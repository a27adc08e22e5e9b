package provisioning

import (
	"errors"
	"testing"
)

func TestExtractPaymentDetailsTopLevelKeys(t *testing.T) {
	metadata := map[string]any{
		"username":        "jdoe",
		"srvid":           float64(4),
		"timeunitexp":     "30",
		"trafficunitcomb": float64(10240),
		"limitcomb":       "1",
		"purpose":         "renewal",
		"customerEmail":   "jdoe@example.com",
	}

	d, err := ExtractPaymentDetails(metadata)
	if err != nil {
		t.Fatalf("ExtractPaymentDetails returned error: %v", err)
	}
	if d.Username != "jdoe" {
		t.Fatalf("username = %q, want jdoe", d.Username)
	}
	if d.SrvID != 4 {
		t.Fatalf("srvid = %d, want 4", d.SrvID)
	}
	if d.PlanDays != 30 {
		t.Fatalf("plan days = %d, want 30", d.PlanDays)
	}
	if d.TrafficUnitComb != 10240 {
		t.Fatalf("trafficunitcomb = %d, want 10240", d.TrafficUnitComb)
	}
	if d.LimitComb != 1 {
		t.Fatalf("limitcomb = %d, want 1", d.LimitComb)
	}
	if d.CustomerEmail != "jdoe@example.com" {
		t.Fatalf("email = %q", d.CustomerEmail)
	}
}

func TestExtractPaymentDetailsCustomFields(t *testing.T) {
	metadata := map[string]any{
		"custom_fields": []any{
			map[string]any{"display_name": "Username", "variable_name": "username", "value": "jdoe"},
			map[string]any{"display_name": "Plan", "variable_name": "srvid", "value": "7"},
			map[string]any{"variable_name": "timeunitexp", "value": float64(90)},
		},
	}

	d, err := ExtractPaymentDetails(metadata)
	if err != nil {
		t.Fatalf("ExtractPaymentDetails returned error: %v", err)
	}
	if d.Username != "jdoe" || d.SrvID != 7 || d.PlanDays != 90 {
		t.Fatalf("unexpected details: %+v", d)
	}
}

func TestExtractPaymentDetailsScalarWinsOverCustomField(t *testing.T) {
	metadata := map[string]any{
		"username": "scalar-user",
		"custom_fields": []any{
			map[string]any{"variable_name": "username", "value": "field-user"},
		},
	}

	d, err := ExtractPaymentDetails(metadata)
	if err != nil {
		t.Fatalf("ExtractPaymentDetails returned error: %v", err)
	}
	if d.Username != "scalar-user" {
		t.Fatalf("username = %q, want scalar-user", d.Username)
	}
}

func TestExtractPaymentDetailsMissingUsername(t *testing.T) {
	_, err := ExtractPaymentDetails(map[string]any{"srvid": "4"})
	if !errors.Is(err, ErrMalformedMetadata) {
		t.Fatalf("expected ErrMalformedMetadata, got %v", err)
	}
}

func TestExtractPaymentDetailsDefaultsPlanDays(t *testing.T) {
	d, err := ExtractPaymentDetails(map[string]any{"username": "jdoe", "timeunitexp": "garbage"})
	if err != nil {
		t.Fatalf("ExtractPaymentDetails returned error: %v", err)
	}
	if d.PlanDays != 30 {
		t.Fatalf("plan days = %d, want default 30", d.PlanDays)
	}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name string
		d    PaymentDetails
		want Intent
	}{
		{
			name: "plain renewal",
			d:    PaymentDetails{Username: "jdoe", Purpose: PurposeRenewal},
			want: IntentRenewalOnly,
		},
		{
			name: "no purpose falls back to renewal",
			d:    PaymentDetails{Username: "jdoe"},
			want: IntentRenewalOnly,
		},
		{
			name: "unknown purpose falls back to renewal",
			d:    PaymentDetails{Username: "jdoe", Purpose: "something_else"},
			want: IntentRenewalOnly,
		},
		{
			name: "account creation only",
			d:    PaymentDetails{Username: "jdoe", Purpose: PurposeAccountCreation},
			want: IntentAccountCreationOnly,
		},
		{
			name: "combined with all markers",
			d: PaymentDetails{
				Username:           "jdoe",
				Purpose:            PurposeAccountCreationWithPlan,
				AccountCreationFee: mustDecimal(t, "500"),
				ServicePlanPrice:   mustDecimal(t, "4500"),
				SrvID:              4,
				ServicePlanName:    "Home 10Mbps",
			},
			want: IntentCombinedCreationAndPlan,
		},
		{
			name: "combined marker without plan identity degrades to creation only",
			d: PaymentDetails{
				Username:           "jdoe",
				Purpose:            PurposeAccountCreationWithPlan,
				AccountCreationFee: mustDecimal(t, "500"),
				ServicePlanPrice:   mustDecimal(t, "4500"),
			},
			want: IntentAccountCreationOnly,
		},
		{
			name: "combined marker with zero plan price degrades to creation only",
			d: PaymentDetails{
				Username:           "jdoe",
				Purpose:            PurposeAccountCreationWithPlan,
				AccountCreationFee: mustDecimal(t, "500"),
				SrvID:              4,
				ServicePlanName:    "Home 10Mbps",
			},
			want: IntentAccountCreationOnly,
		},
	}

	for _, tt := range tests {
		if got := ClassifyIntent(&tt.d); got != tt.want {
			t.Fatalf("%s: ClassifyIntent = %v, want %v", tt.name, got, tt.want)
		}
	}
}
