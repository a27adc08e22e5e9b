package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/connectwave/portal/app/models"
	"github.com/connectwave/portal/internal/pkg/radius"
)

func paidPlan() *radius.Plan {
	return &radius.Plan{
		SrvID:           4,
		SrvName:         "Home 10Mbps",
		UnitPrice:       decimal.NewFromInt(5000),
		TimeUnitExp:     30,
		TrafficUnitComb: 10240,
		LimitComb:       1,
		Enabled:         true,
	}
}

func freePlan() *radius.Plan {
	return &radius.Plan{
		SrvID:       9,
		SrvName:     "Trial",
		TimeUnitExp: 7,
		Enabled:     true,
	}
}

func TestCompleteRegistration(t *testing.T) {
	f := newFixture(t)
	f.backend.plans[4] = paidPlan()

	in := RegistrationInput{
		Reference: "REG-1",
		Username:  "newuser",
		Password:  "chosen-secret",
		SrvID:     4,
		Email:     "new@example.com",
	}

	out, err := f.orch.CompleteRegistration(context.Background(), in)
	if err != nil {
		t.Fatalf("CompleteRegistration returned error: %v", err)
	}
	if out.Code != OutcomeApplied {
		t.Fatalf("outcome = %s, want applied", out.Code)
	}

	if len(f.backend.createCalls) != 1 {
		t.Fatalf("expected one account creation, got %d", len(f.backend.createCalls))
	}
	if got := f.backend.createCalls[0].Password; got != "chosen-secret" {
		t.Fatalf("created with password %q, want the subscriber's own", got)
	}
	if len(f.backend.creditCalls) != 1 {
		t.Fatalf("expected one credit call, got %d", len(f.backend.creditCalls))
	}

	// Minimal window carries the account through creation; the plan length is
	// granted once by the credit call.
	if want := f.now.Add(MinimalAccessWindow).AddDate(0, 0, 30); !out.NewExpiry.Equal(want) {
		t.Fatalf("expiry = %v, want %v", out.NewExpiry, want)
	}

	row, _ := f.ledger.GetByReference("REG-1")
	if row == nil || row.PaymentStatus != models.PaymentStatusSuccess {
		t.Fatalf("ledger row not finalized as success: %+v", row)
	}
}

func TestCompleteRegistrationDuplicateReference(t *testing.T) {
	f := newFixture(t)
	f.backend.plans[4] = paidPlan()

	in := RegistrationInput{Reference: "REG-2", Username: "newuser", Password: "pw", SrvID: 4}
	if _, err := f.orch.CompleteRegistration(context.Background(), in); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	out, err := f.orch.CompleteRegistration(context.Background(), in)
	if err != nil {
		t.Fatalf("second registration returned error: %v", err)
	}
	if out.Code != OutcomeAlreadyProcessed {
		t.Fatalf("outcome = %s, want already_processed", out.Code)
	}
	if len(f.backend.creditCalls) != 1 {
		t.Fatalf("duplicate reference credited again: %d calls", len(f.backend.creditCalls))
	}
}

func TestCompleteRegistrationUnknownPlan(t *testing.T) {
	f := newFixture(t)

	in := RegistrationInput{Reference: "REG-3", Username: "newuser", Password: "pw", SrvID: 99}
	out, err := f.orch.CompleteRegistration(context.Background(), in)
	if !errors.Is(err, radius.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
	if out.Code != OutcomeValidationFailed {
		t.Fatalf("outcome = %s, want validation_failed", out.Code)
	}
}

func TestRegisterFree(t *testing.T) {
	f := newFixture(t)
	f.backend.plans[9] = freePlan()

	in := RegistrationInput{Username: "trialuser", Password: "pw", SrvID: 9}
	expiry, err := f.orch.RegisterFree(context.Background(), in)
	if err != nil {
		t.Fatalf("RegisterFree returned error: %v", err)
	}
	if want := f.now.AddDate(0, 0, 7); !expiry.Equal(want) {
		t.Fatalf("expiry = %v, want %v", expiry, want)
	}
	if len(f.backend.createCalls) != 1 {
		t.Fatalf("expected one account creation, got %d", len(f.backend.createCalls))
	}
	// Full window in one step, no separate credit call.
	if len(f.backend.creditCalls) != 0 {
		t.Fatalf("free registration must not call add credits")
	}
	if f.gateway.calls != 0 {
		t.Fatalf("free registration must not touch the payment gateway")
	}
}

func TestRegisterFreeRejectsPaidPlan(t *testing.T) {
	f := newFixture(t)
	f.backend.plans[4] = paidPlan()

	in := RegistrationInput{Username: "newuser", Password: "pw", SrvID: 4}
	if _, err := f.orch.RegisterFree(context.Background(), in); !errors.Is(err, ErrPaidPlanRequiresPayment) {
		t.Fatalf("expected ErrPaidPlanRequiresPayment, got %v", err)
	}
	if len(f.backend.createCalls) != 0 {
		t.Fatalf("paid plan must not create an account on the free path")
	}
}
