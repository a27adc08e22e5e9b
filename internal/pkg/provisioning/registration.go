package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/connectwave/portal/app/models"
	"github.com/connectwave/portal/internal/pkg/paystack"
	"github.com/connectwave/portal/internal/pkg/radius"
)

// ErrPaidPlanRequiresPayment is returned when the no-payment registration
// path is attempted with a plan that costs money.
var ErrPaidPlanRequiresPayment = errors.New("provisioning: plan is not free, payment is required")

// RegistrationInput is the synchronous "verify then register" request a
// subscriber submits from the registration form.
type RegistrationInput struct {
	Reference  string
	Username   string
	Password   string
	SrvID      int
	Email      string
	Phone      string
	FirstName  string
	LocationID uint
}

// CompleteRegistration is the synchronous counterpart of the combined
// webhook branch: blocks on gateway verification, claims the ledger row and
// runs the same two-step create-then-credit protocol. Ordering against the
// webhook for the same reference is undefined; both sides claim first, so
// exactly one of them provisions.
func (o *Orchestrator) CompleteRegistration(ctx context.Context, in RegistrationInput) (*Outcome, error) {
	reference := strings.TrimSpace(in.Reference)
	if reference == "" || strings.TrimSpace(in.Username) == "" {
		return &Outcome{Code: OutcomeValidationFailed, Detail: "reference and username are required"}, ErrMalformedMetadata
	}

	verified, err := o.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return &Outcome{Code: OutcomeInfrastructure, Reference: reference}, err
	}
	if !verified.Verified {
		// A gateway-rejected payment is a hard rejection, never retried.
		return &Outcome{
			Code:      OutcomeValidationFailed,
			Reference: reference,
			Detail:    "gateway reports status " + verified.Status,
		}, paystack.ErrTransactionNotSuccessful
	}
	amountPaid := koboToAmount(verified.AmountKobo)

	plan, err := o.backend.GetPlan(ctx, in.SrvID)
	if err != nil {
		if errors.Is(err, radius.ErrPlanNotFound) || errors.Is(err, radius.ErrPlanDisabled) {
			return &Outcome{Code: OutcomeValidationFailed, Reference: reference, Detail: err.Error()}, err
		}
		return &Outcome{Code: OutcomeInfrastructure, Reference: reference}, err
	}

	details := &PaymentDetails{
		Username:        strings.TrimSpace(in.Username),
		SrvID:           plan.SrvID,
		PlanDays:        planDaysOrDefault(plan),
		TrafficUnitComb: plan.TrafficUnitComb,
		LimitComb:       plan.LimitComb,
		Purpose:         PurposeAccountCreationWithPlan,
		LocationID:      in.LocationID,
		CustomerEmail:   strings.TrimSpace(in.Email),
		CustomerPhone:   strings.TrimSpace(in.Phone),
		ServicePlanName: plan.SrvName,
	}

	tx := o.provisionalTransaction(reference, details, IntentCombinedCreationAndPlan, amountPaid)
	claimed, _, err := o.ledger.ClaimReference(tx)
	if err != nil {
		return &Outcome{Code: OutcomeInfrastructure, Reference: reference}, err
	}
	if !claimed {
		return &Outcome{Code: OutcomeAlreadyProcessed, Reference: reference, Intent: IntentCombinedCreationAndPlan}, nil
	}

	newExpiry, ownerTag, err := o.registerAndCredit(ctx, in, details)
	if err != nil {
		o.finalizeFailed(tx, err)
		return &Outcome{
			Code:      OutcomePartialFailure,
			Intent:    IntentCombinedCreationAndPlan,
			Reference: reference,
			Detail:    err.Error(),
		}, err
	}

	o.attributeAndPrice(ctx, tx, details, amountPaid, ownerTag)
	o.finalizeSuccess(tx, newExpiry)

	if o.notifier != nil {
		o.notifier.NotifyProvisioned(ctx, ProvisionNotice{
			Reference:  reference,
			Username:   details.Username,
			Email:      details.CustomerEmail,
			Phone:      details.CustomerPhone,
			PlanName:   tx.ServicePlanName,
			NewExpiry:  newExpiry,
			AmountPaid: amountPaid,
		})
	}

	return &Outcome{
		Code:      OutcomeApplied,
		Intent:    IntentCombinedCreationAndPlan,
		Reference: reference,
		NewExpiry: newExpiry,
	}, nil
}

// registerAndCredit is the two-step protocol with the subscriber's own
// password instead of a generated one.
func (o *Orchestrator) registerAndCredit(ctx context.Context, in RegistrationInput, details *PaymentDetails) (time.Time, string, error) {
	_, err := o.backend.GetAccount(ctx, details.Username)
	switch {
	case errors.Is(err, radius.ErrAccountNotFound):
		profile := radius.NewAccount{
			Username:  details.Username,
			Password:  in.Password,
			SrvID:     details.SrvID,
			FirstName: strings.TrimSpace(in.FirstName),
			Email:     details.CustomerEmail,
			Phone:     details.CustomerPhone,
		}
		if err := o.backend.CreateAccount(ctx, profile, o.now().Add(MinimalAccessWindow)); err != nil {
			return time.Time{}, "", fmt.Errorf("account creation for %s: %w", details.Username, err)
		}
	case err != nil:
		return time.Time{}, "", fmt.Errorf("pre-creation lookup for %s: %w", details.Username, err)
	}

	account, err := o.backend.GetAccount(ctx, details.Username)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("post-creation lookup for %s: %w", details.Username, err)
	}

	trafficBytes := TrafficBytes(details.LimitComb, details.TrafficUnitComb)
	result, err := o.backend.AddCredit(ctx, details.Username, trafficBytes, trafficBytes, trafficBytes, details.PlanDays)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("credit application for %s: %w", details.Username, err)
	}

	newExpiry := result.NewExpiry
	if newExpiry.IsZero() {
		newExpiry = ComputeNewExpiry(account.Expiry, o.now(), details.PlanDays)
	}
	return newExpiry, account.Owner, nil
}

// RegisterFree creates a subscriber on a zero-cost plan without any payment
// reference. The account is created with the full plan window in one step;
// with no separate credit call there is nothing to double-grant.
func (o *Orchestrator) RegisterFree(ctx context.Context, in RegistrationInput) (time.Time, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || strings.TrimSpace(in.Password) == "" {
		return time.Time{}, errors.New("provisioning: username and password are required")
	}

	plan, err := o.backend.GetPlan(ctx, in.SrvID)
	if err != nil {
		return time.Time{}, err
	}
	if !plan.IsFree() {
		return time.Time{}, ErrPaidPlanRequiresPayment
	}

	expiry := o.now().AddDate(0, 0, planDaysOrDefault(plan))
	profile := radius.NewAccount{
		Username:  username,
		Password:  in.Password,
		SrvID:     plan.SrvID,
		FirstName: strings.TrimSpace(in.FirstName),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
	}
	if err := o.backend.CreateAccount(ctx, profile, expiry); err != nil {
		return time.Time{}, fmt.Errorf("account creation for %s: %w", username, err)
	}

	customer := &models.Customer{
		Username:      username,
		Email:         strings.TrimSpace(in.Email),
		Phone:         strings.TrimSpace(in.Phone),
		ServicePlanID: plan.SrvID,
	}
	if in.LocationID > 0 {
		locID := in.LocationID
		customer.LocationID = &locID
	}
	if err := o.customers.UpsertByUsername(customer); err != nil {
		log.Warnf("customer upsert for %s failed: %v", username, err)
	}

	return expiry, nil
}

func planDaysOrDefault(plan *radius.Plan) int {
	if plan.TimeUnitExp > 0 {
		return plan.TimeUnitExp
	}
	return defaultPlanDays
}
