package provisioning

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/connectwave/portal/app/models"
	"github.com/connectwave/portal/internal/pkg/paystack"
	"github.com/connectwave/portal/internal/pkg/radius"
)

// SubscriberBackend is the narrow view of the external account-management
// API the orchestrator needs. The backend is the source of truth for account
// state; the orchestrator always re-reads before computing deltas.
type SubscriberBackend interface {
	GetAccount(ctx context.Context, username string) (*radius.Account, error)
	GetPlan(ctx context.Context, srvid int) (*radius.Plan, error)
	CreateAccount(ctx context.Context, profile radius.NewAccount, expiry time.Time) error
	AddCredit(ctx context.Context, username string, dlBytes, ulBytes, totalBytes int64, days int) (*radius.CreditResult, error)
}

// PaymentVerifier corroborates a payment reference against the gateway.
type PaymentVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

// Ledger is the idempotency anchor. ClaimReference must be an atomic insert
// relying on the unique reference constraint: (true, row) when this caller
// won the claim, (false, existing) when another delivery already holds it.
type Ledger interface {
	ClaimReference(tx *models.Transaction) (bool, *models.Transaction, error)
	Finalize(tx *models.Transaction) error
	GetByReference(reference string) (*models.Transaction, error)
}

// CustomerStore maintains the local shadow records used for attribution.
type CustomerStore interface {
	UpsertByUsername(c *models.Customer) error
	GetByUsername(username string) (*models.Customer, error)
}

// OwnerStore resolves commission recipients.
type OwnerStore interface {
	GetActiveByUsername(ownerUsername string) (*models.AccountOwner, error)
}

// ProvisionNotice describes a completed provisioning for the notification
// collaborator (SMS/email sending itself is outside this subsystem).
type ProvisionNotice struct {
	Reference         string
	Username          string
	Email             string
	Phone             string
	PlanName          string
	NewExpiry         time.Time
	AmountPaid        decimal.Decimal
	GeneratedPassword string
}

// Notifier receives provisioning notices. Implementations must not block
// provisioning; failures are the implementation's problem.
type Notifier interface {
	NotifyProvisioned(ctx context.Context, n ProvisionNotice)
}

// PaymentEvent is one externally supplied payment confirmation.
type PaymentEvent struct {
	Reference  string
	AmountKobo int64
	Status     string
	Metadata   map[string]any
}

// Outcome codes map one-to-one onto webhook responses: validation failures
// are acknowledged 400 (never redelivered), infrastructure failures 5xx (so
// the gateway redelivers), everything else 200.
type OutcomeCode string

const (
	OutcomeApplied          OutcomeCode = "applied"
	OutcomeAlreadyProcessed OutcomeCode = "already_processed"
	OutcomeValidationFailed OutcomeCode = "validation_failed"
	OutcomeInfrastructure   OutcomeCode = "infrastructure_error"
	OutcomePartialFailure   OutcomeCode = "partial_failure"
)

// Outcome is the result of processing one payment event.
type Outcome struct {
	Code      OutcomeCode
	Intent    Intent
	Reference string
	Detail    string
	NewExpiry time.Time
}

// Orchestrator sequences verification, claim, backend mutation and ledger
// finalization so each payment reference is applied exactly once.
type Orchestrator struct {
	backend   SubscriberBackend
	gateway   PaymentVerifier
	ledger    Ledger
	customers CustomerStore
	owners    OwnerStore
	notifier  Notifier
	now       func() time.Time
}

func NewOrchestrator(
	backend SubscriberBackend,
	gateway PaymentVerifier,
	ledger Ledger,
	customers CustomerStore,
	owners OwnerStore,
	notifier Notifier,
) *Orchestrator {
	return &Orchestrator{
		backend:   backend,
		gateway:   gateway,
		ledger:    ledger,
		customers: customers,
		owners:    owners,
		notifier:  notifier,
		now:       time.Now,
	}
}

// ProcessPaymentEvent runs the full state machine for one payment event:
// classify, claim, provision, finalize. It never retries in-process; the
// ledger claim plus the gateway's redelivery is the only retry loop.
func (o *Orchestrator) ProcessPaymentEvent(ctx context.Context, ev PaymentEvent) (*Outcome, error) {
	reference := strings.TrimSpace(ev.Reference)
	if reference == "" {
		return &Outcome{Code: OutcomeValidationFailed, Detail: "missing payment reference"}, ErrMalformedMetadata
	}

	details, err := ExtractPaymentDetails(ev.Metadata)
	if err != nil {
		return &Outcome{Code: OutcomeValidationFailed, Reference: reference, Detail: err.Error()}, err
	}
	intent := ClassifyIntent(details)

	// Fast idempotency path before any gateway call.
	if existing, err := o.ledger.GetByReference(reference); err != nil {
		return &Outcome{Code: OutcomeInfrastructure, Reference: reference, Intent: intent}, err
	} else if existing != nil && existing.PaymentStatus == models.PaymentStatusSuccess {
		return &Outcome{Code: OutcomeAlreadyProcessed, Reference: reference, Intent: intent}, nil
	}

	// Corroborate amount and status with the gateway before claiming; the
	// webhook body alone is not trusted for ledger figures.
	verified, err := o.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return &Outcome{Code: OutcomeInfrastructure, Reference: reference, Intent: intent}, err
	}
	if !verified.Verified {
		return &Outcome{
			Code:      OutcomeValidationFailed,
			Reference: reference,
			Intent:    intent,
			Detail:    "gateway reports status " + verified.Status,
		}, paystack.ErrTransactionNotSuccessful
	}
	amountPaid := koboToAmount(verified.AmountKobo)

	tx := o.provisionalTransaction(reference, details, intent, amountPaid)
	claimed, _, err := o.ledger.ClaimReference(tx)
	if err != nil {
		return &Outcome{Code: OutcomeInfrastructure, Reference: reference, Intent: intent}, err
	}
	if !claimed {
		// Uniqueness violation: another delivery owns this reference.
		return &Outcome{Code: OutcomeAlreadyProcessed, Reference: reference, Intent: intent}, nil
	}

	return o.runClaimed(ctx, tx, details, intent, amountPaid)
}

// runClaimed continues after the claim was won. From here on every exit path
// must finalize the ledger row; a lost claim with a processing row is a
// manual-reconciliation case, not a retry case.
func (o *Orchestrator) runClaimed(ctx context.Context, tx *models.Transaction, details *PaymentDetails, intent Intent, amountPaid decimal.Decimal) (*Outcome, error) {
	var (
		newExpiry         time.Time
		generatedPassword string
		ownerTag          string
		provisionErr      error
	)

	switch intent {
	case IntentRenewalOnly:
		newExpiry, ownerTag, provisionErr = o.applyRenewal(ctx, details)
	case IntentCombinedCreationAndPlan:
		newExpiry, generatedPassword, ownerTag, provisionErr = o.provisionCombined(ctx, details)
	case IntentAccountCreationOnly:
		// Registration already performed the account mutation outside this
		// flow; the ledger row is the only thing left to record. The owner
		// tag is still read opportunistically for attribution.
		if account, err := o.backend.GetAccount(ctx, details.Username); err == nil {
			ownerTag = account.Owner
		}
	}

	if provisionErr != nil {
		o.finalizeFailed(tx, provisionErr)
		return &Outcome{
			Code:      OutcomePartialFailure,
			Intent:    intent,
			Reference: tx.PaystackReference,
			Detail:    provisionErr.Error(),
		}, provisionErr
	}

	o.attributeAndPrice(ctx, tx, details, amountPaid, ownerTag)
	o.finalizeSuccess(tx, newExpiry)

	if o.notifier != nil {
		o.notifier.NotifyProvisioned(ctx, ProvisionNotice{
			Reference:         tx.PaystackReference,
			Username:          details.Username,
			Email:             details.CustomerEmail,
			Phone:             details.CustomerPhone,
			PlanName:          tx.ServicePlanName,
			NewExpiry:         newExpiry,
			AmountPaid:        amountPaid,
			GeneratedPassword: generatedPassword,
		})
	}

	return &Outcome{
		Code:      OutcomeApplied,
		Intent:    intent,
		Reference: tx.PaystackReference,
		NewExpiry: newExpiry,
	}, nil
}

// applyRenewal credits plan days and traffic onto an existing subscriber.
// The current expiry is re-read immediately before the credit call.
func (o *Orchestrator) applyRenewal(ctx context.Context, details *PaymentDetails) (time.Time, string, error) {
	account, err := o.backend.GetAccount(ctx, details.Username)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("renewal lookup for %s: %w", details.Username, err)
	}

	trafficBytes := TrafficBytes(details.LimitComb, details.TrafficUnitComb)
	result, err := o.backend.AddCredit(ctx, details.Username, trafficBytes, trafficBytes, trafficBytes, details.PlanDays)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("credit application for %s: %w", details.Username, err)
	}

	// The backend-confirmed expiry is authoritative; the local computation
	// only fills in when the response omitted one.
	newExpiry := result.NewExpiry
	if newExpiry.IsZero() {
		newExpiry = ComputeNewExpiry(account.Expiry, o.now(), details.PlanDays)
	}
	return newExpiry, account.Owner, nil
}

// provisionCombined handles a payment covering account setup plus a plan.
// Two-step protocol: create the account with a minimal placeholder window
// (never the full plan duration), re-read the freshly created expiry, then
// apply the full plan credit on top of it in one step.
func (o *Orchestrator) provisionCombined(ctx context.Context, details *PaymentDetails) (time.Time, string, string, error) {
	generatedPassword := ""

	_, err := o.backend.GetAccount(ctx, details.Username)
	switch {
	case errors.Is(err, radius.ErrAccountNotFound):
		generatedPassword = randomPassword(10)
		profile := radius.NewAccount{
			Username: details.Username,
			Password: generatedPassword,
			SrvID:    details.SrvID,
			Email:    details.CustomerEmail,
			Phone:    details.CustomerPhone,
		}
		if err := o.backend.CreateAccount(ctx, profile, o.now().Add(MinimalAccessWindow)); err != nil {
			return time.Time{}, "", "", fmt.Errorf("account creation for %s: %w", details.Username, err)
		}
	case err != nil:
		return time.Time{}, "", "", fmt.Errorf("pre-creation lookup for %s: %w", details.Username, err)
	}

	// Mandatory re-read: the base for the plan credit is either the minimal
	// window just written or the pre-existing account's real expiry.
	account, err := o.backend.GetAccount(ctx, details.Username)
	if err != nil {
		return time.Time{}, "", "", fmt.Errorf("post-creation lookup for %s: %w", details.Username, err)
	}

	trafficBytes := TrafficBytes(details.LimitComb, details.TrafficUnitComb)
	result, err := o.backend.AddCredit(ctx, details.Username, trafficBytes, trafficBytes, trafficBytes, details.PlanDays)
	if err != nil {
		return time.Time{}, "", "", fmt.Errorf("credit application for %s: %w", details.Username, err)
	}

	newExpiry := result.NewExpiry
	if newExpiry.IsZero() {
		newExpiry = ComputeNewExpiry(account.Expiry, o.now(), details.PlanDays)
	}
	return newExpiry, generatedPassword, account.Owner, nil
}

// attributeAndPrice upserts the customer shadow record, resolves the owner
// and writes commission figures onto the claimed row. Attribution runs
// before the commission figure is persisted, never after.
func (o *Orchestrator) attributeAndPrice(ctx context.Context, tx *models.Transaction, details *PaymentDetails, amountPaid decimal.Decimal, ownerTag string) {
	_ = ctx

	customer := &models.Customer{
		Username:      details.Username,
		Email:         details.CustomerEmail,
		Phone:         details.CustomerPhone,
		ServicePlanID: details.SrvID,
	}
	if details.LocationID > 0 {
		locID := details.LocationID
		customer.LocationID = &locID
	}

	rate := DefaultCommissionRate
	attributed := false
	if ownerTag = strings.TrimSpace(ownerTag); ownerTag != "" {
		if owner, err := o.owners.GetActiveByUsername(ownerTag); err != nil {
			log.Warnf("owner lookup for %s failed: %v", ownerTag, err)
		} else if owner != nil {
			ownerID := owner.ID
			customer.AccountOwnerID = &ownerID
			tx.AccountOwnerID = &ownerID
			rate = owner.CommissionRate
			attributed = true
		}
	}

	if err := o.customers.UpsertByUsername(customer); err != nil {
		log.Warnf("customer upsert for %s failed: %v", details.Username, err)
	} else if customer.ID > 0 {
		custID := customer.ID
		tx.CustomerID = &custID
	}

	tx.AmountPaid = amountPaid
	tx.CommissionRate = rate
	tx.CommissionAmount = ComputeCommission(amountPaid, rate)
	tx.OwnerAttributed = attributed
}

func (o *Orchestrator) finalizeSuccess(tx *models.Transaction, newExpiry time.Time) {
	now := o.now()
	tx.PaymentStatus = models.PaymentStatusSuccess
	tx.RenewalStartDate = &now
	if !newExpiry.IsZero() {
		end := newExpiry
		tx.RenewalEndDate = &end
	}
	if err := o.ledger.Finalize(tx); err != nil {
		// Credits are already applied; logging is all that is allowed here.
		// Re-running provisioning to repair the ledger would re-credit.
		log.Errorf("ledger finalize (success) for %s failed: %v", tx.PaystackReference, err)
	}
}

func (o *Orchestrator) finalizeFailed(tx *models.Transaction, cause error) {
	tx.PaymentStatus = models.PaymentStatusFailed
	tx.FailureReason = cause.Error()
	if err := o.ledger.Finalize(tx); err != nil {
		log.Errorf("ledger finalize (failed) for %s failed: %v", tx.PaystackReference, err)
	}
}

func (o *Orchestrator) provisionalTransaction(reference string, details *PaymentDetails, intent Intent, amountPaid decimal.Decimal) *models.Transaction {
	tx := &models.Transaction{
		PaystackReference: reference,
		PaymentStatus:     models.PaymentStatusProcessing,
		Username:          details.Username,
		ServicePlanID:     details.SrvID,
		ServicePlanName:   details.ServicePlanName,
		AmountPaid:        amountPaid,
		RenewalPeriodDays: details.PlanDays,
	}

	switch intent {
	case IntentAccountCreationOnly:
		tx.TransactionType = models.TransactionTypeAccountCreation
		tx.RenewalPeriodDays = 0
	case IntentCombinedCreationAndPlan:
		// Recorded as renewal because the renewal is the credit-bearing
		// operation; the name notes the bundled setup.
		tx.TransactionType = models.TransactionTypeRenewal
		tx.ServicePlanName = details.ServicePlanName + " (incl. account setup)"
	default:
		tx.TransactionType = models.TransactionTypeRenewal
	}
	return tx
}

func koboToAmount(kobo int64) decimal.Decimal {
	return decimal.NewFromInt(kobo).Div(hundred)
}

func randomPassword(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		// Fall back to a time-derived value; account passwords are reset by
		// the subscriber on first login anyway.
		return hex.EncodeToString([]byte(time.Now().Format("150405.000")))[:n]
	}
	return hex.EncodeToString(b)[:n]
}
