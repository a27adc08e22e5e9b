package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment status values for a ledger transaction. A row is created in
// processing state before any external mutation and moved to a terminal
// status afterwards.
const (
	PaymentStatusProcessing = "processing"
	PaymentStatusSuccess    = "success"
	PaymentStatusFailed     = "failed"
)

// Transaction type values. Combined account-creation-with-plan payments are
// recorded as renewal because the renewal is the credit-bearing operation.
const (
	TransactionTypeRenewal         = "renewal"
	TransactionTypeAccountCreation = "account_creation"
)

// Transaction is the durable idempotency anchor for one payment reference.
// The unique index on paystack_reference is the sole concurrency primitive:
// whoever inserts the row owns provisioning for that reference.
type Transaction struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	PaystackReference string          `gorm:"type:varchar(100);not null;index:ux_transactions_paystack_reference,unique" json:"paystack_reference"`
	PaymentStatus     string          `gorm:"type:varchar(20);not null;default:'processing';index" json:"payment_status"`
	TransactionType   string          `gorm:"type:varchar(30);not null;index" json:"transaction_type"`
	Username          string          `gorm:"type:varchar(64);not null;index" json:"username"`
	ServicePlanID     int             `gorm:"not null;default:0" json:"service_plan_id"`
	ServicePlanName   string          `gorm:"type:varchar(150);default:''" json:"service_plan_name"`
	AmountPaid        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount_paid"`
	CommissionRate    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`
	CommissionAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"commission_amount"`
	OwnerAttributed   bool            `gorm:"default:false" json:"owner_attributed"`
	RenewalPeriodDays int             `gorm:"not null;default:0" json:"renewal_period_days"`
	RenewalStartDate  *time.Time      `gorm:"type:timestamp;default:null" json:"renewal_start_date,omitempty"`
	RenewalEndDate    *time.Time      `gorm:"type:timestamp;default:null" json:"renewal_end_date,omitempty"`
	FailureReason     string          `gorm:"type:text" json:"failure_reason,omitempty"`
	AccountOwnerID    *uint           `gorm:"index" json:"account_owner_id,omitempty"`
	CustomerID        *uint           `gorm:"index" json:"customer_id,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the transaction already reached a final status.
func (t *Transaction) IsTerminal() bool {
	return t.PaymentStatus == PaymentStatusSuccess || t.PaymentStatus == PaymentStatusFailed
}
