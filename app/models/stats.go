package models

import "time"

// DailyPaymentStat aggregates payment-event counters per calendar day.
// Counters accumulate in Redis and are flushed into this table in batches.
type DailyPaymentStat struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	StatDate          string    `gorm:"type:date;not null;index:ux_daily_payment_stats_date,unique" json:"stat_date"`
	WebhooksReceived  int64     `gorm:"not null;default:0" json:"webhooks_received"`
	WebhooksDuplicate int64     `gorm:"not null;default:0" json:"webhooks_duplicate"`
	RenewalsApplied   int64     `gorm:"not null;default:0" json:"renewals_applied"`
	AccountsCreated   int64     `gorm:"not null;default:0" json:"accounts_created"`
	PaymentsFailed    int64     `gorm:"not null;default:0" json:"payments_failed"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
