package repository

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/connectwave/portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transactionRepository implements the TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// ClaimReference atomically inserts the provisional row for a payment
// reference. The insert relies on the unique index on paystack_reference:
// RowsAffected == 0 means another delivery already claimed the reference.
// Any other failure is an infrastructure error the caller surfaces as
// retryable.
func (r *transactionRepository) ClaimReference(tx *models.Transaction) (bool, *models.Transaction, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "paystack_reference"}},
		DoNothing: true,
	}).Create(tx)
	if res.Error != nil {
		return false, nil, res.Error
	}

	claimed := res.RowsAffected > 0
	var stored models.Transaction
	if err := r.db.Where("paystack_reference = ?", tx.PaystackReference).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return claimed, &stored, nil
}

// Finalize moves a claimed row from processing to its terminal status. The
// guard on the current status keeps a reference from ever reaching success
// twice; a zero-row update on an already-terminal row is not an error.
func (r *transactionRepository) Finalize(tx *models.Transaction) error {
	updates := map[string]interface{}{
		"payment_status":     tx.PaymentStatus,
		"amount_paid":        tx.AmountPaid,
		"commission_rate":    tx.CommissionRate,
		"commission_amount":  tx.CommissionAmount,
		"owner_attributed":   tx.OwnerAttributed,
		"renewal_start_date": tx.RenewalStartDate,
		"renewal_end_date":   tx.RenewalEndDate,
		"failure_reason":     tx.FailureReason,
		"account_owner_id":   tx.AccountOwnerID,
		"customer_id":        tx.CustomerID,
	}
	return r.db.Model(&models.Transaction{}).
		Where("paystack_reference = ? AND payment_status = ?", tx.PaystackReference, models.PaymentStatusProcessing).
		Updates(updates).Error
}

// GetByReference retrieves a ledger row by its payment reference. Returns
// (nil, nil) when no row exists.
func (r *transactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.Where("paystack_reference = ?", reference).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// ListByStatus retrieves transactions in a given status with pagination
func (r *transactionRepository) ListByStatus(status string, offset, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("payment_status = ?", status).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, err
}

// RecentFailures lists non-success terminal rows for manual reconciliation
func (r *transactionRepository) RecentFailures(since time.Time, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("payment_status = ? AND created_at >= ?", models.PaymentStatusFailed, since).
		Order("created_at DESC").Limit(limit).Find(&txs).Error
	return txs, err
}

// CountByStatus counts transactions in a given status
func (r *transactionRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Transaction{}).Where("payment_status = ?", status).Count(&count).Error
	return count, err
}

// SumAmountSince sums successful payment amounts from the given time. The
// total is scanned as a string and parsed into a decimal so reporting keeps
// the ledger's exact precision.
func (r *transactionRepository) SumAmountSince(since time.Time) (decimal.Decimal, error) {
	var total string
	err := r.db.Model(&models.Transaction{}).
		Where("payment_status = ? AND created_at >= ?", models.PaymentStatusSuccess, since).
		Select("COALESCE(SUM(amount_paid), 0)").Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return parseAmountTotal(total)
}

// parseAmountTotal converts a SUM() result into a decimal. MySQL may hand
// back an empty string for an empty result set; treat that as zero.
func parseAmountTotal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
