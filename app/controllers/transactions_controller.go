package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/connectwave/portal/app/models"
	"github.com/connectwave/portal/app/repository"
)

// HandleListFailedTransactions surfaces recent partial failures for the
// manual reconciliation workflow. Failed rows are never retried
// automatically; an operator resolves them against the subscriber backend.
func HandleListFailedTransactions(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days < 1 || days > 90 {
		days = 7
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	repo := repository.GetGlobalFactory().GetTransactionRepository()
	since := time.Now().AddDate(0, 0, -days)
	failures, err := repo.RecentFailures(since, limit)
	if err != nil {
		log.Errorf("failed transaction listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "listing_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"transactions": failures, "count": len(failures)})
}

// HandleTransactionStatus reports the ledger state for one payment
// reference, used by the checkout return page to poll for completion.
func HandleTransactionStatus(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return badRequest(c, "invalid_request", "reference is required")
	}

	repo := repository.GetGlobalFactory().GetTransactionRepository()
	tx, err := repo.GetByReference(reference)
	if err != nil {
		log.Errorf("transaction lookup for %s failed: %v", reference, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
	}
	if tx == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_reference"})
	}

	resp := fiber.Map{
		"reference": tx.PaystackReference,
		"status":    tx.PaymentStatus,
		"type":      tx.TransactionType,
	}
	if tx.PaymentStatus == models.PaymentStatusSuccess && tx.RenewalEndDate != nil {
		resp["expiry"] = tx.RenewalEndDate.Format("2006-01-02 15:04")
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandleTransactionSummary reports ledger totals for the operations
// dashboard: counts per status, revenue over the window and any rows stuck
// in processing (a won claim whose provisioning outcome was never recorded).
func HandleTransactionSummary(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)
	if days < 1 || days > 365 {
		days = 30
	}

	repo := repository.GetGlobalFactory().GetTransactionRepository()
	since := time.Now().AddDate(0, 0, -days)

	summary := fiber.Map{"window_days": days}
	for _, status := range []string{models.PaymentStatusProcessing, models.PaymentStatusSuccess, models.PaymentStatusFailed} {
		count, err := repo.CountByStatus(status)
		if err != nil {
			log.Errorf("transaction count for %s failed: %v", status, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "summary_failed"})
		}
		summary[status] = count
	}

	revenue, err := repo.SumAmountSince(since)
	if err != nil {
		log.Errorf("revenue sum failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "summary_failed"})
	}
	summary["revenue"] = revenue.StringFixed(2)

	stuck, err := repo.ListByStatus(models.PaymentStatusProcessing, 0, 20)
	if err != nil {
		log.Errorf("stuck transaction listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "summary_failed"})
	}
	summary["stuck_processing"] = stuck

	return c.Status(fiber.StatusOK).JSON(summary)
}
