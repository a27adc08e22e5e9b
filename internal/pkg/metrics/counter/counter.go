package counter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/connectwave/portal/internal/pkg/cache"
	"github.com/connectwave/portal/internal/pkg/database"
)

// Pending payment-event counters live in Redis hashes keyed by calendar day
// and are flushed into daily_payment_stats in batches. Losing a flush loses
// observability only; the ledger stays the source of truth for money.
const (
	webhooksReceivedKey  = "payments:counters:webhooks_received"
	webhooksDuplicateKey = "payments:counters:webhooks_duplicate"
	renewalsAppliedKey   = "payments:counters:renewals_applied"
	accountsCreatedKey   = "payments:counters:accounts_created"
	paymentsFailedKey    = "payments:counters:payments_failed"
)

const statDateLayout = "2006-01-02"

// AddWebhookReceived increments the pending webhook counter for today
func AddWebhookReceived() error {
	return incrToday(webhooksReceivedKey)
}

// AddWebhookDuplicate increments the pending duplicate-delivery counter for today
func AddWebhookDuplicate() error {
	return incrToday(webhooksDuplicateKey)
}

// AddRenewalApplied increments the pending applied-renewal counter for today
func AddRenewalApplied() error {
	return incrToday(renewalsAppliedKey)
}

// AddAccountCreated increments the pending account-creation counter for today
func AddAccountCreated() error {
	return incrToday(accountsCreatedKey)
}

// AddPaymentFailed increments the pending partial-failure counter for today
func AddPaymentFailed() error {
	return incrToday(paymentsFailedKey)
}

func incrToday(redisKey string) error {
	ctx := context.Background()
	field := time.Now().Format(statDateLayout)
	return cache.GetClient().HIncrBy(ctx, redisKey, field, 1).Err()
}

// FlushAll flushes every pending counter hash to the database
func FlushAll() error {
	flushes := map[string]string{
		webhooksReceivedKey:  "webhooks_received",
		webhooksDuplicateKey: "webhooks_duplicate",
		renewalsAppliedKey:   "renewals_applied",
		accountsCreatedKey:   "accounts_created",
		paymentsFailedKey:    "payments_failed",
	}
	for redisKey, column := range flushes {
		if err := flushHashToStats(redisKey, column); err != nil {
			return err
		}
	}
	return nil
}

// flushHashToStats drains one Redis hash atomically and applies the batched
// increments to daily_payment_stats. Uses RENAME to a temporary key so
// in-flight increments are never lost.
func flushHashToStats(redisKey, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	db := database.GetDB()
	for date, v := range data {
		inc, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil || inc == 0 {
			continue
		}
		if _, terr := time.Parse(statDateLayout, date); terr != nil {
			continue
		}

		sql := fmt.Sprintf(
			"INSERT INTO daily_payment_stats (stat_date, %s, created_at, updated_at) VALUES (?, ?, NOW(), NOW()) "+
				"ON DUPLICATE KEY UPDATE %s = %s + VALUES(%s), updated_at = NOW()",
			column, column, column, column,
		)
		if err := db.Exec(sql, date, inc).Error; err != nil {
			return err
		}
	}
	return nil
}
