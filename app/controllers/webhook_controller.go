package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/connectwave/portal/internal/pkg/env"
	"github.com/connectwave/portal/internal/pkg/metrics/counter"
	"github.com/connectwave/portal/internal/pkg/paystack"
	"github.com/connectwave/portal/internal/pkg/provisioning"
)

// HandlePaystackWebhook is the payment event gateway. Signature verification
// runs over the raw, unparsed body; unsigned or badly signed requests are
// discarded with 400 and never retried. Only charge.success triggers
// provisioning, every other event type is acknowledged and ignored.
func HandlePaystackWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Paystack-Signature"))
	secret := env.GetEnv("PAYSTACK_SECRET_KEY", "")

	if !paystack.VerifyWebhookSignature(rawBody, signature, secret) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	event, err := paystack.ParseWebhookEvent(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if event.Event != paystack.EventTypeChargeSuccess {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	if err := counter.AddWebhookReceived(); err != nil {
		log.Warnf("webhook counter increment failed: %v", err)
	}

	ctx, cancel := requestContext()
	defer cancel()

	orchestrator := newOrchestrator()
	outcome, procErr := orchestrator.ProcessPaymentEvent(ctx, provisioning.PaymentEvent{
		Reference:  event.Data.Reference,
		AmountKobo: event.Data.Amount,
		Status:     event.Data.Status,
		Metadata:   paystack.DecodeMetadata(event.Data.Metadata),
	})

	switch outcome.Code {
	case provisioning.OutcomeApplied:
		if err := counter.AddRenewalApplied(); err != nil {
			log.Warnf("renewal counter increment failed: %v", err)
		}
		if outcome.Intent == provisioning.IntentCombinedCreationAndPlan {
			if err := counter.AddAccountCreated(); err != nil {
				log.Warnf("account counter increment failed: %v", err)
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "intent": outcome.Intent.String()})

	case provisioning.OutcomeAlreadyProcessed:
		if err := counter.AddWebhookDuplicate(); err != nil {
			log.Warnf("duplicate counter increment failed: %v", err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})

	case provisioning.OutcomeValidationFailed:
		log.Warnf("webhook for %s rejected: %v", outcome.Reference, procErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_event", "detail": outcome.Detail})

	case provisioning.OutcomePartialFailure:
		// Payment is confirmed but the credit did not land. The ledger row
		// stays failed for manual reconciliation; acknowledging with 200
		// stops redelivery, which would risk re-crediting.
		log.Errorf("partial failure for %s: %v", outcome.Reference, procErr)
		if err := counter.AddPaymentFailed(); err != nil {
			log.Warnf("failure counter increment failed: %v", err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "partial_failure": true})

	default:
		log.Errorf("webhook for %s hit infrastructure error: %v", outcome.Reference, procErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}
}
