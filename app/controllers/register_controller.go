package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/connectwave/portal/internal/pkg/metrics/counter"
	"github.com/connectwave/portal/internal/pkg/provisioning"
	"github.com/connectwave/portal/internal/pkg/radius"
)

type completeRegistrationRequest struct {
	Reference  string `json:"reference" validate:"required,min=6,max=100"`
	Username   string `json:"username" validate:"required,min=2,max=64"`
	Password   string `json:"password" validate:"required,min=6,max=64"`
	SrvID      int    `json:"srvid" validate:"required,gt=0"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"omitempty,max=30"`
	FirstName  string `json:"first_name" validate:"omitempty,max=100"`
	LocationID uint   `json:"location_id"`
}

// HandleCompleteRegistration is the synchronous verify-then-register path:
// the subscriber returns from checkout and the portal blocks on gateway
// verification before creating the account and applying the plan credit.
func HandleCompleteRegistration(c *fiber.Ctx) error {
	var req completeRegistrationRequest
	if !parseAndValidate(c, &req) {
		return badRequest(c, "invalid_request", "reference, username, password, srvid and email are required")
	}

	ctx, cancel := requestContext()
	defer cancel()

	orchestrator := newOrchestrator()
	outcome, err := orchestrator.CompleteRegistration(ctx, provisioning.RegistrationInput{
		Reference:  req.Reference,
		Username:   req.Username,
		Password:   req.Password,
		SrvID:      req.SrvID,
		Email:      req.Email,
		Phone:      req.Phone,
		FirstName:  req.FirstName,
		LocationID: req.LocationID,
	})

	switch outcome.Code {
	case provisioning.OutcomeApplied:
		if cerr := counter.AddAccountCreated(); cerr != nil {
			log.Warnf("account counter increment failed: %v", cerr)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"ok":       true,
			"username": req.Username,
			"expiry":   outcome.NewExpiry.Format("2006-01-02 15:04"),
		})
	case provisioning.OutcomeAlreadyProcessed:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	case provisioning.OutcomeValidationFailed:
		return badRequest(c, "payment_not_verified", outcome.Detail)
	case provisioning.OutcomePartialFailure:
		log.Errorf("registration partial failure for %s: %v", outcome.Reference, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "provisioning_failed",
			"message": "payment received, account setup incomplete; support has been notified",
		})
	default:
		log.Errorf("registration for %s hit infrastructure error: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}
}

type freeRegistrationRequest struct {
	Username   string `json:"username" validate:"required,min=2,max=64"`
	Password   string `json:"password" validate:"required,min=6,max=64"`
	SrvID      int    `json:"srvid" validate:"required,gt=0"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"omitempty,max=30"`
	FirstName  string `json:"first_name" validate:"omitempty,max=100"`
	LocationID uint   `json:"location_id"`
}

// HandleFreeRegistration creates an account on a zero-cost plan without a
// payment reference.
func HandleFreeRegistration(c *fiber.Ctx) error {
	var req freeRegistrationRequest
	if !parseAndValidate(c, &req) {
		return badRequest(c, "invalid_request", "username, password and srvid are required")
	}

	ctx, cancel := requestContext()
	defer cancel()

	orchestrator := newOrchestrator()
	expiry, err := orchestrator.RegisterFree(ctx, provisioning.RegistrationInput{
		Username:   req.Username,
		Password:   req.Password,
		SrvID:      req.SrvID,
		Email:      req.Email,
		Phone:      req.Phone,
		FirstName:  req.FirstName,
		LocationID: req.LocationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, provisioning.ErrPaidPlanRequiresPayment):
			return badRequest(c, "plan_requires_payment", "this plan is not free, initialize a payment first")
		case errors.Is(err, radius.ErrPlanNotFound), errors.Is(err, radius.ErrPlanDisabled):
			return badRequest(c, "invalid_plan", err.Error())
		default:
			log.Errorf("free registration for %s failed: %v", req.Username, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration_failed"})
		}
	}

	if cerr := counter.AddAccountCreated(); cerr != nil {
		log.Warnf("account counter increment failed: %v", cerr)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":       true,
		"username": req.Username,
		"expiry":   expiry.Format("2006-01-02 15:04"),
	})
}
