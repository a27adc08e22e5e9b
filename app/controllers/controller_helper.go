package controllers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/connectwave/portal/app/repository"
	"github.com/connectwave/portal/internal/pkg/database"
	"github.com/connectwave/portal/internal/pkg/mail"
	"github.com/connectwave/portal/internal/pkg/paystack"
	"github.com/connectwave/portal/internal/pkg/provisioning"
	"github.com/connectwave/portal/internal/pkg/radius"
)

var validate = validator.New()

// requestContext bounds every external call chain a handler makes. There is
// no cancellation beyond this: once a ledger claim is won the orchestrator
// runs to completion or failure.
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// newOrchestrator wires the provisioning engine from env-configured clients
// and the global repository factory.
func newOrchestrator() *provisioning.Orchestrator {
	repos := repository.GetGlobalFactory().GetRepositories()
	return provisioning.NewOrchestrator(
		radius.NewClientFromEnv(),
		paystack.NewClientFromEnv(),
		repos.Transaction,
		repos.Customer,
		repos.AccountOwner,
		mail.NewReceiptNotifier(),
	)
}

// InitializeControllers wires the repository factory; called once from the
// router during app setup.
func InitializeControllers() {
	repository.InitializeFactory(database.GetDB())
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": code, "message": message})
}

func parseAndValidate(c *fiber.Ctx, out interface{}) bool {
	if err := c.BodyParser(out); err != nil {
		log.Warnf("body parse failed: %v", err)
		return false
	}
	if err := validate.Struct(out); err != nil {
		log.Warnf("request validation failed: %v", err)
		return false
	}
	return true
}
