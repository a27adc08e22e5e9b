package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/connectwave/portal/app/controllers"
	"github.com/connectwave/portal/internal/pkg/constants"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Wire repositories and downstream clients before any route can fire
	controllers.InitializeControllers()

	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Webhook delivery must never be rate limited away: Paystack retries
	// on non-2xx and a 429 would delay credit application.
	app.Post(constants.PaystackWebhookRoute, controllers.HandlePaystackWebhook)

	api.Post(constants.PaymentInitializeRoute, controllers.HandleInitializePayment)
	api.Post(constants.RegisterFreeRoute, controllers.HandleFreeRegistration)
	api.Post(constants.RegisterCompleteRoute, controllers.HandleCompleteRegistration)
	api.Get(constants.LocationsRoute, controllers.HandleListLocations)
	api.Get(constants.TransactionFailuresRoute, controllers.HandleListFailedTransactions)
	api.Get(constants.TransactionSummaryRoute, controllers.HandleTransactionSummary)
	api.Get(constants.TransactionStatusRoute, controllers.HandleTransactionStatus)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
