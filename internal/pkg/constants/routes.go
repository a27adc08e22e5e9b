package constants

// Static route constants
const (
	// PaystackWebhookRoute is registered on the app root, outside the
	// rate-limited /api group.
	PaystackWebhookRoute = "/webhooks/paystack"

	// Routes below are relative to the /api group.
	PaymentInitializeRoute   = "/payments/initialize"
	RegisterFreeRoute        = "/register/free"
	RegisterCompleteRoute    = "/register/complete"
	TransactionFailuresRoute = "/transactions/failures"
	TransactionSummaryRoute  = "/transactions/summary"
	TransactionStatusRoute   = "/transactions/:reference"
	LocationsRoute           = "/locations"
)
