package provisioning

import "github.com/shopspring/decimal"

// DefaultCommissionRate is the bookkeeping rate applied when a customer has
// no attributed account owner. Ledger rows written with this fallback carry
// owner_attributed = false so payouts are never computed against them.
var DefaultCommissionRate = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// ComputeCommission returns amount * rate / 100 rounded to 2 decimal places.
func ComputeCommission(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred).Round(2)
}
