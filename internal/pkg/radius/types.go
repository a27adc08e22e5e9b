package radius

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the subscriber record as reported by the backend. The backend
// stays authoritative for every field here; callers must re-read before
// computing deltas instead of caching this struct.
type Account struct {
	Username   string
	Enabled    bool
	SrvID      int
	Expiry     time.Time // zero when the backend reports no/sentinel expiry
	DlBytes    int64
	UlBytes    int64
	TotalBytes int64
	OnlineTime int64
	Owner      string
}

// Plan describes a service plan as configured in the backend.
type Plan struct {
	SrvID           int
	SrvName         string
	UnitPrice       decimal.Decimal
	UnitPriceAdd    decimal.Decimal
	UnitPriceTax    decimal.Decimal
	UnitPriceAddTax decimal.Decimal
	TimeUnitExp     int   // plan duration in days
	TrafficUnitComb int64 // traffic allowance unit
	LimitComb       int   // 0 means unlimited traffic
	Enabled         bool
}

// TotalPrice sums the four price parts into the amount a customer pays.
func (p *Plan) TotalPrice() decimal.Decimal {
	return p.UnitPrice.Add(p.UnitPriceAdd).Add(p.UnitPriceTax).Add(p.UnitPriceAddTax)
}

// IsFree reports whether the plan costs nothing.
func (p *Plan) IsFree() bool {
	return p.TotalPrice().IsZero()
}

// NewAccount carries the profile fields for account creation.
type NewAccount struct {
	Username  string
	Password  string
	SrvID     int
	FirstName string
	Email     string
	Phone     string
}

// CreditResult is the backend's answer to an add_credits call. NewExpiry is
// zero when the backend response did not include one.
type CreditResult struct {
	NewExpiry time.Time
}
