package provisioning

import "time"

// MinimalAccessWindow is the placeholder expiry used when an account is
// created during combined payment provisioning. The account is created with
// this short window and the full plan credit is applied on top of it in a
// second step; creating with the full plan duration and then crediting would
// grant the plan length twice.
const MinimalAccessWindow = time.Hour

// bytesPerTrafficUnit converts the backend's traffic unit into bytes.
const bytesPerTrafficUnit = 1048576

// ComputeNewExpiry returns the expiry after crediting planDays on top of the
// subscriber's current expiry. A zero currentExpiry (no account history or a
// sentinel "unset" date in the backend) bases the credit on now. A set expiry
// is extended regardless of whether it lies in the past or the future: a
// lapsed customer is extended from their original due date, deliberately on
// the same code path as an active one so the two cannot drift apart.
func ComputeNewExpiry(currentExpiry, now time.Time, planDays int) time.Time {
	base := currentExpiry
	if base.IsZero() {
		base = now
	}
	return base.AddDate(0, 0, planDays)
}

// TrafficBytes converts a plan's traffic allowance into the byte credit to
// apply. Plans with limitcomb == 0 are unlimited and always credit zero
// bytes, whatever trafficunitcomb says.
func TrafficBytes(limitComb int, trafficUnitComb int64) int64 {
	if limitComb == 0 {
		return 0
	}
	return trafficUnitComb * bytesPerTrafficUnit
}
