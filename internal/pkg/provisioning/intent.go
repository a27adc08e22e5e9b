package provisioning

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Purpose markers carried in payment metadata. The initiation endpoints set
// these; the classifier reads them back after webhook delivery.
const (
	PurposeRenewal                 = "renewal"
	PurposeAccountCreation         = "account_creation"
	PurposeAccountCreationWithPlan = "account_creation_with_plan"
)

// Metadata keys shared by the initiation and extraction sides.
const (
	MetaKeyUsername           = "username"
	MetaKeySrvID              = "srvid"
	MetaKeyTimeUnitExp        = "timeunitexp"
	MetaKeyTrafficUnitComb    = "trafficunitcomb"
	MetaKeyLimitComb          = "limitcomb"
	MetaKeyPurpose            = "purpose"
	MetaKeyLocationID         = "locationId"
	MetaKeyCustomerEmail      = "customerEmail"
	MetaKeyCustomerPhone      = "customerPhone"
	MetaKeyServicePlanName    = "servicePlanName"
	MetaKeyAccountCreationFee = "accountCreationFee"
	MetaKeyServicePlanPrice   = "servicePlanPrice"
)

// defaultPlanDays is assumed when the metadata carries no parseable plan
// duration.
const defaultPlanDays = 30

// Intent is the provisioning branch a payment maps to. Classification is
// total: every payment event yields exactly one intent or is rejected as
// malformed before any ledger write.
type Intent int

const (
	IntentRenewalOnly Intent = iota
	IntentAccountCreationOnly
	IntentCombinedCreationAndPlan
)

func (i Intent) String() string {
	switch i {
	case IntentAccountCreationOnly:
		return "account_creation_only"
	case IntentCombinedCreationAndPlan:
		return "combined_creation_and_plan"
	default:
		return "renewal_only"
	}
}

// ErrMalformedMetadata marks metadata that cannot identify a subscriber.
var ErrMalformedMetadata = errors.New("provisioning: malformed payment metadata")

// PaymentDetails is the normalized view of one payment's metadata.
type PaymentDetails struct {
	Username        string
	SrvID           int
	PlanDays        int
	TrafficUnitComb int64
	LimitComb       int
	Purpose         string
	LocationID      uint
	CustomerEmail   string
	CustomerPhone   string
	ServicePlanName string

	AccountCreationFee decimal.Decimal
	ServicePlanPrice   decimal.Decimal
}

// ExtractPaymentDetails flattens event metadata into PaymentDetails. Values
// may live at the top level or inside the custom_fields display/variable/value
// triples; scalar top-level keys win on conflict. Only a missing username is
// fatal, everything else degrades to defaults.
func ExtractPaymentDetails(metadata map[string]any) (*PaymentDetails, error) {
	flat := flattenMetadata(metadata)

	username := strings.TrimSpace(flat[MetaKeyUsername])
	if username == "" {
		return nil, fmt.Errorf("%w: missing username", ErrMalformedMetadata)
	}

	d := &PaymentDetails{
		Username:           username,
		SrvID:              int(parseIntField(flat[MetaKeySrvID])),
		PlanDays:           defaultPlanDays,
		TrafficUnitComb:    parseIntField(flat[MetaKeyTrafficUnitComb]),
		LimitComb:          int(parseIntField(flat[MetaKeyLimitComb])),
		Purpose:            strings.ToLower(strings.TrimSpace(flat[MetaKeyPurpose])),
		LocationID:         uint(parseIntField(flat[MetaKeyLocationID])),
		CustomerEmail:      strings.TrimSpace(flat[MetaKeyCustomerEmail]),
		CustomerPhone:      strings.TrimSpace(flat[MetaKeyCustomerPhone]),
		ServicePlanName:    strings.TrimSpace(flat[MetaKeyServicePlanName]),
		AccountCreationFee: parseDecimalField(flat[MetaKeyAccountCreationFee]),
		ServicePlanPrice:   parseDecimalField(flat[MetaKeyServicePlanPrice]),
	}

	if days := parseIntField(flat[MetaKeyTimeUnitExp]); days > 0 {
		d.PlanDays = int(days)
	}
	return d, nil
}

// ClassifyIntent decides which orchestration branch runs. Combined requires
// the combined-purpose marker plus positive fee and plan price plus a plan
// identity; anything else with a creation marker is creation-only; the rest
// is a renewal.
func ClassifyIntent(d *PaymentDetails) Intent {
	if d.Purpose == PurposeAccountCreationWithPlan &&
		d.AccountCreationFee.IsPositive() &&
		d.ServicePlanPrice.IsPositive() &&
		d.SrvID > 0 &&
		d.ServicePlanName != "" {
		return IntentCombinedCreationAndPlan
	}
	if d.Purpose == PurposeAccountCreation || d.Purpose == PurposeAccountCreationWithPlan {
		return IntentAccountCreationOnly
	}
	return IntentRenewalOnly
}

// flattenMetadata merges custom_fields triples and scalar top-level entries
// into one string lookup.
func flattenMetadata(metadata map[string]any) map[string]string {
	flat := make(map[string]string, len(metadata))

	if rawFields, ok := metadata["custom_fields"].([]any); ok {
		for _, rf := range rawFields {
			field, ok := rf.(map[string]any)
			if !ok {
				continue
			}
			name := stringValue(field["variable_name"])
			if name == "" {
				name = stringValue(field["display_name"])
			}
			if name == "" {
				continue
			}
			flat[name] = stringValue(field["value"])
		}
	}

	for key, val := range metadata {
		if key == "custom_fields" {
			continue
		}
		if s := stringValue(val); s != "" {
			flat[key] = s
		}
	}
	return flat
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func parseIntField(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	// Tolerate decimal-formatted integers ("30.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func parseDecimalField(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
