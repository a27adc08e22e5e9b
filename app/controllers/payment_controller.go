package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/connectwave/portal/internal/pkg/env"
	"github.com/connectwave/portal/internal/pkg/paystack"
	"github.com/connectwave/portal/internal/pkg/provisioning"
	"github.com/connectwave/portal/internal/pkg/radius"
)

type initializePaymentRequest struct {
	Username   string `json:"username" validate:"required,min=2,max=64"`
	SrvID      int    `json:"srvid" validate:"required,gt=0"`
	Purpose    string `json:"purpose" validate:"omitempty,oneof=renewal account_creation_with_plan"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"omitempty,max=30"`
	LocationID uint   `json:"location_id"`
}

// HandleInitializePayment starts a Paystack checkout for a renewal or a
// combined account-creation-with-plan payment. Zero-cost plans are rejected
// before any gateway call; the caller must use the free registration path.
func HandleInitializePayment(c *fiber.Ctx) error {
	var req initializePaymentRequest
	if !parseAndValidate(c, &req) {
		return badRequest(c, "invalid_request", "username, srvid and a valid email are required")
	}
	purpose := req.Purpose
	if purpose == "" {
		purpose = provisioning.PurposeRenewal
	}

	ctx, cancel := requestContext()
	defer cancel()

	backend := radius.NewClientFromEnv()
	plan, err := backend.GetPlan(ctx, req.SrvID)
	if err != nil {
		if errors.Is(err, radius.ErrPlanNotFound) || errors.Is(err, radius.ErrPlanDisabled) {
			return badRequest(c, "invalid_plan", err.Error())
		}
		log.Errorf("plan lookup for srvid=%d failed: %v", req.SrvID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "plan_lookup_failed"})
	}

	if plan.IsFree() {
		return badRequest(c, "FREE_PLAN_NO_PAYMENT", "this plan is free, use the registration endpoint without payment")
	}

	amount := plan.TotalPrice()
	creationFee := decimal.Zero
	if purpose == provisioning.PurposeAccountCreationWithPlan {
		creationFee = accountCreationFee()
		amount = amount.Add(creationFee)
	}

	reference := "CWP-" + uuid.New().String()
	gateway := paystack.NewClientFromEnv()
	result, err := gateway.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:      req.Email,
		AmountKobo: amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Reference:  reference,
		Metadata:   paymentMetadata(req, purpose, plan, creationFee),
	})
	if err != nil {
		log.Errorf("payment initialization for %s failed: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "gateway_error"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"authorization_url": result.AuthorizationURL,
		"access_code":       result.AccessCode,
		"reference":         result.Reference,
		"amount":            amount.StringFixed(2),
	})
}

// paymentMetadata mirrors what the intent classifier reads back after
// webhook delivery: scalar keys plus the custom_fields triples Paystack
// displays on the dashboard.
func paymentMetadata(req initializePaymentRequest, purpose string, plan *radius.Plan, creationFee decimal.Decimal) map[string]any {
	md := map[string]any{
		provisioning.MetaKeyUsername:         req.Username,
		provisioning.MetaKeySrvID:            strconv.Itoa(plan.SrvID),
		provisioning.MetaKeyTimeUnitExp:      strconv.Itoa(plan.TimeUnitExp),
		provisioning.MetaKeyTrafficUnitComb:  strconv.FormatInt(plan.TrafficUnitComb, 10),
		provisioning.MetaKeyLimitComb:        strconv.Itoa(plan.LimitComb),
		provisioning.MetaKeyPurpose:          purpose,
		provisioning.MetaKeyCustomerEmail:    req.Email,
		provisioning.MetaKeyCustomerPhone:    req.Phone,
		provisioning.MetaKeyServicePlanName:  plan.SrvName,
		provisioning.MetaKeyServicePlanPrice: plan.TotalPrice().StringFixed(2),
	}
	if req.LocationID > 0 {
		md[provisioning.MetaKeyLocationID] = strconv.FormatUint(uint64(req.LocationID), 10)
	}
	if creationFee.IsPositive() {
		md[provisioning.MetaKeyAccountCreationFee] = creationFee.StringFixed(2)
	}
	md["custom_fields"] = []map[string]any{
		{"display_name": "Username", "variable_name": provisioning.MetaKeyUsername, "value": req.Username},
		{"display_name": "Service Plan", "variable_name": provisioning.MetaKeyServicePlanName, "value": plan.SrvName},
		{"display_name": "Purpose", "variable_name": provisioning.MetaKeyPurpose, "value": purpose},
	}
	return md
}

func accountCreationFee() decimal.Decimal {
	raw := env.GetEnv("ACCOUNT_CREATION_FEE", "0")
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		log.Warnf("invalid ACCOUNT_CREATION_FEE %q, assuming 0", raw)
		return decimal.Zero
	}
	return fee
}
