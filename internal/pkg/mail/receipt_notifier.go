package mail

import (
	"context"
	"fmt"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/connectwave/portal/internal/pkg/provisioning"
)

// ReceiptNotifier emails a receipt after successful provisioning. SMS
// delivery is handled by an external collaborator; this is the in-repo
// notification channel.
type ReceiptNotifier struct{}

func NewReceiptNotifier() *ReceiptNotifier {
	return &ReceiptNotifier{}
}

// NotifyProvisioned sends the receipt in the background so notification
// failures can never affect provisioning.
func (n *ReceiptNotifier) NotifyProvisioned(ctx context.Context, notice provisioning.ProvisionNotice) {
	_ = ctx
	if notice.Email == "" {
		return
	}

	go func() {
		if err := SendMail(notice.Email, receiptSubject(notice), receiptBody(notice)); err != nil {
			fiberlog.Warnf("receipt email to %s failed: %v", notice.Email, err)
		}
	}()
}

// receiptSubject renders the mail subject. Account-creation-only payments
// carry no expiry, so the subject must not reference one.
func receiptSubject(notice provisioning.ProvisionNotice) string {
	if notice.NewExpiry.IsZero() {
		return "Your ConnectWave payment was received"
	}
	return fmt.Sprintf("Your ConnectWave service is active until %s", notice.NewExpiry.Format("2 Jan 2006"))
}

func receiptBody(notice provisioning.ProvisionNotice) string {
	body := fmt.Sprintf(
		"<p>Hello %s,</p>"+
			"<p>Your payment of NGN %s (ref %s) for <strong>%s</strong> was received.</p>",
		notice.Username,
		notice.AmountPaid.StringFixed(2),
		notice.Reference,
		notice.PlanName,
	)
	if !notice.NewExpiry.IsZero() {
		body += fmt.Sprintf("<p>Your service now runs until <strong>%s</strong>.</p>", notice.NewExpiry.Format("2 January 2006 15:04"))
	}
	if notice.GeneratedPassword != "" {
		body += fmt.Sprintf("<p>Your login password is <strong>%s</strong>. Please change it after your first login.</p>", notice.GeneratedPassword)
	}
	return body
}
