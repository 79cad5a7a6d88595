package notify

import (
	"fmt"
	"strings"
	"time"

	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/infra/i18n"
)

// messages is the copy every channel renders from.
var messages = i18n.MustDefault()

// message is a rendered notice, shared by every channel.
type message struct {
	Subject string
	Body    string
	Tag     string
}

func formatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, strings.ToUpper(currency))
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return messages.T("expiry_none")
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func paymentSucceededMessage(n adapter.PaymentNotice) message {
	if n.Audience == adapter.AudienceAdmin {
		return message{
			Subject: messages.T("payment_admin_subject"),
			Body: messages.T("payment_admin_body",
				n.GatewayEventID, formatAmount(n.Amount, n.Currency), n.TargetKind, n.TargetID, formatExpiry(n.ExpiresAt)),
			Tag: "payment-admin",
		}
	}
	return message{
		Subject: messages.T("payment_payer_subject"),
		Body:    messages.T("payment_payer_body", formatAmount(n.Amount, n.Currency), n.TargetKind, formatExpiry(n.ExpiresAt)),
		Tag:     "payment-succeeded",
	}
}

func paymentFailedMessage(n adapter.PaymentNotice) message {
	return message{
		Subject: messages.T("payment_failed_subject"),
		Body:    messages.T("payment_failed_body", formatAmount(n.Amount, n.Currency), n.TargetKind),
		Tag:     "payment-failed",
	}
}

func promoRedeemedMessage(n adapter.PromoNotice) message {
	exp := n.ExpiresAt
	if n.Audience == adapter.AudienceAdmin {
		return message{
			Subject: messages.T("promo_admin_subject"),
			Body:    messages.T("promo_admin_body", n.Code, n.TargetKind, n.TargetID, n.Status, formatExpiry(&exp)),
			Tag:     "promo-admin",
		}
	}
	return message{
		Subject: messages.T("promo_payer_subject"),
		Body:    messages.T("promo_payer_body", n.Code, n.TargetKind, formatExpiry(&exp)),
		Tag:     "promo-redeemed",
	}
}
