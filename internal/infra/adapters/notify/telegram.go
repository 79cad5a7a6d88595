package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/infra/metrics"
)

// chatSender is the part of *tgbotapi.BotAPI the notifier uses.
type chatSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var _ adapter.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier posts admin notices to the configured chats. Payer notices
// are ignored: payers are reached by email.
type TelegramNotifier struct {
	bot   chatSender
	chats []int64
}

func NewTelegramNotifier(token string, adminChats []int64) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: telegram token is required", ErrInvalidConfig)
	}
	if len(adminChats) == 0 {
		return nil, fmt.Errorf("%w: at least one admin chat id is required", ErrInvalidConfig)
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, adminChats), nil
}

func newTelegramNotifier(bot chatSender, chats []int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chats: chats}
}

func (t *TelegramNotifier) PaymentSucceeded(ctx context.Context, n adapter.PaymentNotice) error {
	if n.Audience != adapter.AudienceAdmin {
		return nil
	}
	return t.broadcast(ctx, "payment_succeeded", paymentSucceededMessage(n))
}

func (t *TelegramNotifier) PaymentFailed(ctx context.Context, n adapter.PaymentNotice) error {
	if n.Audience != adapter.AudienceAdmin {
		return nil
	}
	return t.broadcast(ctx, "payment_failed", paymentFailedMessage(n))
}

func (t *TelegramNotifier) PromoRedeemed(ctx context.Context, n adapter.PromoNotice) error {
	if n.Audience != adapter.AudienceAdmin {
		return nil
	}
	return t.broadcast(ctx, "promo_redeemed", promoRedeemedMessage(n))
}

func (t *TelegramNotifier) broadcast(ctx context.Context, kind string, m message) error {
	var errs []error
	for _, chatID := range t.chats {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, m.Subject+"\n\n"+m.Body)
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			metrics.IncNotification("telegram", kind, "error")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		metrics.IncNotification("telegram", kind, "sent")
	}
	return errors.Join(errs...)
}
