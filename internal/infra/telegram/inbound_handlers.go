// internal/infra/telegram/inbound_handlers.go
package telegram

import (
	"context"
	"errors"

	"renewal_reminder_bot/internal/domain/clock"
	"renewal_reminder_bot/internal/domain/customer"
	"renewal_reminder_bot/internal/domain/messaging"
	"renewal_reminder_bot/internal/domain/renewal"
	idb "renewal_reminder_bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterInboundHandlers wires the customer reply handler. An inbound text
// is recorded in the conversation log, implies the last outbound reminder
// was read, and moves the customer's open case to ONHOLD so the automated
// progression leaves it alone until a human picks it up.
func RegisterInboundHandlers(
	bot *telebot.Bot,
	cases renewal.Repository,
	customers customer.Repository,
	messages messaging.MessageRepository,
	clk clock.Clock,
	logger *logrus.Logger,
) {
	bot.Handle(telebot.OnText, func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}
		ctx := context.Background()
		chatID := c.Sender().ID
		now := clk.Now()

		cust, err := customers.GetByChatID(ctx, chatID)
		if err != nil {
			if errors.Is(err, idb.ErrCustomerNotFound) {
				// Not one of ours; stay silent.
				return nil
			}
			logger.Errorf("Inbound from chat %d: customer lookup failed: %v", chatID, err)
			return nil
		}

		inbound := &messaging.Message{
			Ref:    uuid.NewString(),
			ChatID: chatID,
			Body:   c.Text(),
			SentAt: now,
		}
		if err := messages.RecordInbound(ctx, inbound); err != nil {
			logger.Errorf("Inbound from customer %d not recorded: %v", cust.ID, err)
		}

		// A reply means the last reminder was read, even if the provider
		// never reported a receipt.
		if last, err := messages.LastOutbound(ctx, chatID); err == nil && !last.ReadAt.Valid {
			if err := messages.MarkRead(ctx, last.Ref, now); err != nil {
				logger.Errorf("Failed to backfill read receipt for %s: %v", last.Ref, err)
			}
		}

		openCase, err := cases.GetOpenByCustomerID(ctx, cust.ID)
		if err != nil {
			if !errors.Is(err, idb.ErrCaseNotFound) {
				logger.Errorf("Open case lookup failed for customer %d: %v", cust.ID, err)
			}
			return nil
		}

		ok, err := cases.MarkResponded(ctx, openCase.ID, openCase.Status, now)
		if err != nil {
			logger.Errorf("Failed to move case %d to ONHOLD: %v", openCase.ID, err)
			return nil
		}
		if ok {
			logger.Infof("Case %d moved to ONHOLD after reply from customer %d.", openCase.ID, cust.ID)
			return c.Send("¡Gracias! Un compañero del centro te contactará en breve para la cita.")
		}
		return nil
	})
}
