// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"renewal_reminder_bot/internal/domain/clock"
	"renewal_reminder_bot/internal/domain/messaging"
	idb "renewal_reminder_bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// TelebotGateway implements the messaging.Gateway interface using the
// gopkg.in/telebot.v3 library, backed by the conversation log for
// read-receipt and inbound-since queries.
type TelebotGateway struct {
	bot      *telebot.Bot
	messages messaging.MessageRepository
	clk      clock.Clock
	logger   *logrus.Logger
}

func NewTelebotGateway(bot *telebot.Bot, messages messaging.MessageRepository, clk clock.Clock, logger *logrus.Logger) *TelebotGateway {
	return &TelebotGateway{bot: bot, messages: messages, clk: clk, logger: logger}
}

func (g *TelebotGateway) SendTemplate(ctx context.Context, dest messaging.Destination, templateID string, vars map[string]string) (string, error) {
	body, err := RenderTemplate(templateID, vars)
	if err != nil {
		return "", err
	}

	recipient := &telebot.User{ID: dest.ChatID}
	if _, err := g.bot.Send(recipient, body); err != nil {
		return "", fmt.Errorf("telegram send failed: %w", err)
	}

	ref := uuid.NewString()
	msg := &messaging.Message{
		Ref:        ref,
		ChatID:     dest.ChatID,
		TemplateID: sql.NullString{String: templateID, Valid: true},
		Body:       body,
		SentAt:     g.clk.Now(),
	}
	if err := g.messages.RecordOutbound(ctx, msg); err != nil {
		// The message already went out; surfacing an error here would make
		// the caller retry the send. Receipt tracking degrades instead.
		g.logger.Errorf("Outbound message %s sent but not recorded: %v", ref, err)
	}
	return ref, nil
}

func (g *TelebotGateway) GetReadReceipt(ctx context.Context, messageRef string) (bool, time.Time, error) {
	m, err := g.messages.GetByRef(ctx, messageRef)
	if err != nil {
		if errors.Is(err, idb.ErrMessageNotFound) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, err
	}
	if !m.ReadAt.Valid {
		return false, time.Time{}, nil
	}
	return true, m.ReadAt.Time, nil
}

func (g *TelebotGateway) HasInboundSince(ctx context.Context, dest messaging.Destination, since time.Time) (bool, error) {
	return g.messages.HasInboundSince(ctx, dest.ChatID, since)
}

func (g *TelebotGateway) LastOutboundRef(ctx context.Context, dest messaging.Destination) (string, time.Time, bool, error) {
	m, err := g.messages.LastOutbound(ctx, dest.ChatID)
	if err != nil {
		if errors.Is(err, idb.ErrMessageNotFound) {
			return "", time.Time{}, false, nil
		}
		return "", time.Time{}, false, err
	}
	return m.Ref, m.SentAt, true, nil
}
