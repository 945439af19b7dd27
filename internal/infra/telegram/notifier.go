// internal/infra/telegram/notifier.go
package telegram

import (
	"context"
	"fmt"

	"renewal_reminder_bot/internal/domain/audit"

	"gopkg.in/telebot.v3"
)

// TelebotNotifier delivers admin alerts to a configured chat.
type TelebotNotifier struct {
	bot         *telebot.Bot
	adminChatID int64
}

func NewTelebotNotifier(bot *telebot.Bot, adminChatID int64) *TelebotNotifier {
	return &TelebotNotifier{bot: bot, adminChatID: adminChatID}
}

func (n *TelebotNotifier) Notify(ctx context.Context, title, body string, severity audit.Severity, linkRef string) error {
	text := fmt.Sprintf("[%s] %s\n%s", severity, title, body)
	if linkRef != "" {
		text += "\n" + linkRef
	}
	_, err := n.bot.Send(&telebot.Chat{ID: n.adminChatID}, text)
	if err != nil {
		return fmt.Errorf("failed to notify admin chat: %w", err)
	}
	return nil
}
