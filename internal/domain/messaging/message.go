// internal/domain/messaging/message.go
package messaging

import (
	"context"
	"database/sql"
	"time"
)

// Direction of a conversation message.
type Direction string

const (
	DirectionOutbound Direction = "OUT"
	DirectionInbound  Direction = "IN"
)

// Message is one row of the conversation log. Outbound template sends are
// recorded here by the gateway adapter; inbound rows are written by the
// reply handler. Read receipts land on outbound rows as they arrive from
// the provider.
type Message struct {
	Ref        string // Durable reference, also returned from SendTemplate
	ChatID     int64
	Direction  Direction
	TemplateID sql.NullString // Outbound only
	Body       string
	SentAt     time.Time
	ReadAt     sql.NullTime // Outbound only
}

// MessageRepository persists the conversation log the gateway adapter is
// backed by.
type MessageRepository interface {
	RecordOutbound(ctx context.Context, m *Message) error
	RecordInbound(ctx context.Context, m *Message) error
	// MarkRead stamps the read receipt on an outbound message if not set.
	MarkRead(ctx context.Context, ref string, readAt time.Time) error
	GetByRef(ctx context.Context, ref string) (*Message, error)
	// LastOutbound returns the most recent outbound template message of a
	// conversation.
	LastOutbound(ctx context.Context, chatID int64) (*Message, error)
	HasInboundSince(ctx context.Context, chatID int64, since time.Time) (bool, error)
}
