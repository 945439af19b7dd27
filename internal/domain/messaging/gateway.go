// internal/domain/messaging/gateway.go
package messaging

import (
	"context"
	"time"
)

// Template keys understood by every center namespace.
const (
	TemplateKeyReminder1 = "renewal_reminder_1"
	TemplateKeyReminder2 = "renewal_reminder_2"
	TemplateKeyReminder3 = "renewal_reminder_3"
	TemplateKeyFollowUp  = "renewal_follow_up"
)

// Destination identifies where an outbound message goes.
type Destination struct {
	ChatID int64
	Phone  string
}

// Gateway is the opaque messaging capability the drivers depend on. This
// decouples the workflow engine from the concrete provider library.
type Gateway interface {
	// SendTemplate sends the identified template with the given variables
	// and returns a durable reference to the delivered message.
	SendTemplate(ctx context.Context, dest Destination, templateID string, vars map[string]string) (string, error)

	// GetReadReceipt reports whether the referenced outbound message has
	// been marked read, and when.
	GetReadReceipt(ctx context.Context, messageRef string) (bool, time.Time, error)

	// HasInboundSince reports whether any inbound message arrived on the
	// conversation after the given instant.
	HasInboundSince(ctx context.Context, dest Destination, since time.Time) (bool, error)

	// LastOutboundRef returns the reference of the most recent outbound
	// template message on the conversation, with its send time. Returns
	// ok=false when nothing was ever sent.
	LastOutboundRef(ctx context.Context, dest Destination) (ref string, sentAt time.Time, ok bool, err error)
}
