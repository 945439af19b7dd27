package center

import (
	"context"
	"time"
)

// Center is an inspection center's outreach configuration. Templates are
// namespaced per center so each center's approved message wording is used
// for its own customers.
type Center struct {
	ID                int64
	Name              string
	TemplateNamespace string // Prefix for the center's approved templates
	Phone             string // Shown to customers for call-backs
	CreatedAt         time.Time
}

// TemplateID composes the full template identifier for a template key
// within this center's namespace.
func (c *Center) TemplateID(key string) string {
	return c.TemplateNamespace + "." + key
}

// Repository defines read-only access to center configuration.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Center, error)
}
