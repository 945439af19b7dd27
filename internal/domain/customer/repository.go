package customer

import (
	"context"
)

// Repository defines read-only access to customer records. Mutation belongs
// to the import pipeline and the record-keeping UI, both outside this core.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Customer, error)
	GetByChatID(ctx context.Context, chatID int64) (*Customer, error)
}
