package customer

import (
	"database/sql"
	"time"
)

// Customer is the external subject record a case refers to. It is owned by
// the import collaborator and read-only here.
type Customer struct {
	ID        int64
	FirstName string
	LastName  sql.NullString
	Phone     string
	ChatID    int64 // Messaging channel identifier; 0 means no usable channel
	CenterID  int64 // Affiliated inspection center
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasChannel reports whether the customer can be reached over the
// messaging channel at all.
func (c *Customer) HasChannel() bool {
	return c.ChatID != 0
}

// FullName joins first and optional last name for template variables.
func (c *Customer) FullName() string {
	if c.LastName.Valid {
		return c.FirstName + " " + c.LastName.String
	}
	return c.FirstName
}
