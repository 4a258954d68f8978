package domain

import (
	"time"

	"github.com/google/uuid"
)

// Link maps a public, shareable UUID to an upstream POS customer ID.
// CustomerName and CustomerPhone are cached once at creation time and used
// only as a last-resort fallback when live resolution and the local snapshot
// both fail. LastAPIPage is an advisory hint: the upstream page the customer
// was last found on. It never gates correctness, only upstream call order.
type Link struct {
	ID            uuid.UUID
	PublicID      uuid.UUID
	CustomerID    int64
	CustomerName  *string
	CustomerPhone *string
	CreatedBy     *uuid.UUID
	CreatedAt     time.Time
	LastAccessed  time.Time
	LastAPIPage   *int
}

// Validate checks the fields an administrator supplies at creation time.
func (l *Link) Validate() error {
	var errs []FieldError
	if l.CustomerID <= 0 {
		errs = append(errs, FieldError{Field: "customer_id", Message: "must be positive"})
	}
	if l.CustomerName != nil && len(*l.CustomerName) > 255 {
		errs = append(errs, FieldError{Field: "customer_name", Message: "too long (max 255)"})
	}
	if l.CustomerPhone != nil && len(*l.CustomerPhone) > 64 {
		errs = append(errs, FieldError{Field: "customer_phone", Message: "too long (max 64)"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
