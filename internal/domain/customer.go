package domain

import "time"

// Customer is a read-only snapshot of a POS customer record as returned by
// the upstream API. It has no local identity beyond the upstream ID and is
// re-fetched on demand.
type Customer struct {
	ID               int64
	Name             string
	Mobile           string
	Email            *string
	Address          *string
	CreditLimit      float64
	TotalSpent       float64
	TotalOutstanding float64
	LoyaltyText      *string
}

// Pagination is the paging metadata the upstream attaches to every listing
// response. LastPage is only trustworthy on the first fetched page but the
// upstream repeats it on every response.
type Pagination struct {
	Total    int
	LastPage int
	Page     int
	PageSize int
}

// CustomerPage is one page of the upstream customer listing.
type CustomerPage struct {
	Customers  []Customer
	Pagination Pagination
}

// CustomerSnapshot is a locally persisted copy of a Customer, written by the
// directory sync and used as a fallback when live resolution fails.
type CustomerSnapshot struct {
	ID               int64
	Name             string
	Mobile           string
	Email            *string
	Address          *string
	CreditLimit      float64
	TotalSpent       float64
	TotalOutstanding float64
	RawData          []byte
	SyncedAt         time.Time
}

// Customer converts the snapshot back into the live-record shape.
func (s *CustomerSnapshot) Customer() Customer {
	return Customer{
		ID:               s.ID,
		Name:             s.Name,
		Mobile:           s.Mobile,
		Email:            s.Email,
		Address:          s.Address,
		CreditLimit:      s.CreditLimit,
		TotalSpent:       s.TotalSpent,
		TotalOutstanding: s.TotalOutstanding,
	}
}
