// Package resolver locates a customer record on the upstream POS API.
//
// The upstream only supports listing customers page by page, so resolution
// is a search: try the page the customer was last seen on (the hint), then
// fall back to a bounded sequential scan. The hint is advisory: a wrong or
// missing hint only costs extra upstream calls, never correctness.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

// pageLister is the upstream listing interface needed by the resolver.
type pageLister interface {
	ListCustomers(ctx context.Context, page int) (*domain.CustomerPage, error)
}

// Service resolves upstream customer IDs to current records.
type Service struct {
	log       *slog.Logger
	pages     pageLister
	scanLimit int
}

// NewService creates a resolver. scanLimit bounds the fallback scan: pages
// beyond it are never fetched in a single resolution attempt.
func NewService(logger *slog.Logger, pages pageLister, scanLimit int) *Service {
	return &Service{
		log:       logger.With("service", "resolver"),
		pages:     pages,
		scanLimit: scanLimit,
	}
}

// Resolve finds the customer with the given upstream ID.
//
// If hint is non-nil that page is fetched first; a match there costs exactly
// one upstream call. Otherwise pages 1..bound are scanned in order, skipping
// the already-checked hinted page, stopping at the first match. The bound is
// the configured scan limit, tightened to the upstream's reported last page
// once a response reveals it.
//
// Returns (record, page, nil) on a match, (nil, 0, nil) when the bounded
// scan exhausts without one, and (nil, 0, err) wrapping
// domain.ErrUpstreamUnavailable when any page fetch fails; a failed fetch
// aborts the whole attempt rather than skipping the page.
func (s *Service) Resolve(ctx context.Context, customerID int64, hint *int) (*domain.Customer, int, error) {
	limit := s.scanLimit
	hintPage := 0

	if hint != nil && *hint >= 1 {
		hintPage = *hint

		page, err := s.pages.ListCustomers(ctx, hintPage)
		if err != nil {
			return nil, 0, fmt.Errorf("resolve customer %d: %w", customerID, err)
		}
		if c := findCustomer(page, customerID); c != nil {
			s.log.DebugContext(ctx, "resolved on hinted page",
				slog.Int64("customer_id", customerID), slog.Int("page", hintPage))
			return c, hintPage, nil
		}
		if lp := page.Pagination.LastPage; lp > 0 && lp < limit {
			limit = lp
		}

		s.log.DebugContext(ctx, "hint miss, scanning",
			slog.Int64("customer_id", customerID), slog.Int("hint", hintPage))
	}

	for p := 1; p <= limit; p++ {
		if p == hintPage {
			continue
		}

		page, err := s.pages.ListCustomers(ctx, p)
		if err != nil {
			return nil, 0, fmt.Errorf("resolve customer %d: %w", customerID, err)
		}
		if c := findCustomer(page, customerID); c != nil {
			s.log.DebugContext(ctx, "resolved by scan",
				slog.Int64("customer_id", customerID), slog.Int("page", p))
			return c, p, nil
		}
		if lp := page.Pagination.LastPage; lp > 0 && lp < limit {
			limit = lp
		}
	}

	s.log.DebugContext(ctx, "not found within scan window",
		slog.Int64("customer_id", customerID), slog.Int("limit", limit))
	return nil, 0, nil
}

// findCustomer returns the first record in the page matching id, or nil.
func findCustomer(page *domain.CustomerPage, id int64) *domain.Customer {
	for i := range page.Customers {
		if page.Customers[i].ID == id {
			return &page.Customers[i]
		}
	}
	return nil
}
