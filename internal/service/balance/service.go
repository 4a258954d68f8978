// Package balance assembles the customer-facing balance view behind a shared
// link. It resolves the live record from the upstream POS API and degrades
// through two local fallbacks when the upstream cannot answer:
//
//  1. live resolution via the resolver
//  2. the local snapshot written by the directory sync
//  3. the name and phone cached on the link at creation time
//
// The order is strict: a fresher tier is always preferred, and the last tier
// carries no balance at all, only enough identity to render the page.
package balance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

// Source identifies which tier produced the balance view.
type Source string

const (
	SourceLive     Source = "live"
	SourceSnapshot Source = "snapshot"
	SourceLink     Source = "link"
)

// View is the customer-facing balance page payload.
type View struct {
	Customer domain.Customer
	Source   Source
	// AsOf is the snapshot time when Source is "snapshot", nil otherwise.
	AsOf *time.Time
	// HasBalance is false only for the link tier, which knows the customer's
	// identity but not their figures.
	HasBalance bool
}

type resolver interface {
	Resolve(ctx context.Context, customerID int64, hint *int) (*domain.Customer, int, error)
}

type linkRepo interface {
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (domain.Link, error)
	TouchAccess(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePageHint(ctx context.Context, id uuid.UUID, page int) error
}

type snapshotRepo interface {
	GetByID(ctx context.Context, id int64) (domain.CustomerSnapshot, error)
}

// Service builds balance views for shared links.
type Service struct {
	resolver  resolver
	links     linkRepo
	snapshots snapshotRepo
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates a new balance service.
func NewService(log *slog.Logger, resolver resolver, links linkRepo, snapshots snapshotRepo) *Service {
	return &Service{
		resolver:  resolver,
		links:     links,
		snapshots: snapshots,
		log:       log.With("service", "balance"),
		now:       time.Now,
	}
}

// GetByPublicID returns the balance view for a shared link.
//
// An unknown public ID is domain.ErrNotFound. Hint updates and access stamps
// are best-effort: their failure is logged and never surfaces to the caller.
// domain.ErrNotFound is returned only when all three tiers come up empty.
func (s *Service) GetByPublicID(ctx context.Context, publicID uuid.UUID) (View, error) {
	link, err := s.links.GetByPublicID(ctx, publicID)
	if err != nil {
		return View{}, fmt.Errorf("balance lookup: %w", err)
	}

	if err := s.links.TouchAccess(ctx, link.ID, s.now().UTC()); err != nil {
		s.log.WarnContext(ctx, "touch access failed",
			slog.String("link_id", link.ID.String()), slog.String("error", err.Error()))
	}

	customer, page, err := s.resolver.Resolve(ctx, link.CustomerID, link.LastAPIPage)
	if err == nil && customer != nil {
		s.maintainHint(ctx, link, page)
		return View{Customer: *customer, Source: SourceLive, HasBalance: true}, nil
	}
	if err != nil {
		s.log.WarnContext(ctx, "live resolution failed, falling back",
			slog.Int64("customer_id", link.CustomerID), slog.String("error", err.Error()))
	} else {
		s.log.InfoContext(ctx, "customer not in scan window, falling back",
			slog.Int64("customer_id", link.CustomerID))
	}

	return s.fallback(ctx, link)
}

// fallback serves the snapshot tier, then the link tier.
func (s *Service) fallback(ctx context.Context, link domain.Link) (View, error) {
	snap, err := s.snapshots.GetByID(ctx, link.CustomerID)
	if err == nil {
		return View{
			Customer:   snap.Customer(),
			Source:     SourceSnapshot,
			AsOf:       &snap.SyncedAt,
			HasBalance: true,
		}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.log.WarnContext(ctx, "snapshot lookup failed",
			slog.Int64("customer_id", link.CustomerID), slog.String("error", err.Error()))
	}

	if link.CustomerName == nil && link.CustomerPhone == nil {
		return View{}, fmt.Errorf("customer %d unavailable on every tier: %w",
			link.CustomerID, domain.ErrNotFound)
	}

	view := View{
		Customer: domain.Customer{ID: link.CustomerID},
		Source:   SourceLink,
	}
	if link.CustomerName != nil {
		view.Customer.Name = *link.CustomerName
	}
	if link.CustomerPhone != nil {
		view.Customer.Mobile = *link.CustomerPhone
	}
	return view, nil
}

// maintainHint persists the page the customer was found on if it differs from
// the stored hint. Best-effort: the response never waits on or fails with it.
func (s *Service) maintainHint(ctx context.Context, link domain.Link, page int) {
	if link.LastAPIPage != nil && *link.LastAPIPage == page {
		return
	}
	if err := s.links.UpdatePageHint(ctx, link.ID, page); err != nil {
		s.log.WarnContext(ctx, "page hint update failed",
			slog.String("link_id", link.ID.String()),
			slog.Int("page", page),
			slog.String("error", err.Error()))
		return
	}
	s.log.DebugContext(ctx, "page hint updated",
		slog.Int64("customer_id", link.CustomerID), slog.Int("page", page))
}
