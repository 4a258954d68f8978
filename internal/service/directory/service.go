// Package directory manages the customer-link directory: the admin-facing
// mapping from shareable public UUIDs to upstream POS customer IDs.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crawlingsloth/blvq-backend/internal/domain"
	"github.com/crawlingsloth/blvq-backend/pkg/ctxutil"
)

type linkRepo interface {
	Create(ctx context.Context, link domain.Link) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Link, error)
	GetByCustomerID(ctx context.Context, customerID int64) (domain.Link, error)
	List(ctx context.Context) ([]domain.Link, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service provides link directory operations.
type Service struct {
	links linkRepo
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a new directory service.
func NewService(log *slog.Logger, links linkRepo) *Service {
	return &Service{
		links: links,
		log:   log.With("service", "directory"),
		now:   time.Now,
	}
}

// CreateParams holds the admin-supplied fields for a new link. Name and phone
// are cached verbatim and only ever used as a last-resort balance fallback.
type CreateParams struct {
	CustomerID    int64
	CustomerName  *string
	CustomerPhone *string
}

// CreateLink creates a link for an upstream customer. Each customer can have
// at most one link; a second create returns domain.ErrAlreadyExists.
func (s *Service) CreateLink(ctx context.Context, params CreateParams) (domain.Link, error) {
	now := s.now().UTC()
	link := domain.Link{
		ID:            uuid.New(),
		PublicID:      uuid.New(),
		CustomerID:    params.CustomerID,
		CustomerName:  trimOrNil(params.CustomerName),
		CustomerPhone: trimOrNil(params.CustomerPhone),
		CreatedAt:     now,
		LastAccessed:  now,
	}
	if userID, ok := ctxutil.UserIDFromCtx(ctx); ok {
		link.CreatedBy = &userID
	}

	if err := link.Validate(); err != nil {
		return domain.Link{}, err
	}

	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			s.log.InfoContext(ctx, "duplicate link rejected",
				slog.Int64("customer_id", params.CustomerID))
		}
		return domain.Link{}, fmt.Errorf("create link: %w", err)
	}

	s.log.InfoContext(ctx, "link created",
		slog.Int64("customer_id", link.CustomerID),
		slog.String("public_id", link.PublicID.String()))
	return link, nil
}

// GetLink returns a link by primary key.
func (s *Service) GetLink(ctx context.Context, id uuid.UUID) (domain.Link, error) {
	return s.links.GetByID(ctx, id)
}

// GetLinkByCustomerID returns the link for an upstream customer, if any.
func (s *Service) GetLinkByCustomerID(ctx context.Context, customerID int64) (domain.Link, error) {
	return s.links.GetByCustomerID(ctx, customerID)
}

// ListLinks returns all links, newest first.
func (s *Service) ListLinks(ctx context.Context) ([]domain.Link, error) {
	return s.links.List(ctx)
}

// DeleteLink removes a link. The shared URL stops working immediately.
func (s *Service) DeleteLink(ctx context.Context, id uuid.UUID) error {
	if err := s.links.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	s.log.InfoContext(ctx, "link deleted", slog.String("link_id", id.String()))
	return nil
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
