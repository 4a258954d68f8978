package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/crawlingsloth/blvq-backend/internal/domain"
	"github.com/crawlingsloth/blvq-backend/pkg/ctxutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// linkRepoMock implements linkRepo with overridable function fields.
type linkRepoMock struct {
	CreateFunc          func(ctx context.Context, link domain.Link) error
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (domain.Link, error)
	GetByCustomerIDFunc func(ctx context.Context, customerID int64) (domain.Link, error)
	ListFunc            func(ctx context.Context) ([]domain.Link, error)
	DeleteFunc          func(ctx context.Context, id uuid.UUID) error
}

func (m *linkRepoMock) Create(ctx context.Context, link domain.Link) error {
	return m.CreateFunc(ctx, link)
}

func (m *linkRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.Link, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *linkRepoMock) GetByCustomerID(ctx context.Context, customerID int64) (domain.Link, error) {
	return m.GetByCustomerIDFunc(ctx, customerID)
}

func (m *linkRepoMock) List(ctx context.Context) ([]domain.Link, error) {
	return m.ListFunc(ctx)
}

func (m *linkRepoMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

func strPtr(s string) *string { return &s }

func TestCreateLink_Success(t *testing.T) {
	t.Parallel()

	var created domain.Link
	mock := &linkRepoMock{
		CreateFunc: func(ctx context.Context, link domain.Link) error {
			created = link
			return nil
		},
	}
	svc := NewService(discardLogger(), mock)

	adminID := uuid.New()
	ctx := ctxutil.WithUser(context.Background(), adminID, "admin")

	link, err := svc.CreateLink(ctx, CreateParams{
		CustomerID:    482,
		CustomerName:  strPtr("  Aishath  "),
		CustomerPhone: strPtr("7771234"),
	})
	if err != nil {
		t.Fatalf("CreateLink: unexpected error: %v", err)
	}

	if link.ID == uuid.Nil || link.PublicID == uuid.Nil {
		t.Error("link IDs must be generated")
	}
	if link.ID == link.PublicID {
		t.Error("internal ID and public ID must differ")
	}
	if created.CustomerID != 482 {
		t.Errorf("CustomerID: got %d, want 482", created.CustomerID)
	}
	if created.CustomerName == nil || *created.CustomerName != "Aishath" {
		t.Errorf("CustomerName should be trimmed, got %v", created.CustomerName)
	}
	if created.CreatedBy == nil || *created.CreatedBy != adminID {
		t.Errorf("CreatedBy: got %v, want %s", created.CreatedBy, adminID)
	}
	if created.LastAPIPage != nil {
		t.Errorf("a new link must start without a page hint, got %v", created.LastAPIPage)
	}
}

func TestCreateLink_InvalidCustomerID(t *testing.T) {
	t.Parallel()

	mock := &linkRepoMock{
		CreateFunc: func(ctx context.Context, link domain.Link) error {
			t.Fatal("Create must not be called for invalid input")
			return nil
		},
	}
	svc := NewService(discardLogger(), mock)

	_, err := svc.CreateLink(context.Background(), CreateParams{CustomerID: 0})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateLink_DuplicateCustomer(t *testing.T) {
	t.Parallel()

	mock := &linkRepoMock{
		CreateFunc: func(ctx context.Context, link domain.Link) error {
			return domain.ErrAlreadyExists
		},
	}
	svc := NewService(discardLogger(), mock)

	_, err := svc.CreateLink(context.Background(), CreateParams{CustomerID: 482})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateLink_EmptyNameBecomesNil(t *testing.T) {
	t.Parallel()

	var created domain.Link
	mock := &linkRepoMock{
		CreateFunc: func(ctx context.Context, link domain.Link) error {
			created = link
			return nil
		},
	}
	svc := NewService(discardLogger(), mock)

	_, err := svc.CreateLink(context.Background(), CreateParams{
		CustomerID:   482,
		CustomerName: strPtr("   "),
	})
	if err != nil {
		t.Fatalf("CreateLink: unexpected error: %v", err)
	}
	if created.CustomerName != nil {
		t.Errorf("blank name should be stored as nil, got %v", created.CustomerName)
	}
}

func TestDeleteLink_NotFound(t *testing.T) {
	t.Parallel()

	mock := &linkRepoMock{
		DeleteFunc: func(ctx context.Context, id uuid.UUID) error {
			return domain.ErrNotFound
		},
	}
	svc := NewService(discardLogger(), mock)

	err := svc.DeleteLink(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListLinks_PassesThrough(t *testing.T) {
	t.Parallel()

	want := []domain.Link{{ID: uuid.New()}, {ID: uuid.New()}}
	mock := &linkRepoMock{
		ListFunc: func(ctx context.Context) ([]domain.Link, error) {
			return want, nil
		},
	}
	svc := NewService(discardLogger(), mock)

	got, err := svc.ListLinks(context.Background())
	if err != nil {
		t.Fatalf("ListLinks: unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != want[0].ID {
		t.Errorf("ListLinks mismatch: got %v", got)
	}
}
