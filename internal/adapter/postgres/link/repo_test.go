package link_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crawlingsloth/blvq-backend/internal/adapter/postgres/link"
	"github.com/crawlingsloth/blvq-backend/internal/adapter/postgres/testhelper"
	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

// newRepo sets up a test DB and returns a ready Repo + pool.
func newRepo(t *testing.T) (*link.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return link.New(pool), pool
}

func newLink(createdBy *uuid.UUID) domain.Link {
	now := time.Now().UTC().Truncate(time.Microsecond)
	name := "Aishath"
	phone := "7771234"
	return domain.Link{
		ID:            uuid.New(),
		PublicID:      uuid.New(),
		CustomerID:    rand.Int64N(1_000_000_000) + 1_000,
		CustomerName:  &name,
		CustomerPhone: &phone,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		LastAccessed:  now,
	}
}

func TestRepo_Create_AndGetByPublicID(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool)
	l := newLink(&user.ID)

	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	got, err := repo.GetByPublicID(ctx, l.PublicID)
	if err != nil {
		t.Fatalf("GetByPublicID: unexpected error: %v", err)
	}
	if got.ID != l.ID {
		t.Errorf("ID mismatch: got %s, want %s", got.ID, l.ID)
	}
	if got.CustomerID != l.CustomerID {
		t.Errorf("CustomerID mismatch: got %d, want %d", got.CustomerID, l.CustomerID)
	}
	if got.CustomerName == nil || *got.CustomerName != "Aishath" {
		t.Errorf("CustomerName mismatch: got %v", got.CustomerName)
	}
	if got.CreatedBy == nil || *got.CreatedBy != user.ID {
		t.Errorf("CreatedBy mismatch: got %v, want %s", got.CreatedBy, user.ID)
	}
	if got.LastAPIPage != nil {
		t.Errorf("LastAPIPage should start unset, got %v", got.LastAPIPage)
	}
}

func TestRepo_Create_DuplicateCustomerID(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	l := newLink(nil)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	dup := newLink(nil)
	dup.CustomerID = l.CustomerID

	err := repo.Create(ctx, dup)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for duplicate customer_id, got %v", err)
	}
}

func TestRepo_GetByCustomerID(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	l := newLink(nil)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	got, err := repo.GetByCustomerID(ctx, l.CustomerID)
	if err != nil {
		t.Fatalf("GetByCustomerID: unexpected error: %v", err)
	}
	if got.PublicID != l.PublicID {
		t.Errorf("PublicID mismatch: got %s, want %s", got.PublicID, l.PublicID)
	}
}

func TestRepo_GetByPublicID_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.GetByPublicID(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_List_NewestFirst(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	older := newLink(nil)
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	newer := newLink(nil)

	if err := repo.Create(ctx, older); err != nil {
		t.Fatalf("Create older: %v", err)
	}
	if err := repo.Create(ctx, newer); err != nil {
		t.Fatalf("Create newer: %v", err)
	}

	links, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: unexpected error: %v", err)
	}

	// The DB is shared between parallel tests, so assert relative order of
	// this test's rows instead of absolute positions.
	posOlder, posNewer := -1, -1
	for i, l := range links {
		switch l.ID {
		case older.ID:
			posOlder = i
		case newer.ID:
			posNewer = i
		}
	}
	if posOlder == -1 || posNewer == -1 {
		t.Fatalf("created links missing from List (older=%d newer=%d)", posOlder, posNewer)
	}
	if posNewer > posOlder {
		t.Errorf("newer link listed after older: newer=%d older=%d", posNewer, posOlder)
	}
}

func TestRepo_Delete(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	l := newLink(nil)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	if err := repo.Delete(ctx, l.ID); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}

	_, err := repo.GetByID(ctx, l.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRepo_Delete_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	err := repo.Delete(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_TouchAccess(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	l := newLink(nil)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	at := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	if err := repo.TouchAccess(ctx, l.ID, at); err != nil {
		t.Fatalf("TouchAccess: unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}
	if !got.LastAccessed.Equal(at) {
		t.Errorf("LastAccessed mismatch: got %s, want %s", got.LastAccessed, at)
	}
}

func TestRepo_TouchAccess_MissingLinkIsNotAnError(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	if err := repo.TouchAccess(context.Background(), uuid.New(), time.Now()); err != nil {
		t.Fatalf("TouchAccess on missing link: unexpected error: %v", err)
	}
}

func TestRepo_UpdatePageHint(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	l := newLink(nil)
	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	if err := repo.UpdatePageHint(ctx, l.ID, 7); err != nil {
		t.Fatalf("UpdatePageHint: unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}
	if got.LastAPIPage == nil || *got.LastAPIPage != 7 {
		t.Errorf("LastAPIPage mismatch: got %v, want 7", got.LastAPIPage)
	}

	// Last write wins.
	if err := repo.UpdatePageHint(ctx, l.ID, 9); err != nil {
		t.Fatalf("UpdatePageHint: unexpected error: %v", err)
	}
	got, err = repo.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}
	if got.LastAPIPage == nil || *got.LastAPIPage != 9 {
		t.Errorf("LastAPIPage mismatch after second write: got %v, want 9", got.LastAPIPage)
	}
}
