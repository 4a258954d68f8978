package testhelper

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// uniqueCustomerID returns a random upstream customer ID. The range is wide
// enough that collisions across parallel tests are not a practical concern.
func uniqueCustomerID() int64 {
	return rand.Int64N(1_000_000_000) + 1_000
}

// SeedUser creates an admin account with a fixed bcrypt hash of "password".
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:       uuid.New(),
		Username: "admin-" + uniqueSuffix(),
		// bcrypt("password"), cost 10
		PasswordHash: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert: %v", err)
	}

	return user
}

// SeedLink creates a link for a fresh random customer ID.
func SeedLink(t *testing.T, pool *pgxpool.Pool, createdBy *uuid.UUID) domain.Link {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	name := "Customer " + uniqueSuffix()
	phone := "7770000"
	link := domain.Link{
		ID:            uuid.New(),
		PublicID:      uuid.New(),
		CustomerID:    uniqueCustomerID(),
		CustomerName:  &name,
		CustomerPhone: &phone,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		LastAccessed:  now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO customer_links (id, public_id, customer_id, customer_name, customer_phone,
		                             created_by, created_at, last_accessed, last_api_page)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		link.ID, link.PublicID, link.CustomerID, link.CustomerName, link.CustomerPhone,
		link.CreatedBy, link.CreatedAt, link.LastAccessed, link.LastAPIPage,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLink insert: %v", err)
	}

	return link
}

// SeedSnapshot creates a customer snapshot for a fresh random customer ID.
func SeedSnapshot(t *testing.T, pool *pgxpool.Pool, name string) domain.CustomerSnapshot {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	snap := domain.CustomerSnapshot{
		ID:               uniqueCustomerID(),
		Name:             name,
		Mobile:           "999" + uniqueSuffix()[:4],
		CreditLimit:      5000,
		TotalSpent:       1200.50,
		TotalOutstanding: 300.25,
		RawData:          []byte(`{"id": 1}`),
		SyncedAt:         now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO customers (id, name, mobile, email, address,
		                        credit_limit, total_spent, outstanding_balance, data, synced_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		snap.ID, snap.Name, snap.Mobile, snap.Email, snap.Address,
		snap.CreditLimit, snap.TotalSpent, snap.TotalOutstanding, snap.RawData, snap.SyncedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSnapshot insert: %v", err)
	}

	return snap
}
