// Package user implements the admin-account repository using PostgreSQL.
package user

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crawlingsloth/blvq-backend/internal/adapter/postgres"
	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{"id", "username", "password_hash", "role", "created_at"}

// Repo provides admin-account persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new user repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new account. A duplicate username surfaces as
// domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, u domain.User) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Username, u.PasswordHash, u.Role, u.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "user", u.Username)
	}
	return nil
}

// GetByUsername returns an account by its unique username.
func (r *Repo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getBy(ctx, sq.Eq{"username": username}, username)
}

// GetByID returns an account by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return r.getBy(ctx, sq.Eq{"id": id}, id)
}

func (r *Repo) getBy(ctx context.Context, where sq.Eq, key any) (domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Select(userColumns...).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("build select user: %w", err)
	}

	var u domain.User
	err = q.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return domain.User{}, postgres.MapError(err, "user", key)
	}
	return u, nil
}
