// Package link implements the customer-link repository using PostgreSQL.
// Queries are built with squirrel and executed through the shared Querier,
// so they participate in a surrounding transaction when one is in context.
package link

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crawlingsloth/blvq-backend/internal/adapter/postgres"
	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var linkColumns = []string{
	"id", "public_id", "customer_id", "customer_name", "customer_phone",
	"created_by", "created_at", "last_accessed", "last_api_page",
}

// Repo provides link persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new link repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new link. A second link for the same POS customer violates
// the customer_id unique constraint and surfaces as domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, link domain.Link) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Insert("customer_links").
		Columns(linkColumns...).
		Values(link.ID, link.PublicID, link.CustomerID, link.CustomerName, link.CustomerPhone,
			link.CreatedBy, link.CreatedAt, link.LastAccessed, link.LastAPIPage).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert link: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "link", link.CustomerID)
	}
	return nil
}

// GetByPublicID returns the link behind a shared URL.
func (r *Repo) GetByPublicID(ctx context.Context, publicID uuid.UUID) (domain.Link, error) {
	return r.getBy(ctx, sq.Eq{"public_id": publicID}, publicID)
}

// GetByCustomerID returns the link for an upstream POS customer ID.
func (r *Repo) GetByCustomerID(ctx context.Context, customerID int64) (domain.Link, error) {
	return r.getBy(ctx, sq.Eq{"customer_id": customerID}, customerID)
}

// GetByID returns a link by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Link, error) {
	return r.getBy(ctx, sq.Eq{"id": id}, id)
}

func (r *Repo) getBy(ctx context.Context, where sq.Eq, key any) (domain.Link, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Select(linkColumns...).
		From("customer_links").
		Where(where).
		ToSql()
	if err != nil {
		return domain.Link{}, fmt.Errorf("build select link: %w", err)
	}

	link, err := scanLink(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.Link{}, postgres.MapError(err, "link", key)
	}
	return link, nil
}

// List returns all links, newest first.
func (r *Repo) List(ctx context.Context) ([]domain.Link, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Select(linkColumns...).
		From("customer_links").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list links: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "link", "list")
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, postgres.MapError(err, "link", "list")
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// Delete removes a link by primary key.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Delete("customer_links").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete link: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "link", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "link", id)
	}
	return nil
}

// TouchAccess stamps the link's last_accessed time. Missing links are not an
// error: the link may have been deleted between lookup and touch.
func (r *Repo) TouchAccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Update("customer_links").
		Set("last_accessed", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch link: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "link", id)
	}
	return nil
}

// UpdatePageHint persists the upstream page the customer was last found on.
// Last write wins; concurrent updates are harmless because the hint is advisory.
func (r *Repo) UpdatePageHint(ctx context.Context, id uuid.UUID, page int) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Update("customer_links").
		Set("last_api_page", page).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update page hint: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "link", id)
	}
	return nil
}

func scanLink(row pgx.Row) (domain.Link, error) {
	var l domain.Link
	err := row.Scan(
		&l.ID, &l.PublicID, &l.CustomerID, &l.CustomerName, &l.CustomerPhone,
		&l.CreatedBy, &l.CreatedAt, &l.LastAccessed, &l.LastAPIPage,
	)
	return l, err
}
