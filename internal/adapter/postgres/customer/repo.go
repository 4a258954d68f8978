// Package customer implements the local customer-snapshot repository using
// PostgreSQL. Snapshots are written by the directory sync and read as a
// fallback when the upstream POS API is unreachable.
package customer

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crawlingsloth/blvq-backend/internal/adapter/postgres"
	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var snapshotColumns = []string{
	"id", "name", "mobile", "email", "address",
	"credit_limit", "total_spent", "outstanding_balance", "data", "synced_at",
}

// Repo provides customer-snapshot persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new customer-snapshot repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Upsert writes a snapshot, replacing any existing row for the same upstream
// customer ID. Sync runs call this once per customer per pass.
func (r *Repo) Upsert(ctx context.Context, snap domain.CustomerSnapshot) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Insert("customers").
		Columns(snapshotColumns...).
		Values(snap.ID, snap.Name, snap.Mobile, snap.Email, snap.Address,
			snap.CreditLimit, snap.TotalSpent, snap.TotalOutstanding, snap.RawData, snap.SyncedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			mobile = EXCLUDED.mobile,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			credit_limit = EXCLUDED.credit_limit,
			total_spent = EXCLUDED.total_spent,
			outstanding_balance = EXCLUDED.outstanding_balance,
			data = EXCLUDED.data,
			synced_at = EXCLUDED.synced_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert snapshot: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "customer snapshot", snap.ID)
	}
	return nil
}

// GetByID returns the snapshot for an upstream customer ID.
func (r *Repo) GetByID(ctx context.Context, id int64) (domain.CustomerSnapshot, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Select(snapshotColumns...).
		From("customers").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.CustomerSnapshot{}, fmt.Errorf("build select snapshot: %w", err)
	}

	snap, err := scanSnapshot(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.CustomerSnapshot{}, postgres.MapError(err, "customer snapshot", id)
	}
	return snap, nil
}

// Search returns snapshots whose name or mobile matches the query,
// case-insensitively, paged and ordered by name. The second return value is
// the total match count across all pages.
func (r *Repo) Search(ctx context.Context, query string, page, pageSize int) ([]domain.CustomerSnapshot, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	pattern := "%" + query + "%"
	match := sq.Or{
		sq.ILike{"name": pattern},
		sq.ILike{"mobile": pattern},
	}

	countSQL, countArgs, err := qb.Select("count(*)").
		From("customers").
		Where(match).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count snapshots: %w", err)
	}

	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, postgres.MapError(err, "customer snapshot", query)
	}

	sql, args, err := qb.Select(snapshotColumns...).
		From("customers").
		Where(match).
		OrderBy("name ASC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build search snapshots: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, postgres.MapError(err, "customer snapshot", query)
	}
	defer rows.Close()

	var snaps []domain.CustomerSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, 0, postgres.MapError(err, "customer snapshot", query)
		}
		snaps = append(snaps, snap)
	}
	return snaps, total, rows.Err()
}

// Count returns the number of stored snapshots.
func (r *Repo) Count(ctx context.Context) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, "SELECT count(*) FROM customers").Scan(&total); err != nil {
		return 0, postgres.MapError(err, "customer snapshot", "count")
	}
	return total, nil
}

// DeleteStale removes snapshots not refreshed since the cutoff. Customers
// deleted upstream stop being re-synced and age out this way.
func (r *Repo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := qb.Delete("customers").
		Where(sq.Lt{"synced_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete stale snapshots: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "customer snapshot", "stale")
	}
	return tag.RowsAffected(), nil
}

func scanSnapshot(row pgx.Row) (domain.CustomerSnapshot, error) {
	var s domain.CustomerSnapshot
	err := row.Scan(
		&s.ID, &s.Name, &s.Mobile, &s.Email, &s.Address,
		&s.CreditLimit, &s.TotalSpent, &s.TotalOutstanding, &s.RawData, &s.SyncedAt,
	)
	return s, err
}
