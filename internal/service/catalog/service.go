// Package catalog serves the admin customer directory: paged browsing of the
// live upstream listing, local search over synced snapshots, and the sync
// pass that keeps those snapshots fresh.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crawlingsloth/blvq-backend/internal/cache"
	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

type pageLister interface {
	ListCustomers(ctx context.Context, page int) (*domain.CustomerPage, error)
}

type snapshotRepo interface {
	Upsert(ctx context.Context, snap domain.CustomerSnapshot) error
	Search(ctx context.Context, query string, page, pageSize int) ([]domain.CustomerSnapshot, int, error)
	Count(ctx context.Context) (int, error)
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// SearchPage is one page of snapshot search results.
type SearchPage struct {
	Customers []domain.Customer
	Total     int
	Page      int
	PageSize  int
}

// SyncResult summarizes one sync pass.
type SyncResult struct {
	Pages     int
	Customers int
	Removed   int64
	Duration  time.Duration
}

// Service provides catalog browsing, search, and sync.
type Service struct {
	upstream  pageLister
	snapshots snapshotRepo
	pages     *cache.Cache[*domain.CustomerPage]
	searches  *cache.Cache[SearchPage]
	workers   int
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates a new catalog service. ttl controls how long browse and
// search responses are memoized; workers bounds sync concurrency.
func NewService(log *slog.Logger, upstream pageLister, snapshots snapshotRepo, ttl time.Duration, workers int) *Service {
	return &Service{
		upstream:  upstream,
		snapshots: snapshots,
		pages:     cache.New[*domain.CustomerPage](ttl),
		searches:  cache.New[SearchPage](ttl),
		workers:   workers,
		log:       log.With("service", "catalog"),
		now:       time.Now,
	}
}

// Browse returns one page of the live upstream listing. Responses are
// memoized per page for the cache TTL, so repeated admin browsing within the
// freshness window costs one upstream call per page.
func (s *Service) Browse(ctx context.Context, page int) (*domain.CustomerPage, error) {
	if page < 1 {
		page = 1
	}

	key := "customers:page:" + strconv.Itoa(page)
	if cached, ok := s.pages.Get(key); ok {
		s.log.DebugContext(ctx, "browse cache hit", slog.Int("page", page))
		return cached, nil
	}

	result, err := s.upstream.ListCustomers(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("browse page %d: %w", page, err)
	}

	s.pages.Set(key, result)
	return result, nil
}

// Search looks up customers by name or mobile in the local snapshots. The
// upstream has no search endpoint, so results are only as fresh as the last
// sync pass. Responses are memoized per query and page.
func (s *Service) Search(ctx context.Context, query string, page, pageSize int) (SearchPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return SearchPage{}, domain.NewValidationError("q", "must be at least 2 characters")
	}

	key := "search:" + query + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(pageSize)
	if cached, ok := s.searches.Get(key); ok {
		s.log.DebugContext(ctx, "search cache hit", slog.String("query", query))
		return cached, nil
	}

	snaps, total, err := s.snapshots.Search(ctx, query, page, pageSize)
	if err != nil {
		return SearchPage{}, fmt.Errorf("search %q: %w", query, err)
	}

	result := SearchPage{
		Customers: make([]domain.Customer, 0, len(snaps)),
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	}
	for i := range snaps {
		result.Customers = append(result.Customers, snaps[i].Customer())
	}

	s.searches.Set(key, result)
	return result, nil
}

// Sync walks the full upstream listing and rewrites the local snapshots.
// Page 1 is fetched alone to learn the page count, then the remaining pages
// are fetched and stored by a bounded worker group. Any page failure aborts
// the pass; snapshots already written stay (they are upserts, not partial
// state). Snapshots not refreshed by the pass are removed afterwards.
func (s *Service) Sync(ctx context.Context) (SyncResult, error) {
	start := s.now().UTC()

	first, err := s.upstream.ListCustomers(ctx, 1)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync: %w", err)
	}

	count := len(first.Customers)
	if err := s.storePage(ctx, first, start); err != nil {
		return SyncResult{}, fmt.Errorf("sync: %w", err)
	}

	lastPage := first.Pagination.LastPage
	if lastPage < 1 {
		lastPage = 1
	}

	var stored atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for p := 2; p <= lastPage; p++ {
		g.Go(func() error {
			page, err := s.upstream.ListCustomers(gctx, p)
			if err != nil {
				return err
			}
			if err := s.storePage(gctx, page, start); err != nil {
				return err
			}
			stored.Add(int64(len(page.Customers)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SyncResult{}, fmt.Errorf("sync: %w", err)
	}
	count += int(stored.Load())

	removed, err := s.snapshots.DeleteStale(ctx, start)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync: prune stale: %w", err)
	}

	// Memoized listings may now disagree with the snapshots.
	s.pages.Clear()
	s.searches.Clear()

	result := SyncResult{
		Pages:     lastPage,
		Customers: count,
		Removed:   removed,
		Duration:  s.now().UTC().Sub(start),
	}
	s.log.InfoContext(ctx, "sync complete",
		slog.Int("pages", result.Pages),
		slog.Int("customers", result.Customers),
		slog.Int64("removed", result.Removed),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// SnapshotCount returns the number of locally stored snapshots.
func (s *Service) SnapshotCount(ctx context.Context) (int, error) {
	return s.snapshots.Count(ctx)
}

func (s *Service) storePage(ctx context.Context, page *domain.CustomerPage, syncedAt time.Time) error {
	for i := range page.Customers {
		c := &page.Customers[i]
		raw, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal customer %d: %w", c.ID, err)
		}
		snap := domain.CustomerSnapshot{
			ID:               c.ID,
			Name:             c.Name,
			Mobile:           c.Mobile,
			Email:            c.Email,
			Address:          c.Address,
			CreditLimit:      c.CreditLimit,
			TotalSpent:       c.TotalSpent,
			TotalOutstanding: c.TotalOutstanding,
			RawData:          raw,
			SyncedAt:         syncedAt,
		}
		if err := s.snapshots.Upsert(ctx, snap); err != nil {
			return err
		}
	}
	return nil
}
