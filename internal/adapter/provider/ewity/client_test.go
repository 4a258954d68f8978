package ewity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const pageBody = `{
	"data": [
		{"id": 482, "name": "Aishath", "mobile": "7771234", "email": "a@example.com",
		 "credit_limit": 5000, "total_spent": 1200.5, "total_outstanding": 300.25},
		{"id": 483, "name": "Hassan", "mobile": "9991234",
		 "credit_limit": 0, "total_spent": 80, "total_outstanding": 0}
	],
	"pagination": {"total": 260, "lastPage": 13, "page": 7, "pageSize": 20}
}`

func TestClient_ListCustomers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization header: got %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "7" {
			t.Errorf("page param: got %q, want 7", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, pageBody)
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "test-token", 5*time.Second, discardLogger())

	page, err := c.ListCustomers(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}

	if len(page.Customers) != 2 {
		t.Fatalf("customers: got %d, want 2", len(page.Customers))
	}
	first := page.Customers[0]
	if first.ID != 482 || first.Name != "Aishath" || first.TotalOutstanding != 300.25 {
		t.Errorf("first customer mismatch: %+v", first)
	}
	if first.Email == nil || *first.Email != "a@example.com" {
		t.Errorf("email mismatch: %v", first.Email)
	}
	if page.Customers[1].Email != nil {
		t.Errorf("absent email should map to nil, got %v", page.Customers[1].Email)
	}
	if page.Pagination.LastPage != 13 || page.Pagination.Page != 7 {
		t.Errorf("pagination mismatch: %+v", page.Pagination)
	}
}

func TestClient_RetriesOnServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, pageBody)
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "test-token", 5*time.Second, discardLogger())

	page, err := c.ListCustomers(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListCustomers after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls: got %d, want 2", calls.Load())
	}
	if len(page.Customers) != 2 {
		t.Errorf("customers: got %d, want 2", len(page.Customers))
	}
}

func TestClient_UpstreamUnavailableOnPersistentError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "test-token", 5*time.Second, discardLogger())

	_, err := c.ListCustomers(context.Background(), 3)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_UpstreamUnavailableOnAuthFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "bad-token", 5*time.Second, discardLogger())

	_, err := c.ListCustomers(context.Background(), 1)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_UpstreamUnavailableOnConnectionFailure(t *testing.T) {
	t.Parallel()

	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClientWithURL(srv.URL, "test-token", time.Second, discardLogger())

	_, err := c.ListCustomers(context.Background(), 1)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_UpstreamUnavailableOnBadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>not json</html>")
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "test-token", 5*time.Second, discardLogger())

	_, err := c.ListCustomers(context.Background(), 1)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
