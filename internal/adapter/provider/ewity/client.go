// Package ewity implements the read-only client for the upstream POS API.
// The API only supports listing customers page by page: there is no
// fetch-by-id and no server-side search.
package ewity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/crawlingsloth/blvq-backend/internal/config"
	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

// Client fetches customer pages from the POS API with a static bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client from EwityConfig.
func NewClient(cfg config.EwityConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With("adapter", "ewity"),
	}
}

// NewClientWithURL creates a Client with an explicit base URL (for testing).
func NewClientWithURL(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "ewity"),
	}
}

// ListCustomers fetches one page of the customer listing. Page numbering
// starts at 1; the upstream controls the page size. Any transport failure,
// timeout, or non-2xx status is reported as domain.ErrUpstreamUnavailable.
func (c *Client) ListCustomers(ctx context.Context, page int) (*domain.CustomerPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	reqURL := c.baseURL + "/customers?" + q.Encode()

	c.log.DebugContext(ctx, "ewity request", slog.Int("page", page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ewity: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.doWithRetry(ctx, req, page)
	if err != nil {
		c.log.ErrorContext(ctx, "ewity request failed", slog.Int("page", page), slog.String("error", err.Error()))
		return nil, fmt.Errorf("ewity: page %d: %w: %w", page, domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ewity: page %d: %w: unexpected status %d", page, domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ewity: page %d: %w: read body: %w", page, domain.ErrUpstreamUnavailable, err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("ewity: page %d: %w: decode json: %w", page, domain.ErrUpstreamUnavailable, err)
	}

	result := decoded.toDomain()

	c.log.DebugContext(ctx, "ewity response",
		slog.Int("page", page),
		slog.Int("customers", len(result.Customers)),
		slog.Int("last_page", result.Pagination.LastPage),
	)

	return result, nil
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request, page int) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	// Don't retry if context is already cancelled.
	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	c.log.WarnContext(ctx, "ewity retry", slog.Int("page", page), slog.String("reason", reason))

	// Close body from the failed attempt before retrying.
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	time.Sleep(500 * time.Millisecond)

	resp, err = c.httpClient.Do(req)
	return resp, err
}
