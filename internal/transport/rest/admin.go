package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/crawlingsloth/blvq-backend/internal/domain"
	"github.com/crawlingsloth/blvq-backend/internal/service/catalog"
	"github.com/crawlingsloth/blvq-backend/internal/service/directory"
	"github.com/crawlingsloth/blvq-backend/pkg/ctxutil"
)

type directoryService interface {
	CreateLink(ctx context.Context, params directory.CreateParams) (domain.Link, error)
	ListLinks(ctx context.Context) ([]domain.Link, error)
	DeleteLink(ctx context.Context, id uuid.UUID) error
}

type catalogService interface {
	Browse(ctx context.Context, page int) (*domain.CustomerPage, error)
	Search(ctx context.Context, query string, page, pageSize int) (catalog.SearchPage, error)
	Sync(ctx context.Context) (catalog.SyncResult, error)
}

// AdminHandler serves the admin console REST endpoints.
type AdminHandler struct {
	directory directoryService
	catalog   catalogService
	log       *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(directory directoryService, catalog catalogService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		directory: directory,
		catalog:   catalog,
		log:       logger.With("handler", "admin"),
	}
}

type customerResponse struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Mobile           string  `json:"mobile"`
	Email            *string `json:"email,omitempty"`
	Address          *string `json:"address,omitempty"`
	CreditLimit      float64 `json:"creditLimit"`
	TotalSpent       float64 `json:"totalSpent"`
	TotalOutstanding float64 `json:"totalOutstanding"`
}

type customerPageResponse struct {
	Customers []customerResponse `json:"customers"`
	Total     int                `json:"total"`
	LastPage  int                `json:"lastPage"`
	Page      int                `json:"page"`
	PageSize  int                `json:"pageSize"`
}

type linkResponse struct {
	ID            string    `json:"id"`
	PublicID      string    `json:"publicId"`
	CustomerID    int64     `json:"customerId"`
	CustomerName  *string   `json:"customerName,omitempty"`
	CustomerPhone *string   `json:"customerPhone,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	LastAccessed  time.Time `json:"lastAccessed"`
}

type createLinkRequest struct {
	CustomerID    int64   `json:"customerId"`
	CustomerName  *string `json:"customerName"`
	CustomerPhone *string `json:"customerPhone"`
}

// ListCustomers handles GET /api/admin/customers/all?page=N (live upstream listing).
func (h *AdminHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)

	result, err := h.catalog.Browse(r.Context(), page)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := customerPageResponse{
		Customers: make([]customerResponse, 0, len(result.Customers)),
		Total:     result.Pagination.Total,
		LastPage:  result.Pagination.LastPage,
		Page:      result.Pagination.Page,
		PageSize:  result.Pagination.PageSize,
	}
	for i := range result.Customers {
		resp.Customers = append(resp.Customers, toCustomerResponse(&result.Customers[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SearchCustomers handles GET /api/admin/customers/search?q=...&page=N.
// Searches the locally synced snapshots, not the upstream.
func (h *AdminHandler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	result, err := h.catalog.Search(r.Context(), query, page, pageSize)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := customerPageResponse{
		Customers: make([]customerResponse, 0, len(result.Customers)),
		Total:     result.Total,
		Page:      result.Page,
		PageSize:  result.PageSize,
	}
	for i := range result.Customers {
		resp.Customers = append(resp.Customers, toCustomerResponse(&result.Customers[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SyncCustomers handles POST /api/admin/customers/sync.
func (h *AdminHandler) SyncCustomers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	result, err := h.catalog.Sync(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pages":     result.Pages,
		"customers": result.Customers,
		"removed":   result.Removed,
		"duration":  result.Duration.String(),
	})
}

// ListLinks handles GET /api/admin/customers/links.
func (h *AdminHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.directory.ListLinks(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := make([]linkResponse, 0, len(links))
	for i := range links {
		resp = append(resp, toLinkResponse(&links[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateLink handles POST /api/admin/customers/link.
func (h *AdminHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.directory.CreateLink(r.Context(), directory.CreateParams{
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLinkResponse(&link))
}

// DeleteLink handles DELETE /api/admin/customers/link/{id}.
func (h *AdminHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid link id")
		return
	}

	if err := h.directory.DeleteLink(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !ctxutil.IsAdminCtx(r.Context()) {
		writeError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func toCustomerResponse(c *domain.Customer) customerResponse {
	return customerResponse{
		ID:               c.ID,
		Name:             c.Name,
		Mobile:           c.Mobile,
		Email:            c.Email,
		Address:          c.Address,
		CreditLimit:      c.CreditLimit,
		TotalSpent:       c.TotalSpent,
		TotalOutstanding: c.TotalOutstanding,
	}
}

func toLinkResponse(l *domain.Link) linkResponse {
	return linkResponse{
		ID:            l.ID.String(),
		PublicID:      l.PublicID.String(),
		CustomerID:    l.CustomerID,
		CustomerName:  l.CustomerName,
		CustomerPhone: l.CustomerPhone,
		CreatedAt:     l.CreatedAt,
		LastAccessed:  l.LastAccessed,
	}
}
