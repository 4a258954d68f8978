package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/crawlingsloth/blvq-backend/internal/service/balance"
)

type balanceService interface {
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (balance.View, error)
}

// BalanceHandler serves the public, unauthenticated balance endpoint behind
// shared links.
type BalanceHandler struct {
	svc balanceService
	log *slog.Logger
}

// NewBalanceHandler creates a BalanceHandler.
func NewBalanceHandler(svc balanceService, logger *slog.Logger) *BalanceHandler {
	return &BalanceHandler{svc: svc, log: logger.With("handler", "balance")}
}

type balanceResponse struct {
	CustomerName     string     `json:"customerName"`
	Mobile           string     `json:"mobile,omitempty"`
	CreditLimit      float64    `json:"creditLimit"`
	TotalSpent       float64    `json:"totalSpent"`
	TotalOutstanding float64    `json:"totalOutstanding"`
	HasBalance       bool       `json:"hasBalance"`
	Source           string     `json:"source"`
	AsOf             *time.Time `json:"asOf,omitempty"`
}

// Get handles GET /api/customer/{uuid}.
//
// The response deliberately omits the upstream customer ID and anything else
// not needed to render the balance page: the public UUID is the only handle
// a customer ever sees.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	publicID, err := uuid.Parse(r.PathValue("uuid"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	view, err := h.svc.GetByPublicID(r.Context(), publicID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		CustomerName:     view.Customer.Name,
		Mobile:           view.Customer.Mobile,
		CreditLimit:      view.Customer.CreditLimit,
		TotalSpent:       view.Customer.TotalSpent,
		TotalOutstanding: view.Customer.TotalOutstanding,
		HasBalance:       view.HasBalance,
		Source:           string(view.Source),
		AsOf:             view.AsOf,
	})
}
