package ewity

import "github.com/crawlingsloth/blvq-backend/internal/domain"

// apiResponse is the envelope the POS API wraps every listing in.
type apiResponse struct {
	Data       []apiCustomer `json:"data"`
	Pagination apiPagination `json:"pagination"`
}

// apiCustomer is a single customer record as returned by the POS API.
type apiCustomer struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Mobile           string  `json:"mobile"`
	Email            *string `json:"email"`
	Address          *string `json:"address"`
	CreditLimit      float64 `json:"credit_limit"`
	TotalSpent       float64 `json:"total_spent"`
	TotalOutstanding float64 `json:"total_outstanding"`
	LoyaltyText      *string `json:"loyalty_text"`
}

// apiPagination is the paging metadata attached to every listing response.
type apiPagination struct {
	Total    int `json:"total"`
	LastPage int `json:"lastPage"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func (r apiResponse) toDomain() *domain.CustomerPage {
	page := &domain.CustomerPage{
		Customers: make([]domain.Customer, 0, len(r.Data)),
		Pagination: domain.Pagination{
			Total:    r.Pagination.Total,
			LastPage: r.Pagination.LastPage,
			Page:     r.Pagination.Page,
			PageSize: r.Pagination.PageSize,
		},
	}
	for _, c := range r.Data {
		page.Customers = append(page.Customers, domain.Customer{
			ID:               c.ID,
			Name:             c.Name,
			Mobile:           c.Mobile,
			Email:            c.Email,
			Address:          c.Address,
			CreditLimit:      c.CreditLimit,
			TotalSpent:       c.TotalSpent,
			TotalOutstanding: c.TotalOutstanding,
			LoyaltyText:      c.LoyaltyText,
		})
	}
	return page
}
