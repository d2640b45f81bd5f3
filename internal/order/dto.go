package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineRequest payload of one requested item.
// swagger:model LineRequest
type LineRequest struct {
	SKU      string `json:"sku"      example:"SKU1"`
	Quantity int    `json:"quantity" example:"2"`
}

// CreateOrderRequest payload of order creation.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	AccountID string        `json:"account_id" binding:"required" example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	Items     []LineRequest `json:"items"`
}

// LineView
// swagger:model LineView
type LineView struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	PictureRef string `json:"picture_ref,omitempty"`
	UnitPrice  string `json:"unit_price" example:"10.00"`
	LineTotal  string `json:"line_total" example:"20.00"`
	Quantity   int    `json:"quantity"`
}

// View is what the order surface returns to every caller.
// swagger:model OrderView
type View struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	Status    Status     `json:"status" example:"PENDING"`
	Total     string     `json:"total" example:"20.00"`
	CreatedAt time.Time  `json:"created_at"`
	Lines     []LineView `json:"lines"`
}

func (o *Order) View() View {
	lines := make([]LineView, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, LineView{
			SKU:        l.SKU,
			Name:       l.Name,
			PictureRef: l.PictureURL,
			UnitPrice:  l.UnitPrice.StringFixed(2),
			LineTotal:  l.LineTotal.StringFixed(2),
			Quantity:   l.Quantity,
		})
	}
	return View{
		ID:        o.ID,
		AccountID: o.AccountID,
		Status:    o.Status,
		Total:     o.Total.StringFixed(2),
		CreatedAt: o.CreatedAt,
		Lines:     lines,
	}
}

// TotalAmount parses the total back into a decimal.
func (v View) TotalAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(v.Total)
}
