package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusCaptured  Status = "CAPTURED"
	StatusFailed    Status = "FAILED"
)

// Payment is one attempt to pay an order. ProviderTxnRef is set only when
// the attempt was captured.
type Payment struct {
	ID             string
	OrderID        string
	Amount         decimal.Decimal
	Status         Status
	ProviderTxnRef string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PayRequest payload of a pay attempt. Amount accepts a JSON number or string.
// swagger:model PayRequest
type PayRequest struct {
	OrderID string          `json:"order_id" binding:"required" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Amount  decimal.Decimal `json:"amount" swaggertype:"string" example:"20.00"`
}

// View
// swagger:model PaymentView
type View struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	Status         Status    `json:"status" example:"CAPTURED"`
	Amount         string    `json:"amount" example:"20.00"`
	ProviderTxnRef string    `json:"provider_txn_ref,omitempty" example:"txn_01J9Z3K6Q4X5V7B8N9M0P1R2S3"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (p *Payment) View() View {
	return View{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Status:         p.Status,
		Amount:         p.Amount.StringFixed(2),
		ProviderTxnRef: p.ProviderTxnRef,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
