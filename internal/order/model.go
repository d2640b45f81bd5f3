package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCanceled  Status = "CANCELED"
)

// Line is a priced snapshot of one requested item. It never changes after
// the order is stored.
type Line struct {
	ID         string
	ItemID     string
	SKU        string
	Name       string
	PictureURL string
	UnitPrice  decimal.Decimal
	Quantity   int
	LineTotal  decimal.Decimal
}

func NewLine(itemID, sku, name, pictureURL string, unitPrice decimal.Decimal, qty int) Line {
	return Line{
		ID:         uuid.NewString(),
		ItemID:     itemID,
		SKU:        sku,
		Name:       name,
		PictureURL: pictureURL,
		UnitPrice:  unitPrice,
		Quantity:   qty,
		LineTotal:  unitPrice.Mul(decimal.NewFromInt(int64(qty))),
	}
}

type Order struct {
	ID        string
	AccountID string
	Lines     []Line
	Total     decimal.Decimal
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	// Version is compared on every update; see Repository.Update.
	Version int
}

func New(accountID string, lines []Line, now time.Time) *Order {
	now = now.UTC()
	return &Order{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Lines:     lines,
		Total:     Total(lines),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Total is the exact sum of the line totals.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal)
	}
	return sum
}

// Confirm moves a pending order to CONFIRMED. It reports false, changing
// nothing, for any other status.
func (o *Order) Confirm() bool {
	if o.Status != StatusPending {
		return false
	}
	o.Status = StatusConfirmed
	return true
}

// Cancel moves a pending order to CANCELED. It reports false, changing
// nothing, for any other status.
func (o *Order) Cancel() bool {
	if o.Status != StatusPending {
		return false
	}
	o.Status = StatusCanceled
	return true
}

func (o *Order) Clone() *Order {
	cp := *o
	cp.Lines = append([]Line(nil), o.Lines...)
	return &cp
}
