package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one SKU of the inventory with its stock counter.
type Item struct {
	ID          string
	SKU         string
	Name        string
	Description string
	PictureURL  string
	Price       decimal.Decimal
	Stock       int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemView is the wire form of an Item.
// swagger:model ItemView
type ItemView struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PictureURL  string `json:"picture_url,omitempty"`
	// Price as a fixed 2-decimal string to avoid rounding errors
	Price     string    `json:"price" example:"10.00"`
	Stock     int       `json:"stock"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (it *Item) View() ItemView {
	return ItemView{
		ID:          it.ID,
		SKU:         it.SKU,
		Name:        it.Name,
		Description: it.Description,
		PictureURL:  it.PictureURL,
		Price:       it.Price.StringFixed(2),
		Stock:       it.Stock,
		Active:      it.Active,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

// CreateItemRequest payload of creation.
// swagger:model CreateItemRequest
type CreateItemRequest struct {
	SKU         string `json:"sku"         binding:"required" example:"SKU1"`
	Name        string `json:"name"        binding:"required" example:"Mechanical Keyboard"`
	Description string `json:"description" example:"RGB 60%"`
	PictureURL  string `json:"picture_url" example:"https://cdn.example.com/kb.png"`
	Price       string `json:"price"       binding:"required" example:"199.90"`
	Stock       int    `json:"stock"       binding:"gte=0" example:"10"`
	// defaults to true
	Active *bool `json:"active"`
}

// AdjustRequest adds Delta to the stock. Negative values debit.
// swagger:model AdjustRequest
type AdjustRequest struct {
	Delta int `json:"delta" binding:"required" example:"-2"`
}
