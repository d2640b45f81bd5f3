package order

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/httpx"
)

// StockItem is what the orchestrator needs to know about an item.
type StockItem struct {
	ID         string
	SKU        string
	Name       string
	PictureURL string
	Price      decimal.Decimal
	Stock      int
	Active     bool
}

// Inventory is the stock ledger as seen from the order side.
type Inventory interface {
	GetBySKU(ctx context.Context, sku string) (*StockItem, error)
	// Adjust adds delta to the item's stock; negative debits. The ledger
	// refuses to go below zero with INVALID_STATE.
	Adjust(ctx context.Context, itemID string, delta int) error
}

type itemDTO struct {
	ID         string `json:"id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	PictureURL string `json:"picture_url"`
	Price      string `json:"price"`
	Stock      int    `json:"stock"`
	Active     bool   `json:"active"`
}

// InventoryClient talks to product-service.
type InventoryClient struct {
	c *httpx.Client
}

func NewInventoryClient(c *httpx.Client) *InventoryClient {
	return &InventoryClient{c: c}
}

func (ic *InventoryClient) GetBySKU(ctx context.Context, sku string) (*StockItem, error) {
	var p itemDTO
	if err := ic.c.Do(ctx, "get_item_by_sku", http.MethodGet, "/items/sku/"+url.PathEscape(sku), nil, &p); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, fmt.Sprintf("invalid price for %s", sku))
	}
	return &StockItem{
		ID:         p.ID,
		SKU:        p.SKU,
		Name:       p.Name,
		PictureURL: p.PictureURL,
		Price:      price,
		Stock:      p.Stock,
		Active:     p.Active,
	}, nil
}

func (ic *InventoryClient) Adjust(ctx context.Context, itemID string, delta int) error {
	body := map[string]int{"delta": delta}
	return ic.c.Do(ctx, "adjust_stock", http.MethodPost, "/items/"+url.PathEscape(itemID)+"/inventory/adjust", body, nil)
}
