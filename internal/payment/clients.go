package payment

import (
	"context"
	"net/http"
	"net/url"

	"github.com/MikeMC777/ordenes-saga/internal/httpx"
	"github.com/MikeMC777/ordenes-saga/internal/order"
)

// Orders is the order surface the payment side depends on. *order.Service
// satisfies it in process; OrderClient over HTTP.
type Orders interface {
	Get(ctx context.Context, id string) (order.View, error)
	Confirm(ctx context.Context, id string) (order.View, error)
	Cancel(ctx context.Context, id string) (order.View, error)
}

type OrderClient struct {
	c *httpx.Client
}

func NewOrderClient(c *httpx.Client) *OrderClient {
	return &OrderClient{c: c}
}

func (oc *OrderClient) Get(ctx context.Context, id string) (order.View, error) {
	var v order.View
	err := oc.c.Do(ctx, "get_order", http.MethodGet, "/orders/"+url.PathEscape(id), nil, &v)
	return v, err
}

func (oc *OrderClient) Confirm(ctx context.Context, id string) (order.View, error) {
	var v order.View
	err := oc.c.Do(ctx, "confirm_order", http.MethodPost, "/orders/"+url.PathEscape(id)+"/confirm", nil, &v)
	return v, err
}

func (oc *OrderClient) Cancel(ctx context.Context, id string) (order.View, error) {
	var v order.View
	err := oc.c.Do(ctx, "cancel_order", http.MethodPost, "/orders/"+url.PathEscape(id)+"/cancel", nil, &v)
	return v, err
}
