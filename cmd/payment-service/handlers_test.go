package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/auth"
	ord "github.com/MikeMC777/ordenes-saga/internal/order"
	pay "github.com/MikeMC777/ordenes-saga/internal/payment"
)

//
// ---------- STUBS & FAKES ----------
//

const testSecret = "payment-test-secret-0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeOrders holds one order and applies the transitions payment asks for.
type fakeOrders struct {
	view ord.View
}

func (f *fakeOrders) Get(_ context.Context, id string) (ord.View, error) {
	if id != f.view.ID {
		return ord.View{}, apperr.NotFound("order %s not found", id)
	}
	return f.view, nil
}

func (f *fakeOrders) Confirm(_ context.Context, _ string) (ord.View, error) {
	f.view.Status = ord.StatusConfirmed
	return f.view, nil
}

func (f *fakeOrders) Cancel(_ context.Context, _ string) (ord.View, error) {
	f.view.Status = ord.StatusCanceled
	return f.view, nil
}

func newRouter(t *testing.T, total string) (*gin.Engine, *fakeOrders, string) {
	t.Helper()
	repo, err := pay.OpenSQL(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	orders := &fakeOrders{view: ord.View{ID: "o-1", AccountID: "acc-1", Status: ord.StatusPending, Total: total}}
	jwt := auth.NewJWTService(testSecret, time.Hour)
	tok, _, err := jwt.Issue("acc-1", "alice", []string{"USER"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := gin.New()
	registerRoutes(r, pay.NewService(repo, orders), jwt)
	return r, orders, tok
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

//
// ---------- TESTS ----------
//

func TestPay_CapturedConfirmsOrder(t *testing.T) {
	t.Parallel()
	r, orders, tok := newRouter(t, "20.00")

	w := do(r, http.MethodPost, "/payments", tok, `{"order_id":"o-1","amount":"20.00"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var v pay.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if v.Status != pay.StatusCaptured || v.Amount != "20.00" || v.ProviderTxnRef == "" {
		t.Fatalf("unexpected payment: %+v", v)
	}
	if orders.view.Status != ord.StatusConfirmed {
		t.Fatalf("order status=%s", orders.view.Status)
	}

	// GET /payments/:id
	w = do(r, http.MethodGet, "/payments/"+v.ID, tok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestPay_DeclinedIsStill201(t *testing.T) {
	t.Parallel()
	r, orders, tok := newRouter(t, "7.00")

	// amount as a JSON number
	w := do(r, http.MethodPost, "/payments", tok, `{"order_id":"o-1","amount":7}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var v pay.View
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if v.Status != pay.StatusFailed || v.ProviderTxnRef != "" {
		t.Fatalf("unexpected payment: %+v", v)
	}
	if orders.view.Status != ord.StatusCanceled {
		t.Fatalf("order status=%s", orders.view.Status)
	}
}

func TestPay_Rejections(t *testing.T) {
	t.Parallel()
	r, orders, tok := newRouter(t, "20.00")

	cases := map[string]string{
		"mismatch":      `{"order_id":"o-1","amount":"19.99"}`,
		"unknown order": `{"order_id":"o-404","amount":"20.00"}`,
		"no order id":   `{"amount":"20.00"}`,
		"bad amount":    `{"order_id":"o-1","amount":"twenty"}`,
	}
	for name, body := range cases {
		w := do(r, http.MethodPost, "/payments", tok, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body=%s", name, w.Code, w.Body.String())
		}
	}
	if orders.view.Status != ord.StatusPending {
		t.Fatalf("order must stay pending, got %s", orders.view.Status)
	}
}

func TestGetPayment_NotFoundAndAuth(t *testing.T) {
	t.Parallel()
	r, _, tok := newRouter(t, "1.00")

	w := do(r, http.MethodGet, "/payments/missing", tok, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	w = do(r, http.MethodGet, "/payments/missing", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
