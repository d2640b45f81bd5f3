package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/auth"
	"github.com/MikeMC777/ordenes-saga/internal/httpx"
	ord "github.com/MikeMC777/ordenes-saga/internal/order"
	prod "github.com/MikeMC777/ordenes-saga/internal/product"
)

//
// ---------- STUBS & FAKES ----------
//

const testSecret = "order-test-secret-0123456789abcdefgh"

func init() {
	gin.SetMode(gin.TestMode)
}

// staticTokens is the machine credential the inventory client sends.
type staticTokens struct{}

func (staticTokens) Token(context.Context) (string, error) { return "svc-token", nil }
func (staticTokens) RefreshIfStale(context.Context, string) (string, error) {
	return "svc-token", nil
}

// productServer serves the two ledger endpoints over an in-memory repo.
type productServer struct {
	repo    *prod.MemoryRepo
	adjusts atomic.Int32
	down    atomic.Bool
}

func newProductServer(t *testing.T) (*httptest.Server, *productServer) {
	t.Helper()
	ps := &productServer{repo: prod.NewMemoryRepo()}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /items/sku/{sku}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer svc-token" {
			writeJSON(w, http.StatusUnauthorized, httpx.ErrorBody{Error: "UNAUTHENTICATED", Message: "missing bearer token"})
			return
		}
		it, err := ps.repo.GetBySKU(r.Context(), r.PathValue("sku"))
		if err != nil {
			writeErr(w, prod.Classify(err))
			return
		}
		writeJSON(w, http.StatusOK, it.View())
	})

	mux.HandleFunc("POST /items/{id}/inventory/adjust", func(w http.ResponseWriter, r *http.Request) {
		if ps.down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var body prod.AdjustRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Delta == 0 {
			writeJSON(w, http.StatusBadRequest, httpx.ErrorBody{Error: "INVALID_ARGUMENT", Message: "invalid delta"})
			return
		}
		ps.adjusts.Add(1)
		it, err := ps.repo.Adjust(r.Context(), r.PathValue("id"), body.Delta)
		if err != nil {
			writeErr(w, prod.Classify(err))
			return
		}
		writeJSON(w, http.StatusOK, it.View())
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, ps
}

func (ps *productServer) seed(t *testing.T, sku, price string, stock int, active bool) {
	t.Helper()
	err := ps.repo.Create(context.Background(), &prod.Item{
		SKU: sku, Name: "Item " + sku, Price: decimal.RequireFromString(price), Stock: stock, Active: active,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", sku, err)
	}
}

func (ps *productServer) stock(t *testing.T, sku string) int {
	t.Helper()
	it, err := ps.repo.GetBySKU(context.Background(), sku)
	if err != nil {
		t.Fatalf("stock %s: %v", sku, err)
	}
	return it.Stock
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	writeJSON(w, apperr.HTTPStatus(kind), httpx.ErrorBody{Error: string(kind), Message: apperr.Message(err)})
}

type fixture struct {
	router  *gin.Engine
	product *productServer
	user    string
	service string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	psrv, ps := newProductServer(t)

	client := httpx.NewClient("product", strings.TrimRight(psrv.URL, "/"), 2*time.Second, staticTokens{}, nil)
	svc := ord.NewService(ord.NewMemoryRepo(), ord.NewInventoryClient(client))

	jwt := auth.NewJWTService(testSecret, time.Hour)
	userTok, _, err := jwt.Issue("acc-1", "alice", []string{"USER"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	svcTok, _, err := jwt.Issue("acc-pay", "payment-bot", []string{"SERVICE"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := gin.New()
	registerRoutes(r, svc, jwt)
	return &fixture{router: r, product: ps, user: userTok, service: svcTok}
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) create(t *testing.T, body string) ord.View {
	t.Helper()
	w := f.do(http.MethodPost, "/orders", f.user, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	var v ord.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return v
}

func errKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error json: %v body=%s", err, w.Body.String())
	}
	return body.Error
}

//
// ---------- TESTS ----------
//

func TestCreateOrder_HappyPath(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.product.seed(t, "SKU1", "10.00", 5, true)

	v := f.create(t, `{"account_id":"acc-1","items":[{"sku":"SKU1","quantity":2}]}`)

	if v.Status != ord.StatusPending || v.Total != "20.00" {
		t.Fatalf("unexpected order: %+v", v)
	}
	if len(v.Lines) != 1 || v.Lines[0].UnitPrice != "10.00" || v.Lines[0].LineTotal != "20.00" {
		t.Fatalf("unexpected lines: %+v", v.Lines)
	}
	if got := f.product.stock(t, "SKU1"); got != 3 {
		t.Fatalf("expected stock=3, got %d", got)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.product.seed(t, "SKU1", "10.00", 1, true)

	w := f.do(http.MethodPost, "/orders", f.user, `{"account_id":"acc-1","items":[{"sku":"SKU1","quantity":2}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
	if kind := errKind(t, w); kind != "INVALID_ARGUMENT" {
		t.Fatalf("kind=%s", kind)
	}
	if f.product.adjusts.Load() != 0 {
		t.Fatalf("no adjustment expected")
	}
}

func TestCreateOrder_InactiveAndUnknownSKU(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.product.seed(t, "OLD", "1.00", 5, false)

	w := f.do(http.MethodPost, "/orders", f.user, `{"account_id":"acc-1","items":[{"sku":"OLD","quantity":1}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inactive: status=%d body=%s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodPost, "/orders", f.user, `{"account_id":"acc-1","items":[{"sku":"NOPE","quantity":1}]}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown sku: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateOrder_BadPayloads(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.product.seed(t, "SKU1", "10.00", 5, true)

	for _, body := range []string{
		`{`,
		`{"items":[{"sku":"SKU1","quantity":1}]}`,
		`{"account_id":"acc-1","items":[]}`,
		`{"account_id":"acc-1","items":[{"sku":"SKU1","quantity":0}]}`,
		`{"account_id":"acc-1","items":[{"sku":"","quantity":1}]}`,
	} {
		w := f.do(http.MethodPost, "/orders", f.user, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, w.Code)
		}
	}
	if f.product.adjusts.Load() != 0 {
		t.Fatalf("validation failures must not touch stock")
	}
}

func TestCreateOrder_LedgerDown(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.product.seed(t, "SKU1", "10.00", 5, true)
	f.product.down.Store(true)

	w := f.do(http.MethodPost, "/orders", f.user, `{"account_id":"acc-1","items":[{"sku":"SKU1","quantity":1}]}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d body=%s (expected 503)", w.Code, w.Body.String())
	}
	if kind := errKind(t, w); kind != "UNAVAILABLE" {
		t.Fatalf("kind=%s", kind)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	w := f.do(http.MethodGet, "/orders/missing", f.user, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (expected 404)", w.Code, w.Body.String())
	}
}

func TestOrders_RequireToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	w := f.do(http.MethodGet, "/orders/anything", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

// ===== POST /orders/:id/cancel → restock exactly once =====
func TestCancelOrder_RestocksOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.product.seed(t, "SKU1", "10.00", 5, true)
	f.product.seed(t, "SKU2", "2.50", 5, true)

	v := f.create(t, `{"account_id":"acc-1","items":[{"sku":"SKU1","quantity":2},{"sku":"SKU2","quantity":3}]}`)
	if v.Total != "27.50" {
		t.Fatalf("total=%s", v.Total)
	}

	for i := 0; i < 2; i++ {
		w := f.do(http.MethodPost, "/orders/"+v.ID+"/cancel", f.user, "")
		if w.Code != http.StatusOK {
			t.Fatalf("cancel #%d status=%d body=%s", i, w.Code, w.Body.String())
		}
		var got ord.View
		_ = json.Unmarshal(w.Body.Bytes(), &got)
		if got.Status != ord.StatusCanceled {
			t.Fatalf("cancel #%d status=%s", i, got.Status)
		}
	}
	if a, b := f.product.stock(t, "SKU1"), f.product.stock(t, "SKU2"); a != 5 || b != 5 {
		t.Fatalf("expected stock back to 5/5, got %d/%d", a, b)
	}
	// 2 debits + 2 credits
	if n := f.product.adjusts.Load(); n != 4 {
		t.Fatalf("adjust calls=%d", n)
	}
}

// ===== POST /orders/:id/confirm =====
func TestConfirmOrder_ServiceRoleOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.product.seed(t, "SKU1", "10.00", 5, true)
	v := f.create(t, `{"account_id":"acc-1","items":[{"sku":"SKU1","quantity":1}]}`)

	w := f.do(http.MethodPost, "/orders/"+v.ID+"/confirm", f.user, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for USER role, got %d", w.Code)
	}

	w = f.do(http.MethodPost, "/orders/"+v.ID+"/confirm", f.service, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	// cancel after confirm leaves it confirmed and does not restock
	w = f.do(http.MethodPost, "/orders/"+v.ID+"/cancel", f.user, "")
	var got ord.View
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if w.Code != http.StatusOK || got.Status != ord.StatusConfirmed {
		t.Fatalf("cancel after confirm: status=%d order=%s", w.Code, got.Status)
	}
	if s := f.product.stock(t, "SKU1"); s != 4 {
		t.Fatalf("stock=%d, expected 4", s)
	}
}

func TestGetOrder_ShowsLines(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.product.seed(t, "SKU1", "10.00", 5, true)
	v := f.create(t, `{"account_id":"acc-1","items":[{"sku":"SKU1","quantity":1}]}`)

	w := f.do(http.MethodGet, "/orders/"+v.ID, f.user, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, k := range []string{"id", "account_id", "status", "total", "created_at", "lines"} {
		if _, ok := raw[k]; !ok {
			t.Fatalf("missing %q in %s", k, w.Body.String())
		}
	}
	if fmt.Sprint(raw["total"]) != "10.00" {
		t.Fatalf("total=%v", raw["total"])
	}
}
