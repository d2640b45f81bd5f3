package order

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/events"
	"github.com/MikeMC777/ordenes-saga/internal/logging"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
)

const (
	serviceName = "order"
	// attempts at the version compare-and-swap before giving up with CONFLICT
	maxUpdateAttempts = 3
)

// Service drives the order side of the saga: it prices and debits stock on
// create and credits it back on cancel.
type Service struct {
	repo      Repository
	inventory Inventory

	publisher events.Publisher
	topic     string
	logger    *zap.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time

	locks stripedMutex
}

type Option func(*Service)

func WithPublisher(p events.Publisher, topic string) Option {
	return func(s *Service) {
		s.publisher = p
		s.topic = topic
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, inventory Inventory, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		inventory: inventory,
		publisher: events.Nop{},
		topic:     "order-events",
		logger:    zap.NewNop(),
		tracer:    otel.Tracer("github.com/MikeMC777/ordenes-saga/internal/order"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create prices every line at the current ledger price, stores the order as
// PENDING and then debits stock line by line.
//
// A failed debit leaves the lines before it debited and the order PENDING.
// The error is returned and the partial debit is logged and published so it
// can be reconciled; nothing is rolled back here.
func (s *Service) Create(ctx context.Context, accountID string, lines []LineRequest) (_ View, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Create",
		trace.WithAttributes(attribute.String("order.account_id", accountID), attribute.Int("order.lines", len(lines))))
	defer func() { s.finish(span, "create", err) }()

	if accountID == "" {
		return View{}, apperr.InvalidArgument("account_id is required")
	}
	if len(lines) == 0 {
		return View{}, apperr.InvalidArgument("order must contain at least one item")
	}
	for _, l := range lines {
		if l.SKU == "" {
			return View{}, apperr.InvalidArgument("sku is required")
		}
		if l.Quantity <= 0 {
			return View{}, apperr.InvalidArgument("quantity for %s must be at least 1", l.SKU)
		}
	}

	priced := make([]Line, 0, len(lines))
	// requested quantity per item across all lines, so repeated SKUs are
	// checked against stock as one amount
	requested := make(map[string]int, len(lines))
	for _, l := range lines {
		it, err := s.inventory.GetBySKU(ctx, l.SKU)
		if err != nil {
			return View{}, err
		}
		if !it.Active {
			return View{}, apperr.InvalidArgument("item %s is inactive", l.SKU)
		}
		requested[it.ID] += l.Quantity
		if requested[it.ID] > it.Stock {
			return View{}, apperr.InvalidArgument("insufficient stock for %s: requested %d, available %d",
				l.SKU, requested[it.ID], it.Stock)
		}
		priced = append(priced, NewLine(it.ID, it.SKU, it.Name, it.PictureURL, it.Price, l.Quantity))
	}

	o := New(accountID, priced, s.now())
	span.SetAttributes(attribute.String("order.id", o.ID))
	if err := s.repo.Create(ctx, o); err != nil {
		return View{}, apperr.Wrap(apperr.KindInternal, err, "store order")
	}

	for i, l := range o.Lines {
		if err := s.inventory.Adjust(ctx, l.ItemID, -l.Quantity); err != nil {
			debited := skus(o.Lines[:i])
			logging.Error(ctx, s.logger, "partial stock debit, order needs reconciliation",
				zap.String("order_id", o.ID),
				zap.Strings("debited_skus", debited),
				zap.String("failed_sku", l.SKU),
				zap.Error(err))
			s.publish(ctx, events.StockDebitFailed, o, map[string]any{
				"debitedSkus": debited,
				"failedSku":   l.SKU,
			})
			return View{}, err
		}
	}

	logging.Info(ctx, s.logger, "order created",
		zap.String("order_id", o.ID), zap.String("total", o.Total.StringFixed(2)))
	s.publish(ctx, events.OrderCreated, o, map[string]any{"total": o.Total.StringFixed(2)})
	return o.View(), nil
}

func (s *Service) Get(ctx context.Context, id string) (_ View, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { s.finish(span, "get", err) }()

	o, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return o.View(), nil
}

// Confirm moves a PENDING order to CONFIRMED. Any other status is returned
// unchanged.
func (s *Service) Confirm(ctx context.Context, id string) (_ View, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Confirm", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { s.finish(span, "confirm", err) }()

	unlock := s.locks.lock(id)
	defer unlock()

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		o, err := s.load(ctx, id)
		if err != nil {
			return View{}, err
		}
		if !o.Confirm() {
			return o.View(), nil
		}
		err = s.repo.Update(ctx, o)
		if err == nil {
			logging.Info(ctx, s.logger, "order confirmed", zap.String("order_id", id))
			s.publish(ctx, events.OrderConfirmed, o, nil)
			return o.View(), nil
		}
		if !errors.Is(err, ErrConflict) {
			return View{}, s.repoErr(id, err)
		}
	}
	return View{}, apperr.Errorf(apperr.KindConflict, "order %s is being modified, retry", id)
}

// Cancel credits every line back to the ledger and then moves a PENDING
// order to CANCELED. Any other status is returned unchanged with no stock
// calls.
//
// If a credit fails the status is left PENDING and the error returned; the
// lines credited before it are logged. A later Cancel credits them again.
func (s *Service) Cancel(ctx context.Context, id string) (_ View, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Cancel", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { s.finish(span, "cancel", err) }()

	unlock := s.locks.lock(id)
	defer unlock()

	o, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if o.Status != StatusPending {
		return o.View(), nil
	}

	for i, l := range o.Lines {
		if err := s.inventory.Adjust(ctx, l.ItemID, l.Quantity); err != nil {
			logging.Error(ctx, s.logger, "restock failed, order left pending",
				zap.String("order_id", id),
				zap.Strings("restocked_skus", skus(o.Lines[:i])),
				zap.String("failed_sku", l.SKU),
				zap.Error(err))
			return View{}, err
		}
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		o.Cancel()
		err := s.repo.Update(ctx, o)
		if err == nil {
			logging.Info(ctx, s.logger, "order canceled", zap.String("order_id", id))
			s.publish(ctx, events.OrderCanceled, o, nil)
			return o.View(), nil
		}
		if !errors.Is(err, ErrConflict) {
			return View{}, s.repoErr(id, err)
		}

		cur, err := s.load(ctx, id)
		if err != nil {
			return View{}, err
		}
		if cur.Status != StatusPending {
			// another writer finished the order first; take our credit back
			s.undoRestock(ctx, cur)
			return cur.View(), nil
		}
		o = cur
	}
	return View{}, apperr.Errorf(apperr.KindConflict, "order %s is being modified, retry", id)
}

func (s *Service) undoRestock(ctx context.Context, o *Order) {
	for _, l := range o.Lines {
		if err := s.inventory.Adjust(ctx, l.ItemID, -l.Quantity); err != nil {
			logging.Error(ctx, s.logger, "could not take back restock after losing cancel race",
				zap.String("order_id", o.ID), zap.String("sku", l.SKU), zap.Error(err))
		}
	}
}

func (s *Service) load(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.repoErr(id, err)
	}
	return o, nil
}

func (s *Service) repoErr(id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("order %s not found", id)
	}
	return apperr.Wrap(apperr.KindInternal, err, "order storage")
}

func (s *Service) publish(ctx context.Context, typ string, o *Order, data map[string]any) {
	e := events.Event{
		Type:      typ,
		OrderID:   o.ID,
		AccountID: o.AccountID,
		At:        s.now().UTC(),
		Data:      data,
	}
	if err := s.publisher.Publish(ctx, s.topic, e); err != nil {
		logging.Warn(ctx, s.logger, "publish event failed",
			zap.String("event", typ), zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) finish(span trace.Span, step string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
	}
	span.End()
	s.metrics.Step(serviceName, step, metrics.Outcome(err))
}

func skus(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.SKU)
	}
	return out
}

// stripedMutex serializes writers of the same order within this process.
// The version check in Repository.Update still guards across processes.
type stripedMutex struct {
	stripes [64]sync.Mutex
}

func (m *stripedMutex) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &m.stripes[h.Sum32()%uint32(len(m.stripes))]
	mu.Lock()
	return mu.Unlock
}
