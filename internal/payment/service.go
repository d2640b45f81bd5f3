// Package payment runs the last step of the saga: it captures the order total
// and confirms the order, or cancels it so its stock is credited back.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/events"
	"github.com/MikeMC777/ordenes-saga/internal/logging"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
	"github.com/MikeMC777/ordenes-saga/internal/order"
)

type Service struct {
	repo   Repository
	orders Orders

	capture func(decimal.Decimal) bool
	txnRef  func() string

	publisher events.Publisher
	topic     string
	logger    *zap.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
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

// WithCapture replaces the simulated gateway decision.
func WithCapture(fn func(decimal.Decimal) bool) Option {
	return func(s *Service) { s.capture = fn }
}

func NewService(repo Repository, orders Orders, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		orders:    orders,
		capture:   Capture,
		txnRef:    NewTxnRef,
		publisher: events.Nop{},
		topic:     "payment-events",
		logger:    zap.NewNop(),
		tracer:    otel.Tracer("github.com/MikeMC777/ordenes-saga/internal/payment"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pay charges amount against the order. A declined capture is not an error:
// the FAILED payment is returned after the order has been canceled.
//
// If confirming or canceling the order fails, the payment keeps its final
// status and the order error is returned.
func (s *Service) Pay(ctx context.Context, orderID string, amount decimal.Decimal) (_ View, err error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.Pay", trace.WithAttributes(
		attribute.String("order.id", orderID), attribute.String("payment.amount", amount.String())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(apperr.KindOf(err)))
		}
		span.End()
		s.metrics.Step("payment", "pay", metrics.Outcome(err))
	}()

	ov, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return View{}, apperr.InvalidArgument("order %s not found", orderID)
		}
		return View{}, err
	}
	total, err := ov.TotalAmount()
	if err != nil {
		return View{}, apperr.Wrap(apperr.KindInternal, err, "invalid order total")
	}
	if !amount.Equal(total) {
		return View{}, apperr.InvalidArgument("amount %s does not match order total %s",
			amount.StringFixed(2), total.StringFixed(2))
	}
	if ov.Status != order.StatusPending {
		// charged anyway; confirm/cancel below leave the order as it is
		logging.Warn(ctx, s.logger, "payment for order that is not pending",
			zap.String("order_id", orderID),
			zap.String("order_status", string(ov.Status)))
	}

	now := s.now().UTC()
	p := &Payment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Amount:    amount,
		Status:    StatusInitiated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	span.SetAttributes(attribute.String("payment.id", p.ID))
	if err := s.repo.Create(ctx, p); err != nil {
		return View{}, apperr.Wrap(apperr.KindInternal, err, "store payment")
	}

	if s.capture(amount) {
		p.Status = StatusCaptured
		p.ProviderTxnRef = s.txnRef()
	} else {
		p.Status = StatusFailed
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return View{}, apperr.Wrap(apperr.KindInternal, err, "store payment")
	}
	s.metrics.Payment(string(p.Status))
	span.SetAttributes(attribute.String("payment.status", string(p.Status)))

	if p.Status == StatusCaptured {
		_, err = s.orders.Confirm(ctx, orderID)
	} else {
		_, err = s.orders.Cancel(ctx, orderID)
	}
	if err != nil {
		logging.Error(ctx, s.logger, "order step after payment failed",
			zap.String("payment_id", p.ID),
			zap.String("order_id", orderID),
			zap.String("payment_status", string(p.Status)),
			zap.Error(err))
		return View{}, err
	}

	logging.Info(ctx, s.logger, "payment processed",
		zap.String("payment_id", p.ID),
		zap.String("order_id", orderID),
		zap.String("status", string(p.Status)))
	s.publish(ctx, p, ov.AccountID)
	return p.View(), nil
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return View{}, apperr.NotFound("payment %s not found", id)
		}
		return View{}, apperr.Wrap(apperr.KindInternal, err, "load payment")
	}
	return p.View(), nil
}

func (s *Service) publish(ctx context.Context, p *Payment, accountID string) {
	typ := events.PaymentCaptured
	if p.Status == StatusFailed {
		typ = events.PaymentFailed
	}
	data := map[string]any{
		"paymentId": p.ID,
		"amount":    p.Amount.StringFixed(2),
	}
	if p.ProviderTxnRef != "" {
		data["providerTxnRef"] = p.ProviderTxnRef
	}
	e := events.Event{Type: typ, OrderID: p.OrderID, AccountID: accountID, At: p.UpdatedAt, Data: data}
	if err := s.publisher.Publish(ctx, s.topic, e); err != nil {
		logging.Warn(ctx, s.logger, "publish event failed",
			zap.String("event", typ), zap.String("payment_id", p.ID), zap.Error(err))
	}
}
