package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"

	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
	"github.com/nino-0813/honma-ec-sub000/pkg/metrics"
)

// Warning values returned to the provider alongside a 200 acknowledgement.
const (
	WarningOrderNotFound  = "order_not_found"
	WarningAmountMismatch = "amount_mismatch"
)

type orderStore interface {
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, paymentMethod string, paidAt time.Time) error
	MarkFailed(ctx context.Context, paymentIntentID string) error
}

type stockDecrementer interface {
	DecrementStock(ctx context.Context, productID uuid.UUID, selected map[string]string, qty int) error
}

type couponIncrementer interface {
	IncrementUsage(ctx context.Context, couponID uuid.UUID) error
}

type eventLedger interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
}

// Result is what the HTTP controller echoes back to the provider. A Result
// is always paired with a 200; only parse and signature failures surface as
// errors before this point.
type Result struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

type ServiceParams struct {
	Orders  orderStore
	Stock   stockDecrementer
	Coupons couponIncrementer
	Ledger  eventLedger
	Logger  *logger.Logger
	Metrics *metrics.WebhookMetrics
}

type Service struct {
	orders  orderStore
	stock   stockDecrementer
	coupons couponIncrementer
	ledger  eventLedger
	log     *logger.Logger
	metrics *metrics.WebhookMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order store required")
	}
	if params.Stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock decrementer required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event ledger required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		orders:  params.Orders,
		stock:   params.Stock,
		coupons: params.Coupons,
		ledger:  params.Ledger,
		log:     params.Logger,
		metrics: params.Metrics,
	}, nil
}

// HandleEvent runs the per-intent state machine. Errors returned here mean
// "tell the provider to retry"; every business condition (duplicate, missing
// order, amount mismatch, already paid) acknowledges instead.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (*Result, error) {
	if event == nil || event.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveDuration(string(event.Type), time.Since(start))
	}()

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		return s.handleSucceeded(ctx, event)
	case stripe.EventTypePaymentIntentPaymentFailed:
		return s.handleFailed(ctx, event)
	default:
		s.metrics.IncEvent(string(event.Type), "ignored")
		return &Result{Received: true}, nil
	}
}

func (s *Service) handleSucceeded(ctx context.Context, event *stripe.Event) (*Result, error) {
	intent, err := decodeIntent(event)
	if err != nil {
		return nil, err
	}
	ctx = s.log.WithPaymentIntentID(ctx, intent.ID)

	duplicate, err := s.ledger.Record(ctx, event.ID, string(event.Type))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record webhook event")
	}
	if duplicate {
		s.metrics.IncEvent(string(event.Type), "duplicate")
		s.log.Info(ctx, "duplicate delivery, skipping side effects")
		return &Result{Received: true, Duplicate: true}, nil
	}

	order, err := s.orders.FindByPaymentIntentID(ctx, intent.ID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			// Draft write racing the webhook. Acknowledge; the provider
			// must not retry-storm over our own sequencing.
			s.metrics.IncEvent(string(event.Type), "order_not_found")
			s.log.Warn(ctx, "no order draft for payment intent")
			return &Result{Received: true, Warning: WarningOrderNotFound}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	ctx = s.log.WithOrderID(ctx, order.ID.String())

	if int64(order.TotalYen) != intent.AmountReceived {
		s.metrics.IncEvent(string(event.Type), "amount_mismatch")
		warnCtx := s.log.WithFields(ctx, map[string]any{
			"order_total":     order.TotalYen,
			"amount_received": intent.AmountReceived,
		})
		s.log.Warn(warnCtx, "amount mismatch, order left pending for manual reconciliation")
		return &Result{Received: true, Warning: WarningAmountMismatch}, nil
	}

	if order.PaymentStatus == enums.PaymentStatusPaid {
		s.metrics.IncEvent(string(event.Type), "already_paid")
		return &Result{Received: true}, nil
	}

	if err := s.orders.MarkPaid(ctx, order.ID, paymentMethodType(intent), time.Now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}

	s.runSideEffects(ctx, order)
	s.metrics.IncEvent(string(event.Type), "processed")
	s.log.Info(ctx, "order marked paid")
	return &Result{Received: true}, nil
}

// runSideEffects decrements stock per item and bumps coupon usage. Each step
// is best effort: failures are logged and counted for manual follow-up but
// never fail the delivery, since the payment has already been captured.
func (s *Service) runSideEffects(ctx context.Context, order *models.Order) {
	var errs error
	for _, item := range order.Items {
		err := s.stock.DecrementStock(ctx, item.ProductID, item.SelectedOptions, item.Qty)
		if err != nil {
			s.metrics.IncSideEffectFailure("stock_decrement")
			errs = multierr.Append(errs, err)
		}
	}
	if order.CouponID != nil && s.coupons != nil {
		if err := s.coupons.IncrementUsage(ctx, *order.CouponID); err != nil {
			s.metrics.IncSideEffectFailure("coupon_increment")
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		s.log.Error(ctx, "post-payment side effects incomplete", errs)
	}
}

func (s *Service) handleFailed(ctx context.Context, event *stripe.Event) (*Result, error) {
	intent, err := decodeIntent(event)
	if err != nil {
		return nil, err
	}
	ctx = s.log.WithPaymentIntentID(ctx, intent.ID)

	if err := s.orders.MarkFailed(ctx, intent.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order failed")
	}
	s.metrics.IncEvent(string(event.Type), "failed")
	s.log.Info(ctx, "payment failed, order flagged")
	return &Result{Received: true}, nil
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return &intent, nil
}

func paymentMethodType(intent *stripe.PaymentIntent) string {
	if intent.PaymentMethod != nil && intent.PaymentMethod.Type != "" {
		return string(intent.PaymentMethod.Type)
	}
	return "card"
}
