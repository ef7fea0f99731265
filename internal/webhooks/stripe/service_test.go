package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
	"github.com/nino-0813/honma-ec-sub000/pkg/types"
)

type stubOrderStore struct {
	order      *models.Order
	markedPaid []uuid.UUID
	failed     []string
}

func (s *stubOrderStore) FindByPaymentIntentID(_ context.Context, paymentIntentID string) (*models.Order, error) {
	if s.order == nil || s.order.PaymentIntentID != paymentIntentID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (s *stubOrderStore) MarkPaid(_ context.Context, orderID uuid.UUID, paymentMethod string, paidAt time.Time) error {
	s.markedPaid = append(s.markedPaid, orderID)
	s.order.PaymentStatus = enums.PaymentStatusPaid
	s.order.PaymentMethod = &paymentMethod
	s.order.PaidAt = &paidAt
	return nil
}

func (s *stubOrderStore) MarkFailed(_ context.Context, paymentIntentID string) error {
	s.failed = append(s.failed, paymentIntentID)
	return nil
}

type decrementCall struct {
	productID uuid.UUID
	qty       int
}

type stubStock struct {
	calls []decrementCall
	fail  map[uuid.UUID]error
}

func (s *stubStock) DecrementStock(_ context.Context, productID uuid.UUID, _ map[string]string, qty int) error {
	if err := s.fail[productID]; err != nil {
		return err
	}
	s.calls = append(s.calls, decrementCall{productID: productID, qty: qty})
	return nil
}

type stubCoupons struct {
	incremented []uuid.UUID
}

func (s *stubCoupons) IncrementUsage(_ context.Context, couponID uuid.UUID) error {
	s.incremented = append(s.incremented, couponID)
	return nil
}

type memLedger struct {
	seen map[string]bool
}

func (l *memLedger) Record(_ context.Context, eventID, _ string) (bool, error) {
	if l.seen == nil {
		l.seen = map[string]bool{}
	}
	if l.seen[eventID] {
		return true, nil
	}
	l.seen[eventID] = true
	return false, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func succeededEvent(t *testing.T, eventID, intentID string, amount int64) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(&stripe.PaymentIntent{ID: intentID, AmountReceived: amount})
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	return &stripe.Event{
		ID:   eventID,
		Type: stripe.EventTypePaymentIntentSucceeded,
		Data: &stripe.EventData{Raw: raw},
	}
}

func orderFixture(intentID string, totalYen int) *models.Order {
	couponID := uuid.New()
	return &models.Order{
		ID:              uuid.New(),
		PaymentIntentID: intentID,
		TotalYen:        totalYen,
		PaymentStatus:   enums.PaymentStatusPending,
		CouponID:        &couponID,
		Items: []models.OrderItem{
			{
				ProductID:       uuid.New(),
				SelectedOptions: types.SelectedOptions{"vt_milling": "opt_white"},
				Qty:             2,
			},
			{
				ProductID: uuid.New(),
				Qty:       1,
			},
		},
	}
}

func newTestService(t *testing.T, orders *stubOrderStore, stock *stubStock, coupons *stubCoupons, ledger eventLedger) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Orders:  orders,
		Stock:   stock,
		Coupons: coupons,
		Ledger:  ledger,
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc
}

func TestHandleEvent_SucceededMarksPaidAndDecrements(t *testing.T) {
	order := orderFixture("pi_ok", 10800)
	orders := &stubOrderStore{order: order}
	stock := &stubStock{}
	coupons := &stubCoupons{}
	svc := newTestService(t, orders, stock, coupons, &memLedger{})

	res, err := svc.HandleEvent(context.Background(), succeededEvent(t, "evt_1", "pi_ok", 10800))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.Received || res.Duplicate || res.Warning != "" {
		t.Fatalf("result = %+v", res)
	}
	if len(orders.markedPaid) != 1 {
		t.Fatalf("marked paid %d times, want 1", len(orders.markedPaid))
	}
	if len(stock.calls) != 2 {
		t.Fatalf("stock decrements = %d, want 2", len(stock.calls))
	}
	if stock.calls[0].qty != 2 || stock.calls[1].qty != 1 {
		t.Fatalf("decrement quantities = %+v", stock.calls)
	}
	if len(coupons.incremented) != 1 || coupons.incremented[0] != *order.CouponID {
		t.Fatalf("coupon usage not incremented: %+v", coupons.incremented)
	}
}

func TestHandleEvent_RedeliveryIsDeduplicated(t *testing.T) {
	order := orderFixture("pi_dup", 5000)
	orders := &stubOrderStore{order: order}
	stock := &stubStock{}
	svc := newTestService(t, orders, stock, &stubCoupons{}, &memLedger{})

	event := succeededEvent(t, "evt_dup", "pi_dup", 5000)
	if _, err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	res, err := svc.HandleEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !res.Received || !res.Duplicate {
		t.Fatalf("result = %+v, want duplicate ack", res)
	}
	if len(orders.markedPaid) != 1 {
		t.Fatalf("marked paid %d times, want exactly 1", len(orders.markedPaid))
	}
	if len(stock.calls) != 2 {
		t.Fatalf("stock decrements = %d, want 2 (one order, two items)", len(stock.calls))
	}
}

func TestHandleEvent_MissingOrderAcknowledgesWithWarning(t *testing.T) {
	orders := &stubOrderStore{}
	stock := &stubStock{}
	svc := newTestService(t, orders, stock, &stubCoupons{}, &memLedger{})

	res, err := svc.HandleEvent(context.Background(), succeededEvent(t, "evt_race", "pi_race", 4000))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.Received || res.Warning != WarningOrderNotFound {
		t.Fatalf("result = %+v, want order_not_found warning", res)
	}
	if len(stock.calls) != 0 {
		t.Fatal("no side effects expected without an order")
	}
}

func TestHandleEvent_AmountMismatchLeavesOrderPending(t *testing.T) {
	order := orderFixture("pi_bad", 9800)
	orders := &stubOrderStore{order: order}
	stock := &stubStock{}
	svc := newTestService(t, orders, stock, &stubCoupons{}, &memLedger{})

	res, err := svc.HandleEvent(context.Background(), succeededEvent(t, "evt_bad", "pi_bad", 9000))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.Received || res.Warning != WarningAmountMismatch {
		t.Fatalf("result = %+v, want amount_mismatch warning", res)
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("status = %s, want pending for manual reconciliation", order.PaymentStatus)
	}
	if len(stock.calls) != 0 {
		t.Fatal("stock must not move on a mismatched amount")
	}
}

func TestHandleEvent_ItemFailureDoesNotAbortLoop(t *testing.T) {
	order := orderFixture("pi_partial", 7000)
	orders := &stubOrderStore{order: order}
	stock := &stubStock{
		fail: map[uuid.UUID]error{
			order.Items[0].ProductID: errors.New("insufficient stock"),
		},
	}
	coupons := &stubCoupons{}
	svc := newTestService(t, orders, stock, coupons, &memLedger{})

	res, err := svc.HandleEvent(context.Background(), succeededEvent(t, "evt_partial", "pi_partial", 7000))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.Received {
		t.Fatalf("result = %+v", res)
	}
	if len(stock.calls) != 1 || stock.calls[0].productID != order.Items[1].ProductID {
		t.Fatalf("second item should still decrement: %+v", stock.calls)
	}
	if len(coupons.incremented) != 1 {
		t.Fatal("coupon increment should still run after an item failure")
	}
}

func TestHandleEvent_PaymentFailedMarksOrder(t *testing.T) {
	order := orderFixture("pi_fail", 3000)
	orders := &stubOrderStore{order: order}
	svc := newTestService(t, orders, &stubStock{}, &stubCoupons{}, &memLedger{})

	raw, _ := json.Marshal(&stripe.PaymentIntent{ID: "pi_fail"})
	res, err := svc.HandleEvent(context.Background(), &stripe.Event{
		ID:   "evt_fail",
		Type: stripe.EventTypePaymentIntentPaymentFailed,
		Data: &stripe.EventData{Raw: raw},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.Received {
		t.Fatalf("result = %+v", res)
	}
	if len(orders.failed) != 1 || orders.failed[0] != "pi_fail" {
		t.Fatalf("failed marks = %+v", orders.failed)
	}
}

func TestHandleEvent_UnrelatedEventIsIgnored(t *testing.T) {
	orders := &stubOrderStore{}
	stock := &stubStock{}
	svc := newTestService(t, orders, stock, &stubCoupons{}, &memLedger{})

	res, err := svc.HandleEvent(context.Background(), &stripe.Event{
		ID:   "evt_other",
		Type: stripe.EventTypeChargeRefunded,
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.Received {
		t.Fatalf("result = %+v", res)
	}
	if len(stock.calls) != 0 || len(orders.markedPaid) != 0 {
		t.Fatal("no side effects expected for unrelated events")
	}
}
