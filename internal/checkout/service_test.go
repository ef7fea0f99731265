package checkout

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/internal/cart"
	"github.com/nino-0813/honma-ec-sub000/internal/orders"
	"github.com/nino-0813/honma-ec-sub000/internal/shipping"
	"github.com/nino-0813/honma-ec-sub000/pkg/config"
	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
	"github.com/nino-0813/honma-ec-sub000/pkg/redis"
	pkgstripe "github.com/nino-0813/honma-ec-sub000/pkg/stripe"
)

type stubProducts struct {
	byID map[uuid.UUID]models.Product
}

func (s *stubProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubMethods struct {
	byProduct map[uuid.UUID][]models.ShippingMethod
}

func (s *stubMethods) MethodsForProducts(_ context.Context, _ []uuid.UUID) (map[uuid.UUID][]models.ShippingMethod, error) {
	return s.byProduct, nil
}

type stubCoupons struct {
	coupon *models.Coupon
}

func (s *stubCoupons) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	if s.coupon == nil || s.coupon.Code != code {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return s.coupon, nil
}

type stubIntents struct {
	created []int64
}

func (s *stubIntents) CreateIntent(_ context.Context, amount int64, _ string, _ map[string]string) (*pkgstripe.Intent, error) {
	s.created = append(s.created, amount)
	return &pkgstripe.Intent{
		IntentID:     fmt.Sprintf("pi_%d", len(s.created)),
		ClientSecret: fmt.Sprintf("secret_%d", len(s.created)),
	}, nil
}

type stubDrafts struct {
	inputs []orders.DraftInput
}

func (s *stubDrafts) UpsertDraft(_ context.Context, input orders.DraftInput) (uuid.UUID, error) {
	s.inputs = append(s.inputs, input)
	return uuid.New(), nil
}

type fakeKV struct {
	values map[string]string
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeKV) CartKey(token string) string   { return "cart:" + token }
func (f *fakeKV) IntentKey(token string) string { return "intent:" + token }

type fixture struct {
	svc     Service
	intents *stubIntents
	drafts  *stubDrafts
	kv      *fakeKV
}

func newFixture(t *testing.T, productsByID map[uuid.UUID]models.Product, methods map[uuid.UUID][]models.ShippingMethod, coupon *models.Coupon) *fixture {
	t.Helper()
	intents := &stubIntents{}
	drafts := &stubDrafts{}
	kv := &fakeKV{values: map[string]string{}}
	svc, err := NewService(ServiceParams{
		Products:  &stubProducts{byID: productsByID},
		Shipping:  &stubMethods{byProduct: methods},
		Coupons:   &stubCoupons{coupon: coupon},
		Intents:   intents,
		Drafts:    drafts,
		KV:        kv,
		Shipfees:  config.ShippingConfig{FallbackStandardFee: 500, FallbackExpressFee: 1000},
		IntentTTL: time.Hour,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return &fixture{svc: svc, intents: intents, drafts: drafts, kv: kv}
}

func stocked(title string, priceYen int, stock int) models.Product {
	s := stock
	return models.Product{ID: uuid.New(), Title: title, PriceYen: priceYen, Stock: &s, IsActive: true}
}

func kantoAreaMethod(fee int) []models.ShippingMethod {
	return []models.ShippingMethod{{
		FeeType:  enums.ShippingFeeTypeArea,
		AreaFees: models.AreaFees{shipping.AreaKanto: fee},
	}}
}

func prepareInput(c *cart.Cart) PrepareInput {
	return PrepareInput{
		CartToken:     "sess-1",
		Cart:          c,
		CustomerName:  "本間 太郎",
		CustomerEmail: "taro@example.com",
		PostalCode:    "100-0001",
		Prefecture:    "東京都",
		City:          "千代田区",
		AddressLine:   "千代田1-1",
	}
}

func TestPrepare_IntentAmountMatchesQuote(t *testing.T) {
	t.Parallel()
	product := stocked("コシヒカリ 10kg", 5000, 10)
	fx := newFixture(t,
		map[uuid.UUID]models.Product{product.ID: product},
		map[uuid.UUID][]models.ShippingMethod{product.ID: kantoAreaMethod(800)},
		nil,
	)

	var c cart.Cart
	if err := c.Add(&product, nil, 2, 5000); err != nil {
		t.Fatalf("add: %v", err)
	}

	res, err := fx.svc.Prepare(context.Background(), prepareInput(&c))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	// Area methods pack one unit per box, so two bags ship as two 800 yen
	// boxes.
	if res.Quote.SubtotalYen != 10000 || res.Quote.ShippingYen != 1600 {
		t.Fatalf("quote = %+v", res.Quote)
	}
	if res.Quote.TotalYen != 11600 {
		t.Fatalf("total = %d, want 11600", res.Quote.TotalYen)
	}
	if len(fx.intents.created) != 1 || fx.intents.created[0] != 11600 {
		t.Fatalf("intent amounts = %v, want [11600]", fx.intents.created)
	}
	if len(fx.drafts.inputs) != 1 {
		t.Fatalf("drafts = %d, want 1", len(fx.drafts.inputs))
	}
	draft := fx.drafts.inputs[0]
	if draft.PaymentIntentID != res.PaymentIntentID {
		t.Fatal("draft not keyed by the created intent")
	}
	if draft.TotalYen != 11600 || len(draft.Items) != 1 || draft.Items[0].Qty != 2 {
		t.Fatalf("draft = %+v", draft)
	}
}

func TestPrepare_ReusesIntentWhileCartUnchanged(t *testing.T) {
	t.Parallel()
	product := stocked("コシヒカリ 10kg", 5000, 10)
	fx := newFixture(t,
		map[uuid.UUID]models.Product{product.ID: product},
		map[uuid.UUID][]models.ShippingMethod{product.ID: kantoAreaMethod(800)},
		nil,
	)

	var c cart.Cart
	if err := c.Add(&product, nil, 2, 5000); err != nil {
		t.Fatalf("add: %v", err)
	}

	first, err := fx.svc.Prepare(context.Background(), prepareInput(&c))
	if err != nil {
		t.Fatalf("first prepare: %v", err)
	}
	second, err := fx.svc.Prepare(context.Background(), prepareInput(&c))
	if err != nil {
		t.Fatalf("second prepare: %v", err)
	}
	if first.PaymentIntentID != second.PaymentIntentID {
		t.Fatal("re-render with unchanged cart should reuse the intent")
	}
	if len(fx.intents.created) != 1 {
		t.Fatalf("intents created = %d, want 1", len(fx.intents.created))
	}

	// Changing quantity changes the total; a fresh intent is required.
	if err := c.SetQty(product.ID, nil, 1); err != nil {
		t.Fatalf("set qty: %v", err)
	}
	third, err := fx.svc.Prepare(context.Background(), prepareInput(&c))
	if err != nil {
		t.Fatalf("third prepare: %v", err)
	}
	if third.PaymentIntentID == first.PaymentIntentID {
		t.Fatal("changed total must mint a new intent")
	}
	if len(fx.intents.created) != 2 {
		t.Fatalf("intents created = %d, want 2", len(fx.intents.created))
	}
}

func TestPrepare_AbortsOnInsufficientStock(t *testing.T) {
	t.Parallel()
	product := stocked("限定米 2kg", 3000, 1)
	fx := newFixture(t,
		map[uuid.UUID]models.Product{product.ID: product},
		map[uuid.UUID][]models.ShippingMethod{},
		nil,
	)

	var c cart.Cart
	if err := c.Add(&product, nil, 3, 3000); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := fx.svc.Prepare(context.Background(), prepareInput(&c))
	if err == nil {
		t.Fatal("expected stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStock {
		t.Fatalf("error = %v, want INSUFFICIENT_STOCK", err)
	}
	if len(fx.intents.created) != 0 || len(fx.drafts.inputs) != 0 {
		t.Fatal("no intent or draft may be created when stock validation fails")
	}
}

func TestQuoteCart_FallbackFeeWhenNoMethods(t *testing.T) {
	t.Parallel()
	product := stocked("味噌 750g", 900, 10)
	fx := newFixture(t,
		map[uuid.UUID]models.Product{product.ID: product},
		map[uuid.UUID][]models.ShippingMethod{},
		nil,
	)

	var c cart.Cart
	if err := c.Add(&product, nil, 1, 900); err != nil {
		t.Fatalf("add: %v", err)
	}

	quote, err := fx.svc.QuoteCart(context.Background(), &c, "東京都", false, "")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.ShippingYen != 500 || !quote.FallbackShipping {
		t.Fatalf("quote = %+v, want standard fallback 500", quote)
	}

	express, err := fx.svc.QuoteCart(context.Background(), &c, "東京都", true, "")
	if err != nil {
		t.Fatalf("express quote: %v", err)
	}
	if express.ShippingYen != 1000 {
		t.Fatalf("express fee = %d, want 1000", express.ShippingYen)
	}

	// Unresolvable destination also falls back.
	unknown, err := fx.svc.QuoteCart(context.Background(), &c, "不明県", false, "")
	if err != nil {
		t.Fatalf("unknown quote: %v", err)
	}
	if unknown.ShippingYen != 500 || unknown.Area != "" {
		t.Fatalf("quote = %+v", unknown)
	}
}

func TestQuoteCart_AppliesCoupon(t *testing.T) {
	t.Parallel()
	product := stocked("コシヒカリ 10kg", 5000, 10)
	coupon := &models.Coupon{
		ID:           uuid.New(),
		Code:         "HARVEST10",
		DiscountType: enums.DiscountTypePercentage,
		Amount:       10,
		IsActive:     true,
	}
	fx := newFixture(t,
		map[uuid.UUID]models.Product{product.ID: product},
		map[uuid.UUID][]models.ShippingMethod{product.ID: kantoAreaMethod(800)},
		coupon,
	)

	var c cart.Cart
	if err := c.Add(&product, nil, 2, 5000); err != nil {
		t.Fatalf("add: %v", err)
	}

	quote, err := fx.svc.QuoteCart(context.Background(), &c, "東京都", false, "HARVEST10")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.DiscountYen != 1000 {
		t.Fatalf("discount = %d, want 1000", quote.DiscountYen)
	}
	if quote.TotalYen != 10000+1600-1000 {
		t.Fatalf("total = %d, want 10600", quote.TotalYen)
	}
	if quote.CouponID == nil || *quote.CouponID != coupon.ID {
		t.Fatal("coupon id missing from quote")
	}

	if _, err := fx.svc.QuoteCart(context.Background(), &c, "東京都", false, "BOGUS"); err == nil {
		t.Fatal("unknown coupon should fail validation")
	}
}

func TestQuoteCart_RejectsExpiredCoupon(t *testing.T) {
	t.Parallel()
	product := stocked("コシヒカリ 10kg", 5000, 10)
	until := time.Now().Add(-time.Hour)
	coupon := &models.Coupon{
		ID:           uuid.New(),
		Code:         "OLD",
		DiscountType: enums.DiscountTypeFixed,
		Amount:       500,
		IsActive:     true,
		ActiveUntil:  &until,
	}
	fx := newFixture(t,
		map[uuid.UUID]models.Product{product.ID: product},
		map[uuid.UUID][]models.ShippingMethod{product.ID: kantoAreaMethod(800)},
		coupon,
	)

	var c cart.Cart
	if err := c.Add(&product, nil, 1, 5000); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := fx.svc.QuoteCart(context.Background(), &c, "東京都", false, "OLD"); err == nil {
		t.Fatal("expired coupon should be rejected")
	}
}
