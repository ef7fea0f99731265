package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/internal/cart"
	"github.com/nino-0813/honma-ec-sub000/internal/coupons"
	"github.com/nino-0813/honma-ec-sub000/internal/orders"
	"github.com/nino-0813/honma-ec-sub000/internal/products"
	"github.com/nino-0813/honma-ec-sub000/internal/shipping"
	"github.com/nino-0813/honma-ec-sub000/pkg/config"
	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
	"github.com/nino-0813/honma-ec-sub000/pkg/redis"
	pkgstripe "github.com/nino-0813/honma-ec-sub000/pkg/stripe"
)

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type methodLoader interface {
	MethodsForProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]models.ShippingMethod, error)
}

type couponLoader interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type intentCreator interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*pkgstripe.Intent, error)
}

type draftWriter interface {
	UpsertDraft(ctx context.Context, input orders.DraftInput) (uuid.UUID, error)
}

// PrepareInput carries everything the storefront sends when the buyer lands
// on the payment step or edits the cart or address while on it.
type PrepareInput struct {
	CartToken     string
	Cart          *cart.Cart
	UserID        *uuid.UUID
	CustomerName  string
	CustomerEmail string
	CustomerPhone *string
	PostalCode    string
	Prefecture    string
	City          string
	AddressLine   string
	Express       bool
	CouponCode    string
	Currency      string
}

// PrepareResult is the payload the payment form needs plus the draft id.
type PrepareResult struct {
	Quote           Quote  `json:"quote"`
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	Livemode        bool   `json:"livemode"`
	OrderID         string `json:"order_id"`
}

// Service drives the pre-payment sequence: fresh stock validation, quote,
// intent reuse-or-create, and the order draft upsert. Marking the order paid
// is never done here; the webhook owns that.
type Service interface {
	Prepare(ctx context.Context, input PrepareInput) (*PrepareResult, error)
	ValidateStock(ctx context.Context, c *cart.Cart) error
	QuoteCart(ctx context.Context, c *cart.Cart, prefecture string, express bool, couponCode string) (*Quote, error)
}

type ServiceParams struct {
	Products  productLoader
	Shipping  methodLoader
	Coupons   couponLoader
	Intents   intentCreator
	Drafts    draftWriter
	KV        redis.KV
	Shipfees  config.ShippingConfig
	IntentTTL time.Duration
	Logger    *logger.Logger
}

type service struct {
	products  productLoader
	shipping  methodLoader
	coupons   couponLoader
	intents   intentCreator
	drafts    draftWriter
	kv        redis.KV
	shipfees  config.ShippingConfig
	intentTTL time.Duration
	log       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping method loader required")
	}
	if params.Intents == nil {
		return nil, fmt.Errorf("intent creator required")
	}
	if params.Drafts == nil {
		return nil, fmt.Errorf("draft writer required")
	}
	if params.KV == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.IntentTTL <= 0 {
		params.IntentTTL = 24 * time.Hour
	}
	return &service{
		products:  params.Products,
		shipping:  params.Shipping,
		coupons:   params.Coupons,
		intents:   params.Intents,
		drafts:    params.Drafts,
		kv:        params.KV,
		shipfees:  params.Shipfees,
		intentTTL: params.IntentTTL,
		log:       params.Logger,
	}, nil
}

// ValidateStock re-checks every cart line against freshly fetched products,
// not the cart's possibly stale snapshot.
func (s *service) ValidateStock(ctx context.Context, c *cart.Cart) error {
	if c == nil || c.Len() == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "カートが空です。")
	}
	fresh, err := s.loadProducts(ctx, c)
	if err != nil {
		return err
	}
	for _, line := range c.Lines {
		product, ok := fresh[line.ProductID]
		if !ok || !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeStock,
				fmt.Sprintf("「%s」は現在販売されていません。", line.ProductTitle))
		}
		availability := products.CheckAvailability(product, line.SelectedOptions, line.Qty, 0)
		if !availability.Available {
			return pkgerrors.New(pkgerrors.CodeStock,
				fmt.Sprintf("「%s」%s", line.ProductTitle, availability.Message))
		}
	}
	return nil
}

// QuoteCart prices the cart for a destination prefecture.
func (s *service) QuoteCart(ctx context.Context, c *cart.Cart, prefecture string, express bool, couponCode string) (*Quote, error) {
	if c == nil || c.Len() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "カートが空です。")
	}

	ids := make([]uuid.UUID, 0, c.Len())
	for _, line := range c.Lines {
		ids = append(ids, line.ProductID)
	}
	methods, err := s.shipping.MethodsForProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping methods")
	}

	area := shipping.PrefectureToArea(prefecture)
	shippingYen, usedFallback := shippingFor(c, methods, area, express, s.shipfees)
	subtotal := c.SubtotalYen()

	quote := &Quote{
		SubtotalYen:      subtotal,
		ShippingYen:      shippingYen,
		Area:             area,
		FallbackShipping: usedFallback,
	}

	if couponCode != "" && s.coupons != nil {
		coupon, err := s.coupons.FindByCode(ctx, couponCode)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "クーポンコードが無効です。")
			}
			return nil, err
		}
		if !coupons.Usable(coupon, time.Now()) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "このクーポンは現在ご利用いただけません。")
		}
		quote.DiscountYen = coupons.DiscountYen(coupon, subtotal)
		quote.CouponID = &coupon.ID
	}

	quote.TotalYen = subtotal + shippingYen - quote.DiscountYen
	return quote, nil
}

// Prepare runs the full pre-payment sequence and returns what the payment
// form needs. Calling it again with an unchanged cart and total reuses the
// previously created intent instead of minting a new one.
func (s *service) Prepare(ctx context.Context, input PrepareInput) (*PrepareResult, error) {
	if input.CartToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
	}
	if err := s.ValidateStock(ctx, input.Cart); err != nil {
		return nil, err
	}

	quote, err := s.QuoteCart(ctx, input.Cart, input.Prefecture, input.Express, input.CouponCode)
	if err != nil {
		return nil, err
	}
	if quote.TotalYen <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "合計金額が不正です。")
	}

	intent, err := s.ensureIntent(ctx, input, quote)
	if err != nil {
		return nil, err
	}
	ctx = s.log.WithPaymentIntentID(ctx, intent.IntentID)

	draft := orders.DraftInput{
		PaymentIntentID: intent.IntentID,
		UserID:          input.UserID,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		PostalCode:      input.PostalCode,
		Prefecture:      input.Prefecture,
		City:            input.City,
		AddressLine:     input.AddressLine,
		SubtotalYen:     quote.SubtotalYen,
		ShippingYen:     quote.ShippingYen,
		DiscountYen:     quote.DiscountYen,
		TotalYen:        quote.TotalYen,
		CouponID:        quote.CouponID,
	}
	for _, line := range input.Cart.Lines {
		draft.Items = append(draft.Items, orders.DraftItem{
			ProductID:       line.ProductID,
			ProductTitle:    line.ProductTitle,
			UnitPriceYen:    line.FinalPriceYen,
			SelectedOptions: line.SelectedOptions,
			Qty:             line.Qty,
		})
	}
	orderID, err := s.drafts.UpsertDraft(ctx, draft)
	if err != nil {
		return nil, err
	}

	return &PrepareResult{
		Quote:           *quote,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.IntentID,
		Livemode:        intent.Livemode,
		OrderID:         orderID.String(),
	}, nil
}

func (s *service) loadProducts(ctx context.Context, c *cart.Cart) (map[uuid.UUID]*models.Product, error) {
	ids := make([]uuid.UUID, 0, c.Len())
	for _, line := range c.Lines {
		ids = append(ids, line.ProductID)
	}
	list, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	out := make(map[uuid.UUID]*models.Product, len(list))
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

// cachedIntent is what the session keeps between re-renders of the payment
// step. The (cart length, total) pair is the cache identity: while both are
// unchanged the existing intent is still valid and must be reused.
type cachedIntent struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Livemode     bool   `json:"livemode"`
	CartLen      int    `json:"cart_len"`
	TotalYen     int    `json:"total_yen"`
}

func (s *service) ensureIntent(ctx context.Context, input PrepareInput, quote *Quote) (*pkgstripe.Intent, error) {
	key := s.kv.IntentKey(input.CartToken)

	if raw, err := s.kv.Get(ctx, key); err == nil {
		var cached cachedIntent
		if err := json.Unmarshal([]byte(raw), &cached); err == nil &&
			cached.CartLen == input.Cart.Len() && cached.TotalYen == quote.TotalYen {
			return &pkgstripe.Intent{
				IntentID:     cached.IntentID,
				ClientSecret: cached.ClientSecret,
				Livemode:     cached.Livemode,
			}, nil
		}
	} else if !errors.Is(err, redis.ErrNotFound) {
		s.log.Warn(ctx, "intent cache unavailable, creating fresh intent")
	}

	metadata := map[string]string{"cart_token": input.CartToken}
	if input.UserID != nil {
		metadata["user_id"] = input.UserID.String()
	}
	intent, err := s.intents.CreateIntent(ctx, int64(quote.TotalYen), input.Currency, metadata)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	blob, err := json.Marshal(cachedIntent{
		IntentID:     intent.IntentID,
		ClientSecret: intent.ClientSecret,
		Livemode:     intent.Livemode,
		CartLen:      input.Cart.Len(),
		TotalYen:     quote.TotalYen,
	})
	if err == nil {
		if err := s.kv.Set(ctx, key, string(blob), s.intentTTL); err != nil {
			s.log.Warn(ctx, "caching payment intent failed")
		}
	}
	return intent, nil
}
