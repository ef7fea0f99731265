package controllers

import (
	"net/http"

	"github.com/nino-0813/honma-ec-sub000/api/middleware"
	"github.com/nino-0813/honma-ec-sub000/api/responses"
	"github.com/nino-0813/honma-ec-sub000/api/validators"
	"github.com/nino-0813/honma-ec-sub000/internal/cart"
	"github.com/nino-0813/honma-ec-sub000/internal/checkout"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
)

type quoteRequest struct {
	Prefecture string `json:"prefecture" validate:"required"`
	Express    bool   `json:"express"`
	CouponCode string `json:"coupon_code"`
}

// QuoteCart prices the current cart for a destination without creating any
// payment state. The storefront calls this as the customer fills the form.
func QuoteCart(store *cart.Store, svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := cartToken(r)
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token required"))
			return
		}

		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		loaded, err := store.Load(ctx, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if loaded.Len() == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}

		quote, err := svc.QuoteCart(ctx, loaded, req.Prefecture, req.Express, req.CouponCode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

type createIntentRequest struct {
	CustomerName  string  `json:"customer_name" validate:"required"`
	CustomerEmail string  `json:"customer_email" validate:"required,email"`
	CustomerPhone *string `json:"customer_phone"`
	PostalCode    string  `json:"postal_code" validate:"required,len=7"`
	Prefecture    string  `json:"prefecture" validate:"required"`
	City          string  `json:"city" validate:"required"`
	AddressLine   string  `json:"address_line" validate:"required"`
	Express       bool    `json:"express"`
	CouponCode    string  `json:"coupon_code"`
}

// CreatePaymentIntent runs the full pre-payment sequence and hands the
// client secret back to the storefront. The order row it writes stays
// pending until the provider confirms payment over the webhook.
func CreatePaymentIntent(store *cart.Store, svc checkout.Service, currency string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := cartToken(r)
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token required"))
			return
		}

		var req createIntentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		loaded, err := store.Load(ctx, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if loaded.Len() == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}

		input := checkout.PrepareInput{
			CartToken:     token,
			Cart:          loaded,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
			PostalCode:    req.PostalCode,
			Prefecture:    req.Prefecture,
			City:          req.City,
			AddressLine:   req.AddressLine,
			Express:       req.Express,
			CouponCode:    req.CouponCode,
			Currency:      currency,
		}
		if userID, ok := middleware.UserIDFromContext(ctx); ok {
			input.UserID = &userID
		}

		result, err := svc.Prepare(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
