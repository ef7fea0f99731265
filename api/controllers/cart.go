package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/api/middleware"
	"github.com/nino-0813/honma-ec-sub000/api/responses"
	"github.com/nino-0813/honma-ec-sub000/api/validators"
	"github.com/nino-0813/honma-ec-sub000/internal/cart"
	"github.com/nino-0813/honma-ec-sub000/internal/products"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
	"github.com/nino-0813/honma-ec-sub000/pkg/types"
)

const cartTokenHeader = "X-Cart-Token"

// cartToken prefers the signed-in user's id so the cart follows the account
// across devices; guests are identified by the session token header.
func cartToken(r *http.Request) string {
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		return userID.String()
	}
	return r.Header.Get(cartTokenHeader)
}

func GetCart(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := cartToken(r)
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token required"))
			return
		}
		loaded, err := store.Load(ctx, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, loaded)
	}
}

type addLineRequest struct {
	ProductID       string                `json:"product_id" validate:"required,uuid"`
	SelectedOptions types.SelectedOptions `json:"selected_options"`
	Qty             int                   `json:"qty" validate:"required,min=1"`
}

// AddCartLine validates stock against the live product, freezes the unit
// price, and persists the line.
func AddCartLine(store *cart.Store, repo productReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := cartToken(r)
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token required"))
			return
		}

		var req addLineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !product.IsActive {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		loaded, err := store.Load(ctx, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		current := loaded.QtyOf(productID, req.SelectedOptions)
		availability := products.CheckAvailability(product, req.SelectedOptions, req.Qty, current)
		if !availability.Available {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeStock, availability.Message).WithDetails(availability))
			return
		}

		unitPrice := products.UnitPrice(product, req.SelectedOptions)
		if err := loaded.Add(product, req.SelectedOptions, req.Qty, unitPrice); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := store.Save(ctx, token, loaded); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, loaded)
	}
}

type setQtyRequest struct {
	ProductID       string                `json:"product_id" validate:"required,uuid"`
	SelectedOptions types.SelectedOptions `json:"selected_options"`
	Qty             int                   `json:"qty" validate:"min=0"`
}

func SetCartLineQty(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := cartToken(r)
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token required"))
			return
		}

		var req setQtyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		loaded, err := store.Load(ctx, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := loaded.SetQty(productID, req.SelectedOptions, req.Qty); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := store.Save(ctx, token, loaded); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, loaded)
	}
}

func ClearCart(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := cartToken(r)
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token required"))
			return
		}
		if err := store.Clear(ctx, token); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

type restoreRequest struct {
	GuestToken string `json:"guest_token" validate:"required"`
}

// RestoreCart merges the guest session cart into the authenticated user's
// cart after sign-in.
func RestoreCart(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in required"))
			return
		}

		var req restoreRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		merged, err := store.Restore(ctx, req.GuestToken, userID.String())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, merged)
	}
}
