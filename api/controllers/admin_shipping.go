package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/api/responses"
	"github.com/nino-0813/honma-ec-sub000/api/validators"
	"github.com/nino-0813/honma-ec-sub000/internal/shipping"
	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
)

type shippingMethodRequest struct {
	Name           string            `json:"name" validate:"required"`
	FeeType        string            `json:"fee_type" validate:"required"`
	UniformFee     int               `json:"uniform_fee" validate:"min=0"`
	AreaFees       models.AreaFees   `json:"area_fees"`
	SizeFees       []models.SizeFee  `json:"size_fees"`
	MaxItemsPerBox int               `json:"max_items_per_box" validate:"min=0"`
}

func (req *shippingMethodRequest) toModel() (*models.ShippingMethod, error) {
	feeType, err := enums.ParseShippingFeeType(req.FeeType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fee type")
	}
	return &models.ShippingMethod{
		Name:           req.Name,
		FeeType:        feeType,
		UniformFee:     req.UniformFee,
		AreaFees:       req.AreaFees,
		SizeFees:       req.SizeFees,
		MaxItemsPerBox: req.MaxItemsPerBox,
	}, nil
}

func AdminListShippingMethods(repo shipping.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, err := repo.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminCreateShippingMethod(repo shipping.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req shippingMethodRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		method, err := req.toModel()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		created, err := repo.Create(ctx, method)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminUpdateShippingMethod(repo shipping.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		methodID, err := uuid.Parse(chi.URLParam(r, "methodID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method id"))
			return
		}
		var req shippingMethodRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		method, err := req.toModel()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		method.ID = methodID
		if err := repo.Update(ctx, method); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		updated, err := repo.FindByID(ctx, methodID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func AdminDeleteShippingMethod(repo shipping.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		methodID, err := uuid.Parse(chi.URLParam(r, "methodID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method id"))
			return
		}
		if err := repo.Delete(ctx, methodID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

type linkProductsRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,dive,uuid"`
}

// AdminLinkShippingProducts replaces the set of products a method ships.
func AdminLinkShippingProducts(repo shipping.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		methodID, err := uuid.Parse(chi.URLParam(r, "methodID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method id"))
			return
		}
		var req linkProductsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productIDs := make([]uuid.UUID, 0, len(req.ProductIDs))
		for _, raw := range req.ProductIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
				return
			}
			productIDs = append(productIDs, id)
		}
		if err := repo.LinkProducts(ctx, methodID, productIDs); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		method, err := repo.FindByID(ctx, methodID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, method)
	}
}
