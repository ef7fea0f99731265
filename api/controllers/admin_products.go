package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/api/responses"
	"github.com/nino-0813/honma-ec-sub000/api/validators"
	"github.com/nino-0813/honma-ec-sub000/internal/products"
	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
)

type productRequest struct {
	Title          string              `json:"title" validate:"required"`
	Description    *string             `json:"description"`
	PriceYen       int                 `json:"price_yen" validate:"min=0"`
	Stock          *int                `json:"stock"`
	HasVariants    bool                `json:"has_variants"`
	VariantsConfig models.VariantTypes `json:"variants_config"`
	ImagePath      *string             `json:"image_path"`
	IsActive       bool                `json:"is_active"`
}

func (req *productRequest) toModel() *models.Product {
	return &models.Product{
		Title:          req.Title,
		Description:    req.Description,
		PriceYen:       req.PriceYen,
		Stock:          req.Stock,
		HasVariants:    req.HasVariants,
		VariantsConfig: req.VariantsConfig,
		ImagePath:      req.ImagePath,
		IsActive:       req.IsActive,
	}
}

func AdminCreateProduct(repo products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req productRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		created, err := repo.Create(ctx, req.toModel())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminUpdateProduct(repo products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}
		var req productRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		product := req.toModel()
		product.ID = productID
		if err := repo.Update(ctx, product); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		updated, err := repo.FindByID(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func AdminDeleteProduct(repo products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}
		if err := repo.Delete(ctx, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
