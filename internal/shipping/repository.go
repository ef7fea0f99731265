package shipping

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
)

// Repository defines persistence operations for shipping methods and their
// product links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error)
	List(ctx context.Context) ([]models.ShippingMethod, error)
	Create(ctx context.Context, method *models.ShippingMethod) (*models.ShippingMethod, error)
	Update(ctx context.Context, method *models.ShippingMethod) error
	Delete(ctx context.Context, id uuid.UUID) error
	MethodsForProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]models.ShippingMethod, error)
	LinkProducts(ctx context.Context, methodID uuid.UUID, productIDs []uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&method).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping method not found")
		}
		return nil, err
	}
	return &method, nil
}

func (r *repository) List(ctx context.Context) ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *repository) Create(ctx context.Context, method *models.ShippingMethod) (*models.ShippingMethod, error) {
	if !method.FeeType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fee type")
	}
	if err := r.db.WithContext(ctx).Create(method).Error; err != nil {
		return nil, err
	}
	return method, nil
}

func (r *repository) Update(ctx context.Context, method *models.ShippingMethod) error {
	if !method.FeeType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid fee type")
	}
	return r.db.WithContext(ctx).Save(method).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ShippingMethod{}, "id = ?", id).Error
}

// MethodsForProducts loads every method linked to any of the given products,
// keyed by product. Products without links are simply absent from the map.
func (r *repository) MethodsForProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]models.ShippingMethod, error) {
	out := make(map[uuid.UUID][]models.ShippingMethod)
	if len(productIDs) == 0 {
		return out, nil
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("ShippingMethods").
		Where("id IN ?", productIDs).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	for i := range products {
		if len(products[i].ShippingMethods) > 0 {
			out[products[i].ID] = products[i].ShippingMethods
		}
	}
	return out, nil
}

// LinkProducts replaces the set of products a method applies to.
func (r *repository) LinkProducts(ctx context.Context, methodID uuid.UUID, productIDs []uuid.UUID) error {
	method, err := r.FindByID(ctx, methodID)
	if err != nil {
		return err
	}
	products := make([]models.Product, 0, len(productIDs))
	for _, id := range productIDs {
		products = append(products, models.Product{ID: id})
	}
	return r.db.WithContext(ctx).Model(method).Association("Products").Replace(products)
}
