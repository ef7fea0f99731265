package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
)

// draftColumns are the columns the draft path may overwrite on conflict.
// Payment fields (payment_status, payment_method, paid_at) and order_status
// are deliberately absent so a racing webhook write is never regressed.
var draftColumns = []string{
	"user_id",
	"customer_name",
	"customer_email",
	"customer_phone",
	"postal_code",
	"prefecture",
	"city",
	"address_line",
	"subtotal_yen",
	"shipping_yen",
	"discount_yen",
	"total_yen",
	"coupon_id",
	"updated_at",
}

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	List(ctx context.Context, status *enums.OrderStatus, limit, offset int) ([]models.Order, error)
	UpsertDraft(ctx context.Context, order *models.Order, items []models.OrderItem) (uuid.UUID, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, paymentMethod string, paidAt time.Time) error
	MarkFailed(ctx context.Context, paymentIntentID string) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
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

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_intent_id = ?", paymentIntentID).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) List(ctx context.Context, status *enums.OrderStatus, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if status != nil {
		q = q.Where("order_status = ?", *status)
	}
	var list []models.Order
	if err := q.Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UpsertDraft writes or refreshes the pre-payment draft for a payment
// intent. On conflict only the address and totals columns are overwritten;
// items are replaced wholesale so the row set always mirrors the cart that
// produced the current totals.
func (r *repository) UpsertDraft(ctx context.Context, order *models.Order, items []models.OrderItem) (uuid.UUID, error) {
	if order == nil || order.PaymentIntentID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	var orderID uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		draft := *order
		draft.Items = nil
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_intent_id"}},
			DoUpdates: clause.AssignmentColumns(draftColumns),
		}).Create(&draft).Error
		if err != nil {
			return err
		}

		// The conflict path keeps the existing row's id, so re-read it.
		var existing models.Order
		if err := tx.Where("payment_intent_id = ?", order.PaymentIntentID).First(&existing).Error; err != nil {
			return err
		}
		orderID = existing.ID

		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = uuid.New()
			items[i].OrderID = orderID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return orderID, nil
}

// MarkPaid stamps payment on an order unless it is already paid.
func (r *repository) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentMethod string, paidAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", orderID, enums.PaymentStatusPaid).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"order_status":   enums.OrderStatusProcessing,
			"payment_method": paymentMethod,
			"paid_at":        paidAt,
		}).Error
}

func (r *repository) MarkFailed(ctx context.Context, paymentIntentID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_intent_id = ? AND payment_status <> ?", paymentIntentID, enums.PaymentStatusPaid).
		Update("payment_status", enums.PaymentStatusFailed).Error
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("order_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}
