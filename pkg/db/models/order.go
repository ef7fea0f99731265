package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
)

// Order is one storefront order. Exactly one row exists per payment intent
// (unique index on payment_intent_id); the draft upsert relies on that
// conflict target. Payment fields are owned by the webhook processor and are
// never written by the draft path.
type Order struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentIntentID string    `gorm:"column:payment_intent_id;not null;uniqueIndex:idx_orders_payment_intent_id"`

	UserID        *uuid.UUID `gorm:"column:user_id;type:uuid"`
	CustomerName  string     `gorm:"column:customer_name;not null"`
	CustomerEmail string     `gorm:"column:customer_email;not null"`
	CustomerPhone *string    `gorm:"column:customer_phone"`
	PostalCode    string     `gorm:"column:postal_code;not null"`
	Prefecture    string     `gorm:"column:prefecture;not null"`
	City          string     `gorm:"column:city;not null"`
	AddressLine   string     `gorm:"column:address_line;not null"`

	SubtotalYen int `gorm:"column:subtotal_yen;not null"`
	ShippingYen int `gorm:"column:shipping_yen;not null;default:0"`
	DiscountYen int `gorm:"column:discount_yen;not null;default:0"`
	TotalYen    int `gorm:"column:total_yen;not null"`

	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	OrderStatus   enums.OrderStatus   `gorm:"column:order_status;not null;default:'pending'"`
	PaymentMethod *string             `gorm:"column:payment_method"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`

	CouponID *uuid.UUID `gorm:"column:coupon_id;type:uuid"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
