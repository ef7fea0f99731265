package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
)

// Coupon is a storefront discount code. UsageCount is only ever mutated by
// the atomic increment on successful payment, never read-modify-written in
// application code.
type Coupon struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code         string             `gorm:"column:code;not null;uniqueIndex:idx_coupons_code"`
	DiscountType enums.DiscountType `gorm:"column:discount_type;not null"`
	Amount       int                `gorm:"column:amount;not null"`
	UsageLimit   *int               `gorm:"column:usage_limit"`
	UsageCount   int                `gorm:"column:usage_count;not null;default:0"`
	ActiveFrom   *time.Time         `gorm:"column:active_from"`
	ActiveUntil  *time.Time         `gorm:"column:active_until"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
