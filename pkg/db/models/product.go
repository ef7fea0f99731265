package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a storefront listing. Stock is nullable: nil means the base
// stock is not tracked (unlimited). When HasVariants is set and the variant
// config is non-empty, availability is derived from the variant config rather
// than the base stock.
type Product struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title          string         `gorm:"column:title;not null"`
	Description    *string        `gorm:"column:description"`
	PriceYen       int            `gorm:"column:price_yen;not null"`
	Stock          *int           `gorm:"column:stock"`
	HasVariants    bool           `gorm:"column:has_variants;not null;default:false"`
	VariantsConfig VariantTypes   `gorm:"column:variants_config;type:jsonb;serializer:json"`
	LegacyVariants pq.StringArray `gorm:"column:legacy_variants;type:text[]"`
	ImagePath      *string        `gorm:"column:image_path"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true"`

	ShippingMethods []ShippingMethod `gorm:"many2many:product_shipping_methods;"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
