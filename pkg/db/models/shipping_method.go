package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
)

// AreaFees maps a region key (e.g. "kanto") to a fee in yen.
type AreaFees map[string]int

// SizeFee is one box-size bucket of a size-priced shipping method. Buckets
// keep their configured order; fee lookups use the first bucket.
type SizeFee struct {
	Key            string   `json:"key"`
	AreaFees       AreaFees `json:"area_fees"`
	MaxItemsPerBox int      `json:"max_items_per_box"`
}

// ShippingMethod prices shipments with one of three policies: a single
// uniform fee, a per-area fee table, or per-box-size fee tables.
type ShippingMethod struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string                `gorm:"column:name;not null"`
	FeeType        enums.ShippingFeeType `gorm:"column:fee_type;not null"`
	UniformFee     int                   `gorm:"column:uniform_fee;not null;default:0"`
	AreaFees       AreaFees              `gorm:"column:area_fees;type:jsonb;serializer:json"`
	SizeFees       []SizeFee             `gorm:"column:size_fees;type:jsonb;serializer:json"`
	MaxItemsPerBox int                   `gorm:"column:max_items_per_box;not null;default:0"`

	Products []Product `gorm:"many2many:product_shipping_methods;"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
