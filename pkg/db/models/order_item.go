package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nino-0813/honma-ec-sub000/pkg/types"
)

// OrderItem snapshots one cart line at draft time. UnitPriceYen is the
// post-adjustment price frozen when the line was added to the cart; the row
// set is replaced wholesale on every draft upsert and is immutable once the
// order is paid.
type OrderItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	ProductTitle    string                `gorm:"column:product_title;not null"`
	UnitPriceYen    int                   `gorm:"column:unit_price_yen;not null"`
	SelectedOptions types.SelectedOptions `gorm:"column:selected_options;type:jsonb;serializer:json"`
	Qty             int                   `gorm:"column:qty;not null"`
	LineTotalYen    int                   `gorm:"column:line_total_yen;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
