package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the buyer's saved address book entry, keyed by the hosted auth
// service's user id. Refreshed opportunistically on every order draft.
type Profile struct {
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name"`
	Email       string    `gorm:"column:email"`
	Phone       *string   `gorm:"column:phone"`
	PostalCode  string    `gorm:"column:postal_code"`
	Prefecture  string    `gorm:"column:prefecture"`
	City        string    `gorm:"column:city"`
	AddressLine string    `gorm:"column:address_line"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
