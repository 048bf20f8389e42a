package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/snackdash/snackdash-core/pkg/types"
)

// CartLine persists one line of a cart. OptionsKey is the canonical encoding
// of Options and, together with CartKey and ItemRef, forms the line identity
// that upserts are keyed by.
type CartLine struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartKey       string            `gorm:"column:cart_key;not null;index:idx_cart_lines_identity,unique"`
	ItemRef       string            `gorm:"column:item_ref;not null;index:idx_cart_lines_identity,unique"`
	RestaurantRef string            `gorm:"column:restaurant_ref;not null"`
	UnitPrice     decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity      int               `gorm:"column:quantity;not null"`
	Options       types.LineOptions `gorm:"column:options;type:jsonb;serializer:json"`
	OptionsKey    string            `gorm:"column:options_key;not null;index:idx_cart_lines_identity,unique"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartLine) TableName() string {
	return "cart_lines"
}

func (l *CartLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
