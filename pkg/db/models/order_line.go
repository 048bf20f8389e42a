package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/snackdash/snackdash-core/pkg/types"
)

// OrderLine is the immutable snapshot of one cart line at order time.
type OrderLine struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	ItemRef   string            `gorm:"column:item_ref;not null"`
	UnitPrice decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int               `gorm:"column:quantity;not null"`
	Options   types.LineOptions `gorm:"column:options;type:jsonb;serializer:json"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLine) TableName() string {
	return "order_lines"
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
