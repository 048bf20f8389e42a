package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/snackdash/snackdash-core/pkg/enums"
)

// Order persists an order header. Monetary fields are captured at placement
// time and never recomputed.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartKey            string              `gorm:"column:cart_key;not null;index"`
	RestaurantRef      string              `gorm:"column:restaurant_ref;not null"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee        decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Discount           decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null"`
	Total              decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;not null"`
	DeliveryAddressRef string              `gorm:"column:delivery_address_ref;not null"`
	Status             enums.OrderStatus   `gorm:"column:status;not null;default:'created'"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
