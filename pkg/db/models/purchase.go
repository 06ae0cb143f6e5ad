package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Purchase is the frozen record written at checkout. Only PaymentStatus and
// OrderStatus change after creation.
type Purchase struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	ProductID        uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	AddressID        *uuid.UUID        `gorm:"column:address_id;type:uuid"`
	Quantity         int               `gorm:"column:quantity;not null"`
	ProductPrice     decimal.Decimal   `gorm:"column:product_price;type:numeric(12,2);not null"`
	PaymentStatus    bool              `gorm:"column:payment_status;not null;default:false"`
	OrderStatus      enums.OrderStatus `gorm:"column:order_status;not null;default:'ORDERED'"`
	ShippingSnapshot datatypes.JSON    `gorm:"column:shipping_snapshot;type:jsonb"`
	Status           enums.StatusCode  `gorm:"column:status;not null;default:1"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Purchase) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Total is quantity times the unit price captured at purchase time.
func (p Purchase) Total() decimal.Decimal {
	return p.ProductPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}
