package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// CartLine is one (owner, product) entry. Exactly one of UserID and SessionID is set.
type CartLine struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID       `gorm:"column:user_id;type:uuid"`
	SessionID *string          `gorm:"column:session_id"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int              `gorm:"column:quantity;not null"`
	Status    enums.StatusCode `gorm:"column:status;not null;default:1"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartLine) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
