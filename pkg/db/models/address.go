package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Address is a mailing address owned by a single user.
type Address struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	FullName   string           `gorm:"column:full_name;not null"`
	Phone      *string          `gorm:"column:phone"`
	Line1      string           `gorm:"column:line1;not null"`
	Line2      *string          `gorm:"column:line2"`
	City       string           `gorm:"column:city;not null"`
	State      string           `gorm:"column:state;not null"`
	PostalCode string           `gorm:"column:postal_code;not null"`
	Country    string           `gorm:"column:country;not null"`
	Status     enums.StatusCode `gorm:"column:status;not null;default:1"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
