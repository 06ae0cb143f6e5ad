package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string           `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	FirstName    string           `gorm:"column:first_name;not null"`
	LastName     string           `gorm:"column:last_name;not null"`
	Phone        *string          `gorm:"column:phone"`
	RegionCode   *string          `gorm:"column:region_code"`
	Currency     enums.Currency   `gorm:"column:currency;not null;default:'rupee'"`
	IsAdmin      bool             `gorm:"column:is_admin;not null;default:false"`
	IsStaff      bool             `gorm:"column:is_staff;not null;default:false"`
	IsSuperAdmin bool             `gorm:"column:is_superadmin;not null;default:false"`
	Status       enums.StatusCode `gorm:"column:status;not null;default:1"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
