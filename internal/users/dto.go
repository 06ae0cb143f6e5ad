package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID           uuid.UUID        `json:"id"`
	Email        string           `json:"email"`
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name"`
	Phone        *string          `json:"phone,omitempty"`
	RegionCode   *string          `json:"region_code,omitempty"`
	Currency     enums.Currency   `json:"currency"`
	IsAdmin      bool             `json:"is_admin"`
	IsStaff      bool             `json:"is_staff"`
	IsSuperAdmin bool             `json:"is_superadmin"`
	Status       enums.StatusCode `json:"status"`
	LastLoginAt  *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	RegionCode   *string
	Currency     enums.Currency
	Status       *enums.StatusCode
}

// ListResult is one page of users.
type ListResult = pagination.Page[UserDTO]

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		RegionCode:   u.RegionCode,
		Currency:     u.Currency,
		IsAdmin:      u.IsAdmin,
		IsStaff:      u.IsStaff,
		IsSuperAdmin: u.IsSuperAdmin,
		Status:       u.Status,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	status := enums.StatusActive
	if c.Status != nil {
		status = *c.Status
	}
	currency := c.Currency
	if currency == "" {
		currency = enums.CurrencyRupee
	}

	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Phone:        c.Phone,
		RegionCode:   c.RegionCode,
		Currency:     currency,
		Status:       status,
	}
}
