package address

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// AddressDTO is the API representation of an address.
type AddressDTO struct {
	ID         uuid.UUID        `json:"id"`
	FullName   string           `json:"full_name"`
	Phone      *string          `json:"phone,omitempty"`
	Line1      string           `json:"line1"`
	Line2      *string          `json:"line2,omitempty"`
	City       string           `json:"city"`
	State      string           `json:"state"`
	PostalCode string           `json:"postal_code"`
	Country    string           `json:"country"`
	Status     enums.StatusCode `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Input carries the fields accepted on create and full update.
type Input struct {
	FullName   string
	Phone      *string
	Line1      string
	Line2      *string
	City       string
	State      string
	PostalCode string
	Country    string
}

func toDTO(a models.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
