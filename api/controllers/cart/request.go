package cart

import "github.com/google/uuid"

// AddLineRequest adds quantity of a product to the caller's cart.
type AddLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// UpdateLineRequest sets the absolute quantity of an existing line.
type UpdateLineRequest struct {
	Quantity int `json:"quantity"`
}
