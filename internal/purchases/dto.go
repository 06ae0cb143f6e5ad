package purchases

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PurchaseDTO is the API view of a purchase. Total is derived, never stored.
type PurchaseDTO struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"user_id"`
	ProductID        uuid.UUID         `json:"product_id"`
	AddressID        *uuid.UUID        `json:"address_id,omitempty"`
	Quantity         int               `json:"quantity"`
	ProductPrice     decimal.Decimal   `json:"product_price"`
	Total            decimal.Decimal   `json:"total"`
	PaymentStatus    bool              `json:"payment_status"`
	OrderStatus      enums.OrderStatus `json:"order_status"`
	ShippingSnapshot datatypes.JSON    `json:"shipping_snapshot,omitempty"`
	Status           enums.StatusCode  `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ListInput drives the buyer purchase history.
type ListInput struct {
	IncludeDeleted bool
	Pagination     pagination.Params
}

// ListResult is one page of purchases plus the sum of the page totals.
type ListResult struct {
	pagination.Page[PurchaseDTO]
	PageTotal decimal.Decimal `json:"page_total"`
}

// ToDTO renders a purchase row.
func ToDTO(p models.Purchase) PurchaseDTO {
	return PurchaseDTO{
		ID:               p.ID,
		UserID:           p.UserID,
		ProductID:        p.ProductID,
		AddressID:        p.AddressID,
		Quantity:         p.Quantity,
		ProductPrice:     p.ProductPrice,
		Total:            p.Total(),
		PaymentStatus:    p.PaymentStatus,
		OrderStatus:      p.OrderStatus,
		ShippingSnapshot: p.ShippingSnapshot,
		Status:           p.Status,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
