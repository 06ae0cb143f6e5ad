package cart

import (
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

// LineView is the public shape of one cart line.
type LineView struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CartView is the effective cart for an identity, ordered by line creation.
type CartView struct {
	Lines []LineView `json:"lines"`
}

// TotalQuantity sums every line quantity.
func (v CartView) TotalQuantity() int {
	total := 0
	for _, line := range v.Lines {
		total += line.Quantity
	}
	return total
}

func toLineView(line models.CartLine) LineView {
	return LineView{ProductID: line.ProductID, Quantity: line.Quantity}
}

func toCartView(lines []models.CartLine) *CartView {
	view := &CartView{Lines: make([]LineView, 0, len(lines))}
	for _, line := range lines {
		view.Lines = append(view.Lines, toLineView(line))
	}
	return view
}
