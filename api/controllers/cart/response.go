package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
)

type cartResponse struct {
	Lines         []lineResponse `json:"lines"`
	TotalQuantity int            `json:"total_quantity"`
	Anonymous     bool           `json:"anonymous"`
}

type lineResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

func newCartResponse(view *cartsvc.CartView, ident cartsvc.Identity) cartResponse {
	resp := cartResponse{Lines: []lineResponse{}, Anonymous: !ident.IsAuthenticated()}
	if view == nil {
		return resp
	}
	for _, line := range view.Lines {
		resp.Lines = append(resp.Lines, newLineResponse(line))
	}
	resp.TotalQuantity = view.TotalQuantity()
	return resp
}

func newLineResponse(line cartsvc.LineView) lineResponse {
	return lineResponse{ProductID: line.ProductID, Quantity: line.Quantity}
}
