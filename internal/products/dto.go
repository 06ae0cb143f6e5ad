package product

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID        `json:"id"`
	BrandID     *uuid.UUID       `json:"brand_id,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	OfferPrice  decimal.Decimal  `json:"offer_price"`
	Stock       int              `json:"stock"`
	IsProtected bool             `json:"is_protected"`
	Status      enums.StatusCode `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// BrandDTO is the brand payload.
type BrandDTO struct {
	ID     uuid.UUID        `json:"id"`
	Name   string           `json:"name"`
	Slug   string           `json:"slug"`
	Status enums.StatusCode `json:"status"`
}

// CategoryDTO is a category with its visible children.
type CategoryDTO struct {
	ID       uuid.UUID        `json:"id"`
	ParentID *uuid.UUID       `json:"parent_id,omitempty"`
	Name     string           `json:"name"`
	Slug     string           `json:"slug"`
	Status   enums.StatusCode `json:"status"`
	Children []CategoryDTO    `json:"children"`
}

// ProductListResult is one page of catalog products.
type ProductListResult = pagination.Page[ProductDTO]

func toProductDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		BrandID:     p.BrandID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		OfferPrice:  p.OfferPrice,
		Stock:       p.Stock,
		IsProtected: p.IsProtected,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toBrandDTO(b models.Brand) BrandDTO {
	return BrandDTO{ID: b.ID, Name: b.Name, Slug: b.Slug, Status: b.Status}
}

func toCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:       c.ID,
		ParentID: c.ParentID,
		Name:     c.Name,
		Slug:     c.Slug,
		Status:   c.Status,
		Children: []CategoryDTO{},
	}
}

// buildCategoryTree nests categories under their parents. Children whose
// parent is not in rows are dropped, so a hidden parent hides its subtree.
func buildCategoryTree(rows []models.Category) []CategoryDTO {
	children := make(map[uuid.UUID][]models.Category)
	var roots []models.Category
	for _, row := range rows {
		if row.ParentID == nil {
			roots = append(roots, row)
			continue
		}
		children[*row.ParentID] = append(children[*row.ParentID], row)
	}

	var attach func(models.Category) CategoryDTO
	attach = func(c models.Category) CategoryDTO {
		dto := toCategoryDTO(c)
		for _, child := range children[c.ID] {
			dto.Children = append(dto.Children, attach(child))
		}
		return dto
	}

	out := make([]CategoryDTO, 0, len(roots))
	for _, root := range roots {
		out = append(out, attach(root))
	}
	return out
}
