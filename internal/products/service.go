package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var slugSanitizeRe = regexp.MustCompile(`[^a-z0-9]+`)

// Service exposes catalog reads and admin writes.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID, includeDeleted bool) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListBrands(ctx context.Context) ([]BrandDTO, error)
	CreateBrand(ctx context.Context, input BrandInput) (*BrandDTO, error)
	UpdateBrand(ctx context.Context, id uuid.UUID, input BrandInput) (*BrandDTO, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// ListProductsInput drives catalog listing.
type ListProductsInput struct {
	CategoryID     *uuid.UUID
	BrandID        *uuid.UUID
	Search         string
	IncludeDeleted bool
	Pagination     pagination.Params
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	BrandID     *uuid.UUID
	CategoryID  *uuid.UUID
	Name        string
	Description *string
	Price       decimal.Decimal
	OfferPrice  *decimal.Decimal
	Stock       int
	IsProtected bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	BrandID     *uuid.UUID
	CategoryID  *uuid.UUID
	Name        *string
	Description *string
	Price       *decimal.Decimal
	OfferPrice  *decimal.Decimal
	Stock       *int
	IsProtected *bool
	Status      *enums.StatusCode
}

// BrandInput creates or renames a brand.
type BrandInput struct {
	Name string
	Slug string
}

// CategoryInput creates or edits a category.
type CategoryInput struct {
	ParentID *uuid.UUID
	Name     string
	Slug     string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService constructs the catalog service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID, includeDeleted bool) (*ProductDTO, error) {
	product, err := s.repo.GetProduct(ctx, id, visibility.ModeFor(includeDeleted))
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListProducts(ctx, ProductQuery{
		CategoryID: input.CategoryID,
		BrandID:    input.BrandID,
		Search:     input.Search,
		Mode:       visibility.ModeFor(input.IncludeDeleted),
		Page:       input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	dtos := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toProductDTO(row))
	}
	page := pagination.Build(dtos, input.Pagination.Limit, func(p ProductDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return &page, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	offer, err := resolveOfferPrice(input.Price, input.OfferPrice)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		BrandID:     input.BrandID,
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: trimPtr(input.Description),
		Price:       input.Price,
		OfferPrice:  offer,
		Stock:       input.Stock,
		IsProtected: input.IsProtected,
		Status:      enums.StatusActive,
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureTaxonomy(ctx, repo, input.BrandID, input.CategoryID); err != nil {
			return err
		}
		if err := repo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.GetProduct(ctx, id, visibility.History)
		if err != nil {
			return notFoundOr(err, "product not found", "load product")
		}
		if product.Status == enums.StatusDeleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if err := applyProductUpdate(product, input); err != nil {
			return err
		}
		if input.BrandID != nil || input.CategoryID != nil {
			if err := s.ensureTaxonomy(ctx, repo, input.BrandID, input.CategoryID); err != nil {
				return err
			}
		}
		if err := repo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toProductDTO(*updated)
	return &dto, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDeleteProduct(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) ensureTaxonomy(ctx context.Context, repo Repository, brandID, categoryID *uuid.UUID) error {
	if brandID != nil {
		if _, err := repo.GetBrand(ctx, *brandID, visibility.Live); err != nil {
			return validationOr(err, "brand does not exist", "load brand")
		}
	}
	if categoryID != nil {
		if _, err := repo.GetCategory(ctx, *categoryID, visibility.Live); err != nil {
			return validationOr(err, "category does not exist", "load category")
		}
	}
	return nil
}

func applyProductUpdate(product *models.Product, input UpdateProductInput) error {
	if input.BrandID != nil {
		product.BrandID = input.BrandID
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = trimPtr(input.Description)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.IsProtected != nil {
		product.IsProtected = *input.IsProtected
	}
	if input.Status != nil {
		if err := visibility.EnsureTransition(product.Status, *input.Status, "product"); err != nil {
			return err
		}
		product.Status = *input.Status
	}
	if input.Price != nil || input.OfferPrice != nil {
		price := product.Price
		if input.Price != nil {
			price = *input.Price
		}
		offerInput := input.OfferPrice
		if offerInput == nil && product.OfferPrice.LessThanOrEqual(price) && !product.OfferPrice.Equal(product.Price) {
			// keep a standing discount while it still fits under the new price
			kept := product.OfferPrice
			offerInput = &kept
		}
		offer, err := resolveOfferPrice(price, offerInput)
		if err != nil {
			return err
		}
		product.Price = price
		product.OfferPrice = offer
	}
	return nil
}

// resolveOfferPrice defaults the offer price to price and rejects offers above it.
func resolveOfferPrice(price decimal.Decimal, offer *decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if offer == nil {
		return price, nil
	}
	if offer.IsNegative() {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "offer_price cannot be negative")
	}
	if offer.GreaterThan(price) {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "offer_price cannot exceed price")
	}
	return *offer, nil
}

func slugify(explicit, name string) string {
	source := explicit
	if strings.TrimSpace(source) == "" {
		source = name
	}
	slug := slugSanitizeRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(source)), "-")
	return strings.Trim(slug, "-")
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func notFoundOr(err error, notFoundMsg, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func validationOr(err error, msg, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func conflictOr(err error, msg, action string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
