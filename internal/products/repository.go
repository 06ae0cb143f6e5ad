package product

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes catalog persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetProduct(ctx context.Context, id uuid.UUID, mode visibility.Mode) (*models.Product, error)
	ListProducts(ctx context.Context, query ProductQuery) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	SoftDeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)

	GetBrand(ctx context.Context, id uuid.UUID, mode visibility.Mode) (*models.Brand, error)
	ListBrands(ctx context.Context, mode visibility.Mode) ([]models.Brand, error)
	CreateBrand(ctx context.Context, brand *models.Brand) error
	UpdateBrand(ctx context.Context, brand *models.Brand) error
	SoftDeleteBrand(ctx context.Context, id uuid.UUID) (int64, error)

	GetCategory(ctx context.Context, id uuid.UUID, mode visibility.Mode) (*models.Category, error)
	ListCategories(ctx context.Context, mode visibility.Mode) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	SoftDeleteCategory(ctx context.Context, id uuid.UUID) (int64, error)
}

// ProductQuery filters catalog listings.
type ProductQuery struct {
	CategoryID *uuid.UUID
	BrandID    *uuid.UUID
	Search     string
	Mode       visibility.Mode
	Page       pagination.Params
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the catalog repository to conn.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

// WithTx binds the repository to a transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetProduct(ctx context.Context, id uuid.UUID, mode visibility.Mode) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Scopes(visibility.Scope(mode)).
		Where("id = ?", id).
		Take(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListProducts(ctx context.Context, query ProductQuery) ([]models.Product, error) {
	page, err := pagination.Apply("products", query.Page)
	if err != nil {
		return nil, err
	}
	tx := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(visibility.Scope(query.Mode), page)
	if query.CategoryID != nil {
		tx = tx.Where("category_id = ?", *query.CategoryID)
	}
	if query.BrandID != nil {
		tx = tx.Where("brand_id = ?", *query.BrandID)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var rows []models.Product
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.Status == 0 {
		product.Status = enums.StatusActive
	}
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repository) SoftDeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	return db.SoftDelete(r.db.WithContext(ctx), &models.Product{}, "id = ?", id)
}

// DecrementStock subtracts qty from an ACTIVE product only when enough stock
// remains. It reports false when the guard rejected the update.
func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ? AND status = ?",
		qty, time.Now().UTC(), id, qty, enums.StatusActive,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
