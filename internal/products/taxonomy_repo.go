package product

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
)

func (r *repository) GetBrand(ctx context.Context, id uuid.UUID, mode visibility.Mode) (*models.Brand, error) {
	var brand models.Brand
	if err := r.db.WithContext(ctx).Scopes(visibility.Scope(mode)).Where("id = ?", id).Take(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *repository) ListBrands(ctx context.Context, mode visibility.Mode) ([]models.Brand, error) {
	var rows []models.Brand
	if err := r.db.WithContext(ctx).
		Scopes(visibility.Scope(mode)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateBrand(ctx context.Context, brand *models.Brand) error {
	if brand.Status == 0 {
		brand.Status = enums.StatusActive
	}
	return r.db.WithContext(ctx).Create(brand).Error
}

func (r *repository) UpdateBrand(ctx context.Context, brand *models.Brand) error {
	return r.db.WithContext(ctx).Save(brand).Error
}

func (r *repository) SoftDeleteBrand(ctx context.Context, id uuid.UUID) (int64, error) {
	return db.SoftDelete(r.db.WithContext(ctx), &models.Brand{}, "id = ?", id)
}

func (r *repository) GetCategory(ctx context.Context, id uuid.UUID, mode visibility.Mode) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Scopes(visibility.Scope(mode)).Where("id = ?", id).Take(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) ListCategories(ctx context.Context, mode visibility.Mode) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).
		Scopes(visibility.Scope(mode)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.Status == 0 {
		category.Status = enums.StatusActive
	}
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) UpdateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *repository) SoftDeleteCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	return db.SoftDelete(r.db.WithContext(ctx), &models.Category{}, "id = ?", id)
}
