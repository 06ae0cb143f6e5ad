package product

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/visibility"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *service) ListBrands(ctx context.Context) ([]BrandDTO, error) {
	rows, err := s.repo.ListBrands(ctx, visibility.Live)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	out := make([]BrandDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toBrandDTO(row))
	}
	return out, nil
}

func (s *service) CreateBrand(ctx context.Context, input BrandInput) (*BrandDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	brand := &models.Brand{Name: name, Slug: slugify(input.Slug, name), Status: enums.StatusActive}
	if brand.Slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	if err := s.repo.CreateBrand(ctx, brand); err != nil {
		return nil, conflictOr(err, "brand slug already exists", "db: insert brand")
	}
	dto := toBrandDTO(*brand)
	return &dto, nil
}

func (s *service) UpdateBrand(ctx context.Context, id uuid.UUID, input BrandInput) (*BrandDTO, error) {
	brand, err := s.repo.GetBrand(ctx, id, visibility.Live)
	if err != nil {
		return nil, notFoundOr(err, "brand not found", "load brand")
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		brand.Name = name
	}
	if strings.TrimSpace(input.Slug) != "" {
		brand.Slug = slugify(input.Slug, brand.Name)
	}
	if err := s.repo.UpdateBrand(ctx, brand); err != nil {
		return nil, conflictOr(err, "brand slug already exists", "db: update brand")
	}
	dto := toBrandDTO(*brand)
	return &dto, nil
}

func (s *service) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDeleteBrand(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete brand")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx, visibility.Live)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return buildCategoryTree(rows), nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := &models.Category{
		ParentID: input.ParentID,
		Name:     name,
		Slug:     slugify(input.Slug, name),
		Status:   enums.StatusActive,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.ParentID != nil {
			if _, err := repo.GetCategory(ctx, *input.ParentID, visibility.Live); err != nil {
				return validationOr(err, "parent category does not exist", "load parent category")
			}
		}
		if err := repo.CreateCategory(ctx, category); err != nil {
			return conflictOr(err, "category slug already exists", "db: insert category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toCategoryDTO(*category)
	return &dto, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	var updated *models.Category
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		category, err := repo.GetCategory(ctx, id, visibility.Live)
		if err != nil {
			return notFoundOr(err, "category not found", "load category")
		}
		if input.ParentID != nil {
			if *input.ParentID == id {
				return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
			}
			if _, err := repo.GetCategory(ctx, *input.ParentID, visibility.Live); err != nil {
				return validationOr(err, "parent category does not exist", "load parent category")
			}
			category.ParentID = input.ParentID
		}
		if name := strings.TrimSpace(input.Name); name != "" {
			category.Name = name
		}
		if strings.TrimSpace(input.Slug) != "" {
			category.Slug = slugify(input.Slug, category.Name)
		}
		if err := repo.UpdateCategory(ctx, category); err != nil {
			return conflictOr(err, "category slug already exists", "db: update category")
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toCategoryDTO(*updated)
	return &dto, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.SoftDeleteCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}
