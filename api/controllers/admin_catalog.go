package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type createProductRequest struct {
	BrandID     *uuid.UUID       `json:"brand_id,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Name        string           `json:"name" validate:"required,max=200"`
	Description *string          `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price" validate:"money"`
	OfferPrice  *decimal.Decimal `json:"offer_price,omitempty" validate:"omitempty,money"`
	Stock       int              `json:"stock" validate:"min=0"`
	IsProtected bool             `json:"is_protected"`
}

type updateProductRequest struct {
	BrandID     *uuid.UUID       `json:"brand_id,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,money"`
	OfferPrice  *decimal.Decimal `json:"offer_price,omitempty" validate:"omitempty,money"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	IsProtected *bool            `json:"is_protected,omitempty"`
	Status      *string          `json:"status,omitempty"`
}

type brandRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Slug string `json:"slug,omitempty" validate:"omitempty,max=140"`
}

type categoryRequest struct {
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Name     string     `json:"name" validate:"required,max=120"`
	Slug     string     `json:"slug,omitempty" validate:"omitempty,max=140"`
}

func AdminProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseProductListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.IncludeDeleted, err = validators.ParseQueryBool(r, "include_deleted", false); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateProduct(r.Context(), product.CreateProductInput{
			BrandID:     payload.BrandID,
			CategoryID:  payload.CategoryID,
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			OfferPrice:  payload.OfferPrice,
			Stock:       payload.Stock,
			IsProtected: payload.IsProtected,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := product.UpdateProductInput{
			BrandID:     payload.BrandID,
			CategoryID:  payload.CategoryID,
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			OfferPrice:  payload.OfferPrice,
			Stock:       payload.Stock,
			IsProtected: payload.IsProtected,
		}
		if payload.Status != nil {
			status, err := enums.ParseStatusCode(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}

		dto, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return adminDelete("productId", func(ctx context.Context, id uuid.UUID) error { return svc.DeleteProduct(ctx, id) }, logg)
}

func AdminBrandCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload brandRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.CreateBrand(r.Context(), product.BrandInput{Name: payload.Name, Slug: payload.Slug})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminBrandUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload brandRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateBrand(r.Context(), brandID, product.BrandInput{Name: payload.Name, Slug: payload.Slug})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminBrandDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return adminDelete("brandId", func(ctx context.Context, id uuid.UUID) error { return svc.DeleteBrand(ctx, id) }, logg)
}

func AdminCategoryCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.CreateCategory(r.Context(), product.CategoryInput{ParentID: payload.ParentID, Name: payload.Name, Slug: payload.Slug})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminCategoryUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload categoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateCategory(r.Context(), categoryID, product.CategoryInput{ParentID: payload.ParentID, Name: payload.Name, Slug: payload.Slug})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminCategoryDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return adminDelete("categoryId", func(ctx context.Context, id uuid.UUID) error { return svc.DeleteCategory(ctx, id) }, logg)
}

// adminDelete soft-deletes the row named by the uuid route parameter. del is
// called per request, so the service may be unset when routes are built.
func adminDelete(param string, del func(ctx context.Context, id uuid.UUID) error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := del(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
