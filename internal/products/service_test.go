package product

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOfferPrice(t *testing.T) {
	price := decimal.RequireFromString("100")

	got, err := resolveOfferPrice(price, nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(price), "offer price defaults to price")

	lower := decimal.RequireFromString("80")
	got, err = resolveOfferPrice(price, &lower)
	require.NoError(t, err)
	assert.True(t, got.Equal(lower))

	higher := decimal.RequireFromString("120")
	_, err = resolveOfferPrice(price, &higher)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestApplyProductUpdateKeepsFittingDiscount(t *testing.T) {
	product := &models.Product{
		Price:      decimal.RequireFromString("100"),
		OfferPrice: decimal.RequireFromString("80"),
		Status:     enums.StatusActive,
	}
	newPrice := decimal.RequireFromString("90")
	require.NoError(t, applyProductUpdate(product, UpdateProductInput{Price: &newPrice}))
	assert.Equal(t, "80", product.OfferPrice.String())

	lowerPrice := decimal.RequireFromString("70")
	require.NoError(t, applyProductUpdate(product, UpdateProductInput{Price: &lowerPrice}))
	assert.Equal(t, "70", product.OfferPrice.String(), "offer resets when it no longer fits")

	deleted := enums.StatusDeleted
	require.NoError(t, applyProductUpdate(product, UpdateProductInput{Status: &deleted}))
	active := enums.StatusActive
	err := applyProductUpdate(product, UpdateProductInput{Status: &active})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestBuildCategoryTree(t *testing.T) {
	root := models.Category{ID: uuid.New(), Name: "Drinks"}
	child := models.Category{ID: uuid.New(), ParentID: &root.ID, Name: "Tea"}
	orphanParent := uuid.New()
	orphan := models.Category{ID: uuid.New(), ParentID: &orphanParent, Name: "Hidden"}

	tree := buildCategoryTree([]models.Category{root, child, orphan})
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Tea", tree[0].Children[0].Name)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "green-tea-co", slugify("", "  Green Tea & Co. "))
	assert.Equal(t, "explicit", slugify("Explicit", "ignored"))
}

func TestCatalogFlow(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client)
	require.NoError(t, err)
	ctx := context.Background()

	brand, err := svc.CreateBrand(ctx, BrandInput{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "acme", brand.Slug)

	_, err = svc.CreateBrand(ctx, BrandInput{Name: "ACME"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err), "duplicate slug")

	parent, err := svc.CreateCategory(ctx, CategoryInput{Name: "Beverages"})
	require.NoError(t, err)
	child, err := svc.CreateCategory(ctx, CategoryInput{Name: "Tea", ParentID: &parent.ID})
	require.NoError(t, err)

	missing := uuid.New()
	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Loose", ParentID: &missing})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		BrandID:    &brand.ID,
		CategoryID: &child.ID,
		Name:       " Sencha ",
		Price:      decimal.RequireFromString("12.50"),
		Stock:      4,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sencha", created.Name)
	assert.True(t, created.OfferPrice.Equal(created.Price))

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Bad", Price: decimal.NewFromInt(1), Stock: -1})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	tree, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)

	page, err := svc.ListProducts(ctx, ListProductsInput{CategoryID: &child.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	page, err = svc.ListProducts(ctx, ListProductsInput{Search: "SENCH"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	_, err = svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Cursor: "%%%"}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.DeleteProduct(ctx, created.ID)))

	_, err = svc.GetProduct(ctx, created.ID, false)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err), "deleted products are hidden from live reads")

	history, err := svc.GetProduct(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, enums.StatusDeleted, history.Status)

	page, err = svc.ListProducts(ctx, ListProductsInput{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = svc.ListProducts(ctx, ListProductsInput{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestDecrementStockGuard(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	repo := NewRepository(conn)
	ctx := context.Background()
	product := dbtest.MustProduct(t, conn, "5.00", 3)

	ok, err := repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, dbtest.ProductStock(t, conn, product.ID))

	ok, err = repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "insufficient stock must not update")
	assert.Equal(t, 1, dbtest.ProductStock(t, conn, product.ID))

	_, err = repo.SoftDeleteProduct(ctx, product.ID)
	require.NoError(t, err)
	ok, err = repo.DecrementStock(ctx, product.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "deleted products cannot be sold")
}

func TestUpdateProduct(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client)
	require.NoError(t, err)
	ctx := context.Background()

	product := dbtest.MustProduct(t, client.DB(), "20.00", 1)
	offer := decimal.RequireFromString("15")
	name := "Renamed"
	protected := true
	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductInput{Name: &name, OfferPrice: &offer, IsProtected: &protected})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.OfferPrice.Equal(offer))
	assert.True(t, updated.IsProtected)

	tooHigh := decimal.RequireFromString("25")
	_, err = svc.UpdateProduct(ctx, product.ID, UpdateProductInput{OfferPrice: &tooHigh})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.UpdateProduct(ctx, uuid.New(), UpdateProductInput{Name: &name})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}
