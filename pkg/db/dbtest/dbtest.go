// Package dbtest opens migrated in-memory SQLite databases and seeds fixtures
// for repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a client over a private in-memory database with every migration applied.
func Open(t testing.TB) *db.Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if _, err := migrate.ApplyEmbedded(context.Background(), sqlDB, db.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db.NewFromGorm(conn)
}

// MustUser inserts an ACTIVE user.
func MustUser(t testing.TB, conn *gorm.DB, mutate ...func(*models.User)) *models.User {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("sf_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Repo",
		LastName:     "Tester",
		Currency:     enums.CurrencyRupee,
		Status:       enums.StatusActive,
	}
	for _, fn := range mutate {
		fn(user)
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// MustProduct inserts an ACTIVE product priced at price with the given stock.
func MustProduct(t testing.TB, conn *gorm.DB, price string, stock int, mutate ...func(*models.Product)) *models.Product {
	t.Helper()
	p := decimal.RequireFromString(price)
	product := &models.Product{
		Name:       fmt.Sprintf("Product %s", uuid.NewString()[:8]),
		Price:      p,
		OfferPrice: p,
		Stock:      stock,
		Status:     enums.StatusActive,
	}
	for _, fn := range mutate {
		fn(product)
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// MustAddress inserts an ACTIVE address owned by userID.
func MustAddress(t testing.TB, conn *gorm.DB, userID uuid.UUID) *models.Address {
	t.Helper()
	address := &models.Address{
		UserID:     userID,
		FullName:   "Repo Tester",
		Line1:      "221B Baker Street",
		City:       "London",
		State:      "LDN",
		PostalCode: "NW16XE",
		Country:    "GB",
		Status:     enums.StatusActive,
	}
	if err := conn.Create(address).Error; err != nil {
		t.Fatalf("create address: %v", err)
	}
	return address
}

// ProductStock reads the persisted stock for productID.
func ProductStock(t testing.TB, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := conn.Select("stock").Where("id = ?", productID).Take(&product).Error; err != nil {
		t.Fatalf("load product stock: %v", err)
	}
	return product.Stock
}
