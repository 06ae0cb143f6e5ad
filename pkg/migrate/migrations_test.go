package migrate_test

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestMigrationsApplyOnSQLite(t *testing.T) {
	sqlDB := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, migrate.Run(ctx, sqlDB, db.DialectSQLite, "migrations", "up"))

	for _, table := range []string{"users", "brands", "categories", "products", "addresses", "cart_lines", "purchases"} {
		var name string
		err := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoErrorf(t, err, "table %s missing", table)
	}

	userID := uuid.NewString()
	productID := uuid.NewString()
	_, err := sqlDB.Exec("INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)", userID, "a@example.com", "hash")
	require.NoError(t, err)
	_, err = sqlDB.Exec("INSERT INTO products (id, name, price, offer_price, stock) VALUES (?, ?, ?, ?, ?)", productID, "Tea", "10.00", "8.00", 5)
	require.NoError(t, err)

	insertLine := func(status int) error {
		_, err := sqlDB.Exec(
			"INSERT INTO cart_lines (id, user_id, product_id, quantity, status) VALUES (?, ?, ?, ?, ?)",
			uuid.NewString(), userID, productID, 1, status,
		)
		return err
	}
	require.NoError(t, insertLine(1))
	require.Error(t, insertLine(1), "a second active line for the same owner/product must be rejected")
	require.NoError(t, insertLine(2), "deleted lines must not collide with the active one")

	_, err = sqlDB.Exec(
		"INSERT INTO cart_lines (id, user_id, session_id, product_id, quantity) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), userID, "sess", productID, 1,
	)
	require.Error(t, err, "a line must not carry both owners")

	_, err = sqlDB.Exec("UPDATE products SET stock = -1 WHERE id = ?", productID)
	require.Error(t, err, "stock must stay non-negative")

	require.NoError(t, migrate.Run(ctx, sqlDB, db.DialectSQLite, "migrations", "reset"))
	var count int
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'cart_lines'").Scan(&count))
	require.Zero(t, count)
}

func TestRunnerVersionAndStatus(t *testing.T) {
	sqlDB := openSQLite(t)
	ctx := context.Background()

	runner, err := migrate.NewRunner(sqlDB, db.DialectSQLite, "")
	require.NoError(t, err)

	require.NoError(t, runner.ToVersion(ctx, "20260301090100"))
	var count int
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'purchases'").Scan(&count))
	require.Zero(t, count, "purchases belongs to a later version")

	applied, err := runner.Up(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, applied)

	var out bytes.Buffer
	require.NoError(t, runner.Status(ctx, &out))
	require.Contains(t, out.String(), "20260301090400")
	require.NotContains(t, out.String(), "pending")

	require.NoError(t, runner.Down(ctx))
	require.NoError(t, sqlDB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'purchases'").Scan(&count))
	require.Zero(t, count)

	require.Error(t, runner.ToVersion(ctx, "yesterday"))
}

func TestCartLinesMigrationContainsActiveUniqueIndexes(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_cart_lines_table.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no cart lines migration file found")

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS cart_lines",
		"ON cart_lines (user_id, product_id) WHERE status = 1",
		"ON cart_lines (session_id, product_id) WHERE status = 1",
		"CHECK (quantity > 0)",
		"DROP TABLE IF EXISTS cart_lines",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDir(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))

	dir := t.TempDir()
	require.Error(t, migrate.ValidateDir(dir), "empty dir should fail")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))

	unbalanced := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260401000000_add_trigger.sql"), []byte(unbalanced), 0o644))
	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad-name.sql")
	require.Contains(t, err.Error(), "StatementEnd")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Product Images!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_product_images.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}
