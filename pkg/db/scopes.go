package db

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"gorm.io/gorm"
)

// Active restricts a query to rows whose status is ACTIVE.
func Active(tx *gorm.DB) *gorm.DB {
	return tx.Where("status = ?", enums.StatusActive)
}

// ActiveIn is Active qualified with a table name for joined queries.
func ActiveIn(table string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(table+".status = ?", enums.StatusActive)
	}
}

// NotDeleted hides DELETED rows but keeps the other lifecycle states.
func NotDeleted(tx *gorm.DB) *gorm.DB {
	return tx.Where("status <> ?", enums.StatusDeleted)
}

// SoftDelete flips matching rows to DELETED and returns the affected count.
func SoftDelete(tx *gorm.DB, model any, query string, args ...any) (int64, error) {
	res := tx.Model(model).
		Where(query, args...).
		Where("status <> ?", enums.StatusDeleted).
		Updates(map[string]any{
			"status":     enums.StatusDeleted,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
