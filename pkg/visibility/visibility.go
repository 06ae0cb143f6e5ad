package visibility

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

// Mode selects which lifecycle states a read may return.
type Mode int

const (
	// Live returns ACTIVE rows only. Every default list/get uses it.
	Live Mode = iota
	// History returns rows in any state, soft-deleted included.
	History
)

// ModeFor maps an include-deleted request flag onto a Mode.
func ModeFor(includeDeleted bool) Mode {
	if includeDeleted {
		return History
	}
	return Live
}

// Scope returns the GORM scope enforcing mode.
func Scope(mode Mode) func(*gorm.DB) *gorm.DB {
	if mode == History {
		return func(tx *gorm.DB) *gorm.DB { return tx }
	}
	return db.Active
}

// EnsureVisible hides non-ACTIVE rows behind NotFound so soft-deleted entities never leak into live reads.
func EnsureVisible(status enums.StatusCode, mode Mode, entity string) error {
	if mode == History || status.IsActive() {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", entity)
}

// EnsureTransition applies the shared lifecycle: nothing leaves DELETED.
func EnsureTransition(current, next enums.StatusCode, entity string) error {
	if !next.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %d", int(next))
	}
	if !current.CanTransitionTo(next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s cannot move from %s to %s", entity, current, next))
	}
	return nil
}
