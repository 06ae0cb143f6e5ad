package cart

import (
	"context"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MergeOnLogin moves every active line of the session behind sessionToken into
// the user's cart, summing quantities per product, then removes the session
// rows and pointer. It returns the number of lines moved.
func (s *service) MergeOnLogin(ctx context.Context, sessionToken string, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if sessionToken == "" {
		return 0, nil
	}

	sessionID, ok, err := s.sessions.Lookup(ctx, sessionToken)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cart session")
	}
	if !ok {
		return 0, nil
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"user_id":         userID.String(),
		"cart_session_id": sessionID,
	})

	session := Anonymous(sessionToken, sessionID)
	owner := Authenticated(userID)
	moved := 0

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lines, err := repo.ListActive(ctx, session)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list session cart")
		}
		for _, line := range lines {
			if err := repo.Accumulate(ctx, owner, line.ProductID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
			}
		}
		if _, err := repo.DeleteSession(ctx, sessionID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session cart")
		}
		moved = len(lines)
		return nil
	}); err != nil {
		s.logg.Error(ctx, "cart.merge.failed", err)
		return 0, pkgerrors.Ensure(err, pkgerrors.CodeInternal, "merge cart")
	}

	// The rows are gone, so a stale pointer only resolves to an empty cart.
	if err := s.sessions.Clear(ctx, sessionToken); err != nil {
		s.logg.WarnErr(ctx, "cart.merge.session_clear_failed", err)
	}
	s.metrics.ObserveMerge(moved)
	s.logg.Info(s.logg.WithField(ctx, "lines_merged", moved), "cart.merge.completed")
	return moved, nil
}
