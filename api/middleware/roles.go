package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type userLookup interface {
	Get(ctx context.Context, id uuid.UUID, includeDeleted bool) (*users.UserDTO, error)
}

// RequireSuperAdmin gates admin routes on the superadmin claim.
func RequireSuperAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsSuperAdminFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "superadmin required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireActiveUser rejects tokens whose account was blocked or deleted after issue.
func RequireActiveUser(lookup userLookup, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserUUIDFromContext(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			user, err := lookup.Get(r.Context(), userID, false)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					err = pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if user.Status != enums.StatusActive {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account is not active, contact admin"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
