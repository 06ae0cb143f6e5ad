package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartSessionHeader carries the opaque anonymous cart token in both directions.
const CartSessionHeader = "X-Cart-Session"

type cartIdentifier interface {
	Identify(ctx context.Context, sessionToken string) (cart.Identity, error)
	Recognize(ctx context.Context, sessionToken string) (cart.Identity, error)
}

// CartIdentity resolves the cart owner once per request. A valid bearer token
// selects the user's cart; otherwise the X-Cart-Session token is looked up.
// Only POST mints a fresh session, which is echoed back in the response header.
func CartIdentity(cfg config.JWTConfig, verifier session.AccessSessionChecker, identifier cartIdentifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := bearerToken(r); token != "" {
				claims, err := verifyAccessToken(ctx, cfg, verifier, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				ctx = withClaims(ctx, claims, logg)
				ctx = cart.WithIdentity(ctx, cart.Authenticated(claims.UserID))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			resolve := identifier.Recognize
			if r.Method == http.MethodPost {
				resolve = identifier.Identify
			}
			ident, err := resolve(ctx, strings.TrimSpace(r.Header.Get(CartSessionHeader)))
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if ident.IsPending() {
				next.ServeHTTP(w, r.WithContext(cart.WithIdentity(ctx, ident)))
				return
			}
			w.Header().Set(CartSessionHeader, ident.SessionToken())
			if logg != nil {
				ctx = logg.WithCartSession(ctx, ident.SessionID())
			}
			next.ServeHTTP(w, r.WithContext(cart.WithIdentity(ctx, ident)))
		})
	}
}
