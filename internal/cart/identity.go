package cart

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the cart owner for a request: an authenticated user or an
// anonymous visitor holding a session token. Exactly one side is set, unless
// the visitor is pending and has no session yet.
type Identity struct {
	userID       uuid.UUID
	sessionID    string
	sessionToken string
	pending      bool
}

// Authenticated returns the identity of a signed-in user.
func Authenticated(userID uuid.UUID) Identity {
	return Identity{userID: userID}
}

// Anonymous returns the identity of a visitor whose client holds token, which
// resolves to the cart session sessionID.
func Anonymous(token, sessionID string) Identity {
	return Identity{sessionID: sessionID, sessionToken: token}
}

// PendingSession returns the identity of a visitor who has not been issued a
// cart session. It owns no lines until the first add mints one.
func PendingSession() Identity {
	return Identity{pending: true}
}

// IsPending reports whether the visitor still has no cart session.
func (i Identity) IsPending() bool {
	return i.pending
}

// IsAuthenticated reports whether the identity belongs to a signed-in user.
func (i Identity) IsAuthenticated() bool {
	return i.userID != uuid.Nil
}

// IsZero reports whether no owner has been resolved.
func (i Identity) IsZero() bool {
	return i.userID == uuid.Nil && i.sessionID == "" && !i.pending
}

func (i Identity) UserID() uuid.UUID {
	return i.userID
}

func (i Identity) SessionID() string {
	return i.sessionID
}

// SessionToken is the opaque value the client echoes back in X-Cart-Session.
func (i Identity) SessionToken() string {
	return i.sessionToken
}

type identityKey struct{}

// WithIdentity stores the resolved identity on ctx.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// IdentityFromContext returns the identity resolved by middleware, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || ident.IsZero() {
		return Identity{}, false
	}
	return ident, true
}
