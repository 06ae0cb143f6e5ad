package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestIdentityVariants(t *testing.T) {
	var zero Identity
	if !zero.IsZero() || zero.IsAuthenticated() {
		t.Fatalf("zero identity should be empty and anonymous")
	}

	userID := uuid.New()
	user := Authenticated(userID)
	if !user.IsAuthenticated() || user.UserID() != userID || user.SessionID() != "" {
		t.Fatalf("unexpected authenticated identity %+v", user)
	}

	anon := Anonymous("tok", "sess")
	if anon.IsAuthenticated() || anon.IsZero() {
		t.Fatalf("anonymous identity should be resolved but not authenticated")
	}
	if anon.SessionToken() != "tok" || anon.SessionID() != "sess" {
		t.Fatalf("unexpected anonymous identity %+v", anon)
	}

	pending := PendingSession()
	if !pending.IsPending() || pending.IsZero() || pending.IsAuthenticated() || pending.SessionToken() != "" {
		t.Fatalf("unexpected pending identity %+v", pending)
	}
	if _, ok := IdentityFromContext(WithIdentity(context.Background(), pending)); !ok {
		t.Fatalf("pending identity should count as resolved")
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatalf("expected no identity on a bare context")
	}
	ctx := WithIdentity(context.Background(), Anonymous("tok", "sess"))
	ident, ok := IdentityFromContext(ctx)
	if !ok || ident.SessionID() != "sess" {
		t.Fatalf("expected identity from context, got %+v ok=%v", ident, ok)
	}
	if _, ok := IdentityFromContext(WithIdentity(context.Background(), Identity{})); ok {
		t.Fatalf("zero identity must not count as resolved")
	}
}
