package auth

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSessions struct {
	tokens    map[string]uuid.UUID
	secrets   map[string]string
	revoked   []string
	revokeErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[string]uuid.UUID{}, secrets: map[string]string{}}
}

func (f *fakeSessions) Generate(_ context.Context, userID uuid.UUID, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.tokens[accessID] = userID
	f.secrets[accessID] = token
	return token, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error) {
	owner, ok := f.tokens[oldAccessID]
	if !ok || owner != userID || f.secrets[oldAccessID] != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.tokens, oldAccessID)
	delete(f.secrets, oldAccessID)
	next := session.NewAccessID()
	token, err := f.Generate(ctx, userID, next)
	return next, token, err
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	delete(f.tokens, accessID)
	f.revoked = append(f.revoked, accessID)
	return nil
}

type fakeMerger struct {
	calls []string
	lines int
	err   error
}

func (f *fakeMerger) MergeOnLogin(_ context.Context, token string, _ uuid.UUID) (int, error) {
	f.calls = append(f.calls, token)
	if f.err != nil {
		return 0, f.err
	}
	if token == "" {
		return 0, nil
	}
	return f.lines, nil
}

var (
	testJWT = config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 15,
	}
	testPassword = config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
)

type authFixture struct {
	svc      Service
	conn     *gorm.DB
	sessions *fakeSessions
	merger   *fakeMerger
	logs     *bytes.Buffer
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	client := dbtest.Open(t)
	sessions := newFakeSessions()
	merger := &fakeMerger{lines: 2}
	logs := &bytes.Buffer{}
	svc, err := NewService(ServiceParams{
		Logger:         logger.New(logger.Options{Output: logs}),
		UserRepo:       users.NewRepository(client.DB()),
		SessionManager: sessions,
		Cart:           merger,
		JWTConfig:      testJWT,
		PasswordConfig: testPassword,
	})
	require.NoError(t, err)
	return authFixture{svc: svc, conn: client.DB(), sessions: sessions, merger: merger, logs: logs}
}

func (f authFixture) seedUser(t *testing.T, email, password string, status enums.StatusCode) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPassword)
	require.NoError(t, err)
	return dbtest.MustUser(t, f.conn, func(u *models.User) {
		u.Email = email
		u.PasswordHash = hash
		u.Status = status
	})
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	req := RegisterRequest{
		Email:     "  New@Example.com ",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Currency:  "dollar",
	}

	user, err := f.svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, enums.CurrencyDollar, user.Currency)
	assert.Equal(t, enums.StatusActive, user.Status)

	_, err = f.svc.Register(ctx, req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	req.Email = "other@example.com"
	req.Currency = "euro"
	_, err = f.svc.Register(ctx, req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLoginIssuesTokensAndMergesCart(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "buyer@example.com", "s3cret-pass", enums.StatusActive)

	resp, err := f.svc.Login(context.Background(), LoginRequest{Email: "Buyer@example.com", Password: "s3cret-pass"}, "cart-token")
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, 2, resp.MergedLines)
	assert.Equal(t, []string{"cart-token"}, f.merger.calls)
	require.NotNil(t, resp.User.LastLoginAt)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "refresh-"+claims.ID, resp.RefreshToken)
}

func TestLoginStatusGating(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.seedUser(t, "pending@example.com", "pw-123456", enums.StatusUnverified)
	f.seedUser(t, "blocked@example.com", "pw-123456", enums.StatusBlocked)
	f.seedUser(t, "active@example.com", "pw-123456", enums.StatusActive)

	cases := []struct {
		name    string
		email   string
		pass    string
		code    pkgerrors.Code
		message string
	}{
		{"unknown email", "ghost@example.com", "pw-123456", pkgerrors.CodeValidation, unknownEmailMessage},
		{"wrong password", "active@example.com", "nope", pkgerrors.CodeUnauthorized, invalidCredentialsMessage},
		{"unverified", "pending@example.com", "pw-123456", pkgerrors.CodeUnauthorized, unverifiedMessage},
		{"blocked", "blocked@example.com", "pw-123456", pkgerrors.CodeForbidden, blockedMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, LoginRequest{Email: tc.email, Password: tc.pass}, "cart-token")
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, tc.code, typed.Code())
			assert.Equal(t, tc.message, typed.Message())
		})
	}
	assert.Empty(t, f.merger.calls, "rejected logins never touch the cart")
}

func TestLoginFailsWhenMergeFails(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "buyer@example.com", "s3cret-pass", enums.StatusActive)
	f.merger.err = pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "merge cart line")

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "buyer@example.com", Password: "s3cret-pass"}, "cart-token")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Empty(t, f.sessions.tokens, "no refresh session is issued when the merge fails")
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "buyer@example.com", "s3cret-pass", enums.StatusActive)

	login, err := f.svc.Login(ctx, LoginRequest{Email: "buyer@example.com", Password: "s3cret-pass"}, "")
	require.NoError(t, err)

	pair, err := f.svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)
	claims, err := pkgAuth.ParseAccessToken(testJWT, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "a rotated refresh token cannot be replayed")

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: "garbage", RefreshToken: pair.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "buyer@example.com", "s3cret-pass", enums.StatusActive)

	accessID := session.NewAccessID()
	expired, err := pkgAuth.MintAccessToken(testJWT, time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{UserID: user.ID, JTI: accessID})
	require.NoError(t, err)
	refresh, err := f.sessions.Generate(ctx, user.ID, accessID)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: expired, RefreshToken: refresh})
	require.NoError(t, err)
}

func TestRefreshForBlockedUserLogsFailedRevoke(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "buyer@example.com", "s3cret-pass", enums.StatusActive)

	login, err := f.svc.Login(ctx, LoginRequest{Email: "buyer@example.com", Password: "s3cret-pass"}, "")
	require.NoError(t, err)
	require.NoError(t, f.conn.Model(&models.User{}).Where("id = ?", user.ID).Update("status", enums.StatusBlocked).Error)
	f.sessions.revokeErr = errors.New("redis down")

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Contains(t, f.logs.String(), "auth.refresh.revoke_failed")
	assert.Contains(t, f.logs.String(), "redis down")
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.svc.Logout(context.Background(), "access-1"))
	assert.Equal(t, []string{"access-1"}, f.sessions.revoked)
	assert.True(t, pkgerrors.IsCode(f.svc.Logout(context.Background(), " "), pkgerrors.CodeUnauthorized))
}
