package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"

	pkgauth "github.com/floraweave/floraweave-backend/pkg/auth"
	"github.com/floraweave/floraweave-backend/pkg/auth/session"
	"github.com/floraweave/floraweave-backend/pkg/config"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

type fakeVerifier struct {
	user *models.User
	err  error
}

func (f *fakeVerifier) VerifyCredentials(_ context.Context, _, _ string) (*models.User, error) {
	return f.user, f.err
}

type fakeSessions struct {
	generated map[string]string
	rotateErr error
	revoked   []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{generated: map[string]string{}}
}

func (f *fakeSessions) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.generated[accessID] = token
	return token, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateErr != nil {
		return "", "", f.rotateErr
	}
	if f.generated[oldAccessID] != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.generated, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.generated[newID] = token
	return newID, token, nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	delete(f.generated, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                  "test-secret",
		Issuer:                  "floraweave-test",
		ExpirationMinutes:       30,
		RefreshTokenTTLMinutes: 43200,
	}
}

func newTestService(t *testing.T, verifier *fakeVerifier, sessions *fakeSessions) Service {
	t.Helper()
	svc, err := NewService(verifier, sessions, testJWTConfig(), logger.New(logger.Options{ServiceName: "auth-test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLogin(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: enums.UserRoleAdmin, IsActive: true}
	sessions := newFakeSessions()
	svc := newTestService(t, &fakeVerifier{user: user}, sessions)

	pair, err := svc.Login(context.Background(), "admin@example.com", "password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}
	if sessions.generated[claims.ID] != pair.RefreshToken {
		t.Fatal("session not keyed by the token jti")
	}
	if pair.ExpiresIn != 30*60 {
		t.Fatalf("expires_in = %d, want 1800", pair.ExpiresIn)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	svc := newTestService(t, &fakeVerifier{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")}, newFakeSessions())

	_, err := svc.Login(context.Background(), "admin@example.com", "wrong")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotates(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: enums.UserRoleCustomer, IsActive: true}
	sessions := newFakeSessions()
	svc := newTestService(t, &fakeVerifier{user: user}, sessions)

	pair, err := svc.Login(context.Background(), "asha@example.com", "password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	next, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), next.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleCustomer {
		t.Fatalf("claims = %+v", claims)
	}

	// The old pair is dead after rotation.
	_, err = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on replay, got %v", err)
	}
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	svc := newTestService(t, &fakeVerifier{}, newFakeSessions())

	_, err := svc.Refresh(context.Background(), "not-a-jwt", "whatever")
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: enums.UserRoleCustomer, IsActive: true}
	sessions := newFakeSessions()
	svc := newTestService(t, &fakeVerifier{user: user}, sessions)

	pair, err := svc.Login(context.Background(), "asha@example.com", "password-123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(context.Background(), pair.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(sessions.revoked) != 1 {
		t.Fatalf("revoked = %v, want one session", sessions.revoked)
	}
}
