package app

import (
	"errors"
	"testing"
	"time"

	"edureview/internal/idtoken"
	"edureview/pkg/domain"
	"edureview/pkg/store"
)

const testSecret = "test-secret-0123456789"

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(Config{
		JWTSecret:   testSecret,
		AccessTTL:   time.Minute,
		RefreshTTL:  time.Hour,
		Store:       store.NewMemoryStore(),
		Revocations: store.NewMemoryRevocationList(),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

func mustRegister(t *testing.T, a *App, email, password, role string) domain.User {
	t.Helper()
	user, err := a.Register(email, password, "Some User", role)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func TestRegisterDefaultsAndDuplicates(t *testing.T) {
	a := newTestApp(t)

	user := mustRegister(t, a, "a@example.com", "password123", "")
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %q", user.Role)
	}
	if !user.Active {
		t.Fatal("new account should be active")
	}

	if _, err := a.Register("a@example.com", "password123", "", ""); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
	if _, err := a.Register("b@example.com", "password123", "", "superuser"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected invalid role error, got %v", err)
	}

	recruiter := mustRegister(t, a, "r@example.com", "password123", "recruiter")
	if recruiter.Role != domain.RoleRecruiter {
		t.Fatalf("expected recruiter role, got %q", recruiter.Role)
	}
}

func TestLoginFailureModesAreIndistinguishable(t *testing.T) {
	a := newTestApp(t)
	mustRegister(t, a, "a@example.com", "password123", "")

	// Wrong password.
	_, _, err := a.Login("a@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	// Unknown account.
	_, _, err2 := a.Login("nobody@example.com", "password123")
	if !errors.Is(err2, ErrInvalidCredentials) {
		t.Fatalf("unknown account: got %v", err2)
	}
	// Inactive account.
	user := mustRegister(t, a, "gone@example.com", "password123", "")
	if err := a.Deactivate(user.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, _, err3 := a.Login("gone@example.com", "password123")
	if !errors.Is(err3, ErrInvalidCredentials) {
		t.Fatalf("inactive account: got %v", err3)
	}
	// Passwordless account.
	if err := a.store.SaveUser(domain.User{
		ID: "ext-1", Email: "ext@example.com", Role: domain.RoleUser, Active: true,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("save passwordless user: %v", err)
	}
	_, _, err4 := a.Login("ext@example.com", "anything")
	if !errors.Is(err4, ErrInvalidCredentials) {
		t.Fatalf("passwordless account: got %v", err4)
	}

	if err.Error() != err2.Error() || err.Error() != err3.Error() || err.Error() != err4.Error() {
		t.Fatal("login failure messages differ between causes")
	}
}

func TestLoginIssuesWorkingTokens(t *testing.T) {
	a := newTestApp(t)
	registered := mustRegister(t, a, "a@example.com", "password123", "")

	user, pair, err := a.Login("a@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("unexpected user %q", user.ID)
	}
	if pair.TokenType != "bearer" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("incomplete token pair: %+v", pair)
	}

	authed, ok := a.Authenticate(pair.AccessToken)
	if !ok || authed.ID != registered.ID {
		t.Fatalf("access token did not authenticate: ok=%v", ok)
	}
	// A refresh token must not pass as an access token.
	if _, ok := a.Authenticate(pair.RefreshToken); ok {
		t.Fatal("refresh token accepted as access token")
	}
}

func TestRefreshRotatesAndCarriesCurrentRole(t *testing.T) {
	a := newTestApp(t)
	admin := mustRegister(t, a, "admin@example.com", "password123", "admin")
	user := mustRegister(t, a, "a@example.com", "password123", "")

	_, pair, err := a.Login("a@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Promote the account between login and refresh.
	role := domain.RoleRecruiter
	if _, err := a.AdminUpdateUser(domain.Principal{UserID: admin.ID, Role: admin.Role}, user.ID, &role, nil); err != nil {
		t.Fatalf("promote: %v", err)
	}

	refreshed, newPair, err := a.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Role != domain.RoleRecruiter {
		t.Fatalf("refresh did not pick up current role: %q", refreshed.Role)
	}
	if newPair.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The old refresh token was revoked by rotation.
	if _, _, err := a.Refresh(pair.RefreshToken); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected rotated token to be dead, got %v", err)
	}
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	a := newTestApp(t)
	user := mustRegister(t, a, "a@example.com", "password123", "")

	_, pair, err := a.Login("a@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// An access token is not a refresh token.
	if _, _, err := a.Refresh(pair.AccessToken); !errors.Is(err, ErrNoSession) {
		t.Fatalf("access token accepted for refresh: %v", err)
	}
	if _, _, err := a.Refresh(""); !errors.Is(err, ErrNoSession) {
		t.Fatalf("empty token accepted for refresh: %v", err)
	}
	if _, _, err := a.Refresh("garbage.token.value"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("garbage token accepted for refresh: %v", err)
	}

	// Deactivated accounts cannot refresh even with a valid token.
	if err := a.Deactivate(user.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, _, err := a.Refresh(pair.RefreshToken); !errors.Is(err, ErrNoSession) {
		t.Fatalf("inactive account refreshed: %v", err)
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	a := newTestApp(t)
	mustRegister(t, a, "a@example.com", "password123", "")

	_, pair, err := a.Login("a@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, ok := a.Authenticate(pair.AccessToken); !ok {
		t.Fatal("token should authenticate before logout")
	}
	if err := a.Logout(pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := a.Authenticate(pair.AccessToken); ok {
		t.Fatal("access token survived logout")
	}
	if _, _, err := a.Refresh(pair.RefreshToken); !errors.Is(err, ErrNoSession) {
		t.Fatalf("refresh token survived logout: %v", err)
	}
}

func TestAdminUpdateUserGuards(t *testing.T) {
	a := newTestApp(t)
	admin := mustRegister(t, a, "admin@example.com", "password123", "admin")
	user := mustRegister(t, a, "a@example.com", "password123", "")

	// Non-admin principals are rejected outright.
	role := domain.RoleAdmin
	if _, err := a.AdminUpdateUser(domain.Principal{UserID: user.ID, Role: user.Role}, admin.ID, &role, nil); err == nil {
		t.Fatal("non-admin performed an admin update")
	}

	// Admins cannot demote themselves or switch off their own account.
	demoted := domain.RoleUser
	if _, err := a.AdminUpdateUser(domain.Principal{UserID: admin.ID, Role: admin.Role}, admin.ID, &demoted, nil); !errors.Is(err, ErrCannotChangeOwnRole) {
		t.Fatalf("expected own-role guard, got %v", err)
	}
	inactive := false
	if _, err := a.AdminUpdateUser(domain.Principal{UserID: admin.ID, Role: admin.Role}, admin.ID, nil, &inactive); !errors.Is(err, ErrCannotDeactivateSelf) {
		t.Fatalf("expected self-deactivate guard, got %v", err)
	}

	updated, err := a.AdminUpdateUser(domain.Principal{UserID: admin.ID, Role: admin.Role}, user.ID, &role, nil)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Fatalf("role not updated: %q", updated.Role)
	}
}

type stubVerifier struct {
	identity idtoken.Identity
	err      error
}

func (s stubVerifier) Verify(string) (idtoken.Identity, error) {
	return s.identity, s.err
}

func TestExternalExchangeAutoProvisions(t *testing.T) {
	a := newTestApp(t)
	a.verifier = stubVerifier{identity: idtoken.Identity{
		UID:   "ext-123",
		Email: "Ext@Example.com",
		Name:  "External User",
		Role:  "recruiter",
	}}

	user, pair, err := a.ExternalExchange("some-identity-token")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if user.Email != "ext@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != domain.RoleRecruiter {
		t.Fatalf("role not mapped: %q", user.Role)
	}
	if user.PasswordHash != "" {
		t.Fatal("provisioned account should be passwordless")
	}
	if _, ok := a.Authenticate(pair.AccessToken); !ok {
		t.Fatal("issued token does not authenticate")
	}

	// Second exchange reuses the account.
	again, _, err := a.ExternalExchange("some-identity-token")
	if err != nil {
		t.Fatalf("second exchange: %v", err)
	}
	if again.ID != user.ID {
		t.Fatal("second exchange created a new account")
	}
}

func TestExternalExchangePropagatesVerifierErrors(t *testing.T) {
	a := newTestApp(t)
	a.verifier = stubVerifier{err: idtoken.ErrTokenExpired}
	if _, _, err := a.ExternalExchange("expired"); !errors.Is(err, idtoken.ErrTokenExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
	a.verifier = stubVerifier{err: idtoken.ErrTokenRevoked}
	if _, _, err := a.ExternalExchange("revoked"); !errors.Is(err, idtoken.ErrTokenRevoked) {
		t.Fatalf("expected revoked error, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	a := newTestApp(t)
	user := mustRegister(t, a, "a@example.com", "password123", "")
	other := mustRegister(t, a, "b@example.com", "password123", "")

	name := "New Name"
	updated, err := a.UpdateProfile(user.ID, nil, &name)
	if err != nil {
		t.Fatalf("update name: %v", err)
	}
	if updated.FullName != "New Name" || updated.Email != "a@example.com" {
		t.Fatalf("partial update wrong: %+v", updated)
	}

	taken := other.Email
	if _, err := a.UpdateProfile(user.ID, &taken, nil); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected email conflict, got %v", err)
	}
}
