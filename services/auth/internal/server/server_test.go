package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"edureview/internal/idtoken"
	"edureview/pkg/domain"
	"edureview/pkg/store"
	"edureview/services/auth/internal/app"
)

type stubVerifier struct {
	identity idtoken.Identity
	err      error
}

func (s stubVerifier) Verify(string) (idtoken.Identity, error) {
	return s.identity, s.err
}

// faultyEmailStore models a storage outage on email lookups.
type faultyEmailStore struct {
	store.Store
}

func (faultyEmailStore) HasUserEmail(string) (bool, error) {
	return false, errors.New("pg down: connection refused")
}

// flakyUserStore works until fail is flipped, then errors on id lookups.
type flakyUserStore struct {
	store.Store
	fail bool
}

func (f *flakyUserStore) GetUserByID(id string) (domain.User, bool, error) {
	if f.fail {
		return domain.User{}, false, errors.New("pg down: connection refused")
	}
	return f.Store.GetUserByID(id)
}

func newTestServerWithStore(t *testing.T, dataStore store.Store) *Server {
	t.Helper()
	appCore, err := app.New(app.Config{
		JWTSecret:   "test-secret-0123456789",
		AccessTTL:   time.Minute,
		RefreshTTL:  time.Hour,
		Store:       dataStore,
		Revocations: store.NewMemoryRevocationList(),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return New(Config{App: appCore})
}

func newTestServer(t *testing.T, verifier app.IdentityVerifier) *Server {
	t.Helper()
	appCore, err := app.New(app.Config{
		JWTSecret:   "test-secret-0123456789",
		AccessTTL:   time.Minute,
		RefreshTTL:  time.Hour,
		Store:       store.NewMemoryStore(),
		Revocations: store.NewMemoryRevocationList(),
		Verifier:    verifier,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return New(Config{App: appCore})
}

func doJSON(t *testing.T, s *Server, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server, email, password string) (string, string) {
	t.Helper()
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken, resp.RefreshToken
}

func register(t *testing.T, s *Server, email, password, role string) {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": password, "role": role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginIsFormEncoded(t *testing.T) {
	s := newTestServer(t, nil)
	register(t, s, "a@example.com", "password123", "")

	access, refresh := login(t, s, "a@example.com", "password123")
	if access == "" || refresh == "" {
		t.Fatal("missing tokens in login response")
	}

	// A JSON body must not log in: the endpoint reads form fields.
	rec := doJSON(t, s, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "a@example.com", "password": "password123",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("json login should fail, got %d", rec.Code)
	}
}

func TestMeRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	register(t, s, "a@example.com", "password123", "")
	access, _ := login(t, s, "a@example.com", "password123")

	rec := doJSON(t, s, http.MethodGet, "/users/me", access, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status %d: %s", rec.Code, rec.Body.String())
	}
	var me struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Email != "a@example.com" {
		t.Fatalf("unexpected email %q", me.Email)
	}

	rec = doJSON(t, s, http.MethodPut, "/users/me", access, map[string]string{"fullName": "Renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update me status %d: %s", rec.Code, rec.Body.String())
	}

	// Self-deactivation kills the session.
	rec = doJSON(t, s, http.MethodDelete, "/users/me", access, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete me status %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/users/me", access, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated account still authenticated: %d", rec.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t, nil)
	register(t, s, "admin@example.com", "password123", "admin")
	register(t, s, "user@example.com", "password123", "")

	userAccess, _ := login(t, s, "user@example.com", "password123")
	adminAccess, _ := login(t, s, "admin@example.com", "password123")

	if rec := doJSON(t, s, http.MethodGet, "/users", userAccess, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin list users: %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/users", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list users: %d", rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/users", adminAccess, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list users: %d %s", rec.Code, rec.Body.String())
	}
	var listing struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing.Count != 2 {
		t.Fatalf("expected 2 users, got %d", listing.Count)
	}
}

func TestAdminRoleUpdate(t *testing.T) {
	s := newTestServer(t, nil)
	register(t, s, "admin@example.com", "password123", "admin")
	register(t, s, "user@example.com", "password123", "")

	adminAccess, _ := login(t, s, "admin@example.com", "password123")
	userAccess, _ := login(t, s, "user@example.com", "password123")

	// Find the target's id via the listing.
	rec := doJSON(t, s, http.MethodGet, "/users", adminAccess, nil)
	var listing struct {
		Items []struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	var targetID string
	for _, item := range listing.Items {
		if item.Email == "user@example.com" {
			targetID = item.ID
		}
	}
	if targetID == "" {
		t.Fatal("target user not listed")
	}

	if rec := doJSON(t, s, http.MethodPut, "/users/"+targetID, userAccess, map[string]string{"role": "admin"}); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin role update: %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/users/"+targetID, adminAccess, map[string]string{"role": "recruiter"})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin role update: %d %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Role != "recruiter" {
		t.Fatalf("role not updated: %q", updated.Role)
	}
}

func TestRefreshAndLogoutEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	register(t, s, "a@example.com", "password123", "")
	access, refresh := login(t, s, "a@example.com", "password123")

	rec := doJSON(t, s, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status %d: %s", rec.Code, rec.Body.String())
	}

	// The rotated-out token is dead.
	rec = doJSON(t, s, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("stale refresh status %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/auth/logout", access, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/users/me", access, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token survived logout: %d", rec.Code)
	}
}

func TestStorageFailuresAreMasked(t *testing.T) {
	// A register hitting a dead store must not leak the driver error.
	s := newTestServerWithStore(t, faultyEmailStore{store.NewMemoryStore()})
	rec := doJSON(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "a@example.com", "password": "password123",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("driver error leaked: %s", rec.Body.String())
	}

	// Same for a refresh whose user lookup fails mid-rotation.
	flaky := &flakyUserStore{Store: store.NewMemoryStore()}
	s = newTestServerWithStore(t, flaky)
	register(t, s, "a@example.com", "password123", "")
	_, refresh := login(t, s, "a@example.com", "password123")

	flaky.fail = true
	rec = doJSON(t, s, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("refresh status %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("driver error leaked: %s", rec.Body.String())
	}
}

func TestLogoutWithoutCredentials(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doJSON(t, s, http.MethodPost, "/auth/logout", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("credential-less logout status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestExternalExchangeErrorMessages(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{"expired", idtoken.ErrTokenExpired, "Token expired"},
		{"revoked", idtoken.ErrTokenRevoked, "Token revoked"},
		{"invalid", idtoken.ErrTokenInvalid, "Invalid authentication token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, stubVerifier{err: tc.err})
			rec := doJSON(t, s, http.MethodPost, "/auth/external", "", map[string]string{"id_token": "x"})
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status %d", rec.Code)
			}
			var resp struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error != tc.message {
				t.Fatalf("message %q, want %q", resp.Error, tc.message)
			}
		})
	}
}

func TestExternalExchangeIssuesTokens(t *testing.T) {
	s := newTestServer(t, stubVerifier{identity: idtoken.Identity{
		UID:   "ext-1",
		Email: "ext@example.com",
		Name:  "External User",
	}})
	rec := doJSON(t, s, http.MethodPost, "/auth/external", "", map[string]string{"id_token": "x"})
	if rec.Code != http.StatusOK {
		t.Fatalf("exchange status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec := doJSON(t, s, http.MethodGet, "/users/me", resp.AccessToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("exchanged token rejected: %d", rec.Code)
	}
}
