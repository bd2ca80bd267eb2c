package app

import (
	"fmt"
	"strings"
	"time"

	"edureview/internal/idtoken"
	"edureview/internal/util"
	"edureview/pkg/auth"
	"edureview/pkg/authz"
	"edureview/pkg/domain"
	"edureview/pkg/store"
	"edureview/pkg/token"
)

// IdentityVerifier validates external identity tokens.
type IdentityVerifier interface {
	Verify(token string) (idtoken.Identity, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Injectable for tests; built from the fields above when nil.
	Store       store.Store
	Revocations store.RevocationList
	Verifier    IdentityVerifier
}

// TokenPair is one issued session: a short-lived access token and a
// longer-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// App is the core application service wiring storage and token logic.
type App struct {
	store       store.Store
	codec       *token.Codec
	revocations store.RevocationList
	verifier    IdentityVerifier
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// New constructs the application with database storage and token issuance.
func New(cfg Config) (*App, error) {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	revocations := cfg.Revocations
	if revocations == nil && strings.TrimSpace(cfg.RedisAddr) != "" {
		revocations = store.NewRedisRevocationList(cfg.RedisAddr, cfg.RedisPassword)
	}

	codec, err := token.NewCodec(cfg.JWTSecret, token.Options{})
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	return &App{
		store:       dataStore,
		codec:       codec,
		revocations: revocations,
		verifier:    cfg.Verifier,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
	}, nil
}

// Register creates a new active account. Unknown roles are rejected; an
// omitted role defaults to user.
func (a *App) Register(email, password, fullName, role string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, ErrEmailAndPasswordRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, err
	}
	userRole := domain.RoleUser
	if strings.TrimSpace(role) != "" {
		parsed, ok := domain.ParseUserRole(strings.TrimSpace(role))
		if !ok {
			return domain.User{}, ErrInvalidRole
		}
		userRole = parsed
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	return a.createUser(email, fullName, passwordHash, userRole)
}

// Login validates credentials and issues a token pair. Every failure mode
// returns the same error so callers cannot probe accounts.
func (a *App) Login(email, password string) (domain.User, TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !user.Active || user.PasswordHash == "" {
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := a.issueTokens(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token into a new pair. The identity is fetched
// again so the new tokens carry the account's current role.
func (a *App) Refresh(refreshToken string) (domain.User, TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return domain.User{}, TokenPair{}, ErrNoSession
	}
	claims, err := a.codec.Decode(refreshToken, token.TypeRefresh)
	if err != nil {
		return domain.User{}, TokenPair{}, ErrNoSession
	}
	if revoked, err := a.isRevoked(claims.ID); err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("revocation check: %w", err)
	} else if revoked {
		return domain.User{}, TokenPair{}, ErrNoSession
	}
	user, found, err := a.store.GetUserByID(claims.Subject)
	if err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found || !user.Active {
		return domain.User{}, TokenPair{}, ErrNoSession
	}
	// Rotation: the old refresh token dies with its remaining lifetime.
	a.revoke(claims.ID, claims.ExpiresAt.Time)
	pair, err := a.issueTokens(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Logout revokes the presented tokens. Without a revocation list this is a
// no-op and tokens simply age out.
func (a *App) Logout(accessToken, refreshToken string) error {
	if claims, err := a.codec.Decode(accessToken, token.TypeAccess); err == nil {
		a.revoke(claims.ID, claims.ExpiresAt.Time)
	}
	if refreshToken != "" {
		if claims, err := a.codec.Decode(refreshToken, token.TypeRefresh); err == nil {
			a.revoke(claims.ID, claims.ExpiresAt.Time)
		}
	}
	return nil
}

// Authenticate resolves a user from an access token.
func (a *App) Authenticate(accessToken string) (domain.User, bool) {
	claims, err := a.codec.Decode(accessToken, token.TypeAccess)
	if err != nil {
		return domain.User{}, false
	}
	if revoked, err := a.isRevoked(claims.ID); err != nil || revoked {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(claims.Subject)
	if err != nil || !found || !user.Active {
		return domain.User{}, false
	}
	return user, true
}

// ExternalExchange verifies an external identity token and issues local
// tokens, auto-provisioning a passwordless account on first sight.
func (a *App) ExternalExchange(identityToken string) (domain.User, TokenPair, error) {
	if a.verifier == nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("external identity exchange not configured")
	}
	identity, err := a.verifier.Verify(identityToken)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	email := strings.TrimSpace(strings.ToLower(identity.Email))
	if email == "" {
		return domain.User{}, TokenPair{}, ErrNoSession
	}
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		role := domain.RoleUser
		if parsed, ok := domain.ParseUserRole(identity.Role); ok {
			role = parsed
		}
		user, err = a.createUser(email, identity.Name, "", role)
		if err != nil {
			return domain.User{}, TokenPair{}, err
		}
	}
	if !user.Active {
		return domain.User{}, TokenPair{}, ErrNoSession
	}
	pair, err := a.issueTokens(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// GetUser fetches a user by id.
func (a *App) GetUser(id string) (domain.User, error) {
	user, found, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies a partial self-service update.
func (a *App) UpdateProfile(userID string, email, fullName *string) (domain.User, error) {
	update := store.UserUpdate{FullName: fullName}
	if email != nil {
		normalized := strings.TrimSpace(strings.ToLower(*email))
		if normalized == "" {
			return domain.User{}, ErrEmailRequired
		}
		existing, ok, err := a.store.GetUserByEmail(normalized)
		if err != nil {
			return domain.User{}, fmt.Errorf("check email: %w", err)
		}
		if ok && existing.ID != userID {
			return domain.User{}, ErrEmailAlreadyExists
		}
		update.Email = &normalized
	}
	user, found, err := a.store.UpdateUser(userID, update)
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	if !found {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

// Deactivate marks an account inactive. Existing access tokens stop working
// on the next Authenticate call.
func (a *App) Deactivate(userID string) error {
	inactive := false
	_, found, err := a.store.UpdateUser(userID, store.UserUpdate{Active: &inactive})
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if !found {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers returns all users. Callers gate this behind admin checks.
func (a *App) ListUsers() ([]domain.User, error) {
	return a.store.ListUsers()
}

// AdminUpdateUser lets an admin change another account's role or active flag.
func (a *App) AdminUpdateUser(admin domain.Principal, userID string, role *domain.UserRole, active *bool) (domain.User, error) {
	if !authz.Satisfies(admin.Role, domain.RoleAdmin) {
		return domain.User{}, ErrNoSession
	}
	if userID == admin.UserID {
		if role != nil && *role != admin.Role {
			return domain.User{}, ErrCannotChangeOwnRole
		}
		if active != nil && !*active {
			return domain.User{}, ErrCannotDeactivateSelf
		}
	}
	user, found, err := a.store.UpdateUser(userID, store.UserUpdate{Role: role, Active: active})
	if err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	if !found {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

func (a *App) issueTokens(user domain.User) (TokenPair, error) {
	access, err := a.codec.Issue(user.ID, user.Role, token.TypeAccess, a.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := a.codec.Issue(user.ID, user.Role, token.TypeRefresh, a.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(a.accessTTL.Seconds()),
	}, nil
}

func (a *App) isRevoked(tokenID string) (bool, error) {
	if a.revocations == nil {
		return false, nil
	}
	return a.revocations.IsRevoked(tokenID)
}

func (a *App) revoke(tokenID string, expires time.Time) {
	if a.revocations == nil || tokenID == "" {
		return
	}
	_ = a.revocations.Revoke(tokenID, time.Until(expires))
}

func (a *App) createUser(email, fullName, passwordHash string, role domain.UserRole) (domain.User, error) {
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}
