package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"edureview/internal/idtoken"
	"edureview/internal/util"
	"edureview/pkg/auth"
	"edureview/pkg/authz"
	"edureview/pkg/domain"
	"edureview/services/auth/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
}

// Server exposes HTTP endpoints for the auth service.
type Server struct {
	app *app.App
	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app: cfg.App,
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/auth/register", s.handleRegister)
	s.mux.HandleFunc("/auth/login", s.handleLogin)
	s.mux.HandleFunc("/auth/refresh", s.handleRefresh)
	s.mux.HandleFunc("/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/auth/external", s.handleExternal)

	// self service
	s.mux.Handle("/users/me", s.authenticated(s.handleMe))

	// admin
	s.mux.Handle("/users", s.adminOnly(s.handleUsers))
	s.mux.Handle("/users/", s.adminOnly(s.handleUserByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, app.ErrNoSession.Error())
			return
		}
		next(w, r, user)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if !authz.Satisfies(user.Role, domain.RoleAdmin) {
			writeError(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	return s.app.Authenticate(token)
}

// auth handlers
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.Register(req.Email, req.Password, req.FullName, req.Role)
	if err != nil {
		if !clientFault(err) {
			s.internalError(w, r, "register failed", err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// handleLogin accepts a form-encoded body with username and password fields.
// The username field carries the account email.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	user, pair, err := s.app.Login(r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if !clientFault(err) {
			s.internalError(w, r, "login failed", err)
			return
		}
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{TokenPair: pair, User: user})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req refreshRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, pair, err := s.app.Refresh(req.RefreshToken)
	if err != nil {
		if !clientFault(err) {
			s.internalError(w, r, "refresh failed", err)
			return
		}
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{TokenPair: pair, User: user})
}

// handleLogout revokes whatever tokens the caller presented. It succeeds
// even without credentials: logging out an absent session is a no-op.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var accessToken string
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		accessToken = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	var req refreshRequest
	_ = json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req)
	if err := s.app.Logout(accessToken, req.RefreshToken); err != nil {
		s.internalError(w, r, "logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExternal exchanges an external identity token for local tokens.
// Failure messages stay distinct so clients can prompt re-authentication
// appropriately.
func (s *Server) handleExternal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req externalRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, pair, err := s.app.ExternalExchange(req.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, idtoken.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "Token expired")
		case errors.Is(err, idtoken.ErrTokenRevoked):
			writeError(w, http.StatusUnauthorized, "Token revoked")
		case errors.Is(err, idtoken.ErrTokenInvalid):
			writeError(w, http.StatusUnauthorized, "Invalid authentication token")
		case clientFault(err):
			writeError(w, http.StatusUnauthorized, app.ErrNoSession.Error())
		default:
			s.internalError(w, r, "external exchange failed", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{TokenPair: pair, User: user})
}

// self-service handlers
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var req updateMeRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := s.app.UpdateProfile(user.ID, req.Email, req.FullName)
		if err != nil {
			if !clientFault(err) {
				s.internalError(w, r, "update profile failed", err)
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.app.Deactivate(user.ID); err != nil {
			s.internalError(w, r, "deactivate failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// admin handlers
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.ListUsers()
	if err != nil {
		s.internalError(w, r, "list users failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": users,
		"count": len(users),
	})
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request, admin domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/users/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		user, err := s.app.GetUser(id)
		if err != nil {
			if !errors.Is(err, app.ErrUserNotFound) {
				s.internalError(w, r, "fetch user failed", err)
				return
			}
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var req adminUserUpdateRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		var role *domain.UserRole
		if req.Role != "" {
			parsed, ok := domain.ParseUserRole(strings.ToLower(strings.TrimSpace(req.Role)))
			if !ok {
				writeError(w, http.StatusBadRequest, "invalid role")
				return
			}
			role = &parsed
		}
		if role == nil && req.Active == nil {
			writeError(w, http.StatusBadRequest, "role or active is required")
			return
		}
		updated, err := s.app.AdminUpdateUser(domain.Principal{UserID: admin.ID, Role: admin.Role}, id, role, req.Active)
		if err != nil {
			if !clientFault(err) {
				s.internalError(w, r, "admin update failed", err)
				return
			}
			status := http.StatusBadRequest
			if errors.Is(err, app.ErrUserNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if id == admin.ID {
			writeError(w, http.StatusBadRequest, app.ErrCannotDeactivateSelf.Error())
			return
		}
		if err := s.app.Deactivate(id); err != nil {
			if errors.Is(err, app.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			s.internalError(w, r, "deactivate failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type loginResponse struct {
	app.TokenPair
	User domain.User `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type externalRequest struct {
	IDToken string `json:"id_token"`
}

type updateMeRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
}

type adminUserUpdateRequest struct {
	Role   string `json:"role"`
	Active *bool  `json:"active"`
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		slog.Warn("missing bearer prefix", "path", r.URL.Path)
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		slog.Warn("empty bearer token", "path", r.URL.Path)
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// clientFault reports whether the error message is meant for the caller.
// Anything else (storage, redis, signing failures) stays out of the
// response body and is only logged server-side.
func clientFault(err error) bool {
	for _, sentinel := range []error{
		app.ErrInvalidCredentials,
		app.ErrNoSession,
		app.ErrEmailAndPasswordRequired,
		app.ErrEmailAlreadyExists,
		app.ErrEmailRequired,
		app.ErrInvalidRole,
		app.ErrUserNotFound,
		app.ErrCannotChangeOwnRole,
		app.ErrCannotDeactivateSelf,
		auth.ErrPasswordTooShort,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, action string, err error) {
	util.LoggerFromContext(r.Context()).Error(action, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
