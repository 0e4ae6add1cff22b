package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/showcase/internal/server"
	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/pkg/plugin"
)

type sessionKey struct{}

// SessionFrom returns the session RequireAdmin stored on ctx.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/login", Handler: m.handleLogin},
		{Method: "POST", Path: "/logout", Handler: m.handleLogout},
		{Method: "GET", Path: "/session", Handler: m.handleSession},
		{Method: "GET", Path: "/users", Handler: m.handleListUsers, Admin: true},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string   `json:"token"`
	Session *Session `json:"session"`
}

// handleLogin exchanges credentials for a session token, returned in the
// body and as an HttpOnly cookie.
func (m *Module) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !m.limiter.allow(clientIP(r)) {
		server.RateLimited(w, "too many login attempts", r.URL.Path)
		return
	}

	var req loginRequest
	if err := server.DecodeJSON(w, r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if req.Username == "" || req.Password == "" {
		server.BadRequest(w, "username and password are required", r.URL.Path)
		return
	}

	token, sess, err := m.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountDisabled):
		m.logger.Info("login rejected", zap.String("username", req.Username), zap.Error(err))
		server.Unauthorized(w, ErrInvalidCredentials.Error(), r.URL.Path)
		return
	case err != nil:
		m.logger.Error("login failed", zap.Error(err))
		server.InternalError(w, "login failed", r.URL.Path)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	m.logger.Info("login", zap.String("username", sess.Username), zap.String("role", sess.Role))
	server.WriteJSON(w, http.StatusOK, loginResponse{Token: token, Session: sess})
}

// handleLogout clears the session cookie. Tokens are stateless, so a
// bearer token stays valid until it expires.
func (m *Module) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := m.Session(r)
	if err != nil || sess == nil {
		server.Unauthorized(w, "not signed in", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, sess)
}

// handleListUsers returns a page of accounts. Query parameters: limit,
// offset, sort_by (username, created_at, last_login), sort_order.
func (m *Module) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := services.ListOptions{
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	var err error
	if s := q.Get("limit"); s != "" {
		if opts.Limit, err = strconv.Atoi(s); err != nil {
			server.BadRequest(w, "limit must be an integer", r.URL.Path)
			return
		}
	}
	if s := q.Get("offset"); s != "" {
		if opts.Offset, err = strconv.Atoi(s); err != nil {
			server.BadRequest(w, "offset must be an integer", r.URL.Path)
			return
		}
	}

	res, err := m.users.List(r.Context(), opts)
	if err != nil {
		m.logger.Error("list users failed", zap.Error(err))
		server.InternalError(w, "failed to list users", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, res)
}

// RequireAdmin is the server's admin gate: 401 without a valid session,
// 403 for a session without the admin role.
func (m *Module) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Session(r)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) && !errors.Is(err, ErrAccountDisabled) {
				m.logger.Error("session lookup failed", zap.Error(err))
			}
			server.Unauthorized(w, "invalid or expired session", r.URL.Path)
			return
		}
		if sess == nil {
			server.Unauthorized(w, "authentication required", r.URL.Path)
			return
		}
		if !sess.IsAdmin() {
			server.Forbidden(w, "admin role required", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}
