// Package auth is the "auth" module: password login, HS256 session tokens
// and the admin gate the server wraps around admin routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ SessionProvider      = (*Module)(nil)
)

// CookieName is the session cookie set by POST /login.
const CookieName = "showcase_session"

// MinPasswordLength is enforced by HashPassword.
const MinPasswordLength = 8

const (
	defaultTokenTTL   = 12 * time.Hour
	defaultLoginRate  = 0.2
	defaultLoginBurst = 5
)

// Login errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account disabled")
)

// SessionProvider resolves the caller of a request. It returns a nil
// session and nil error for anonymous requests.
type SessionProvider interface {
	Session(r *http.Request) (*Session, error)
}

// dummyHash is compared against when the username is unknown, so a miss
// costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("showcase-dummy-password"), bcrypt.DefaultCost)

// Module implements the auth module.
type Module struct {
	users        services.UserRepository
	tokens       *Tokens
	limiter      *ipLimiter
	logger       *zap.Logger
	cookieSecure bool
	now          func() time.Time
}

// New returns an uninitialized auth module.
func New() *Module {
	return &Module{now: time.Now}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "auth",
		Version:     "1.0.0",
		Description: "Admin login and session tokens",
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

// Init migrates the user table and reads secret, token_ttl, cookie_secure,
// login_rate and login_burst.
func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	users, err := services.NewSQLiteUserRepository(ctx, deps.Store)
	if err != nil {
		return err
	}
	m.users = users

	var (
		secret []byte
		ttl    = defaultTokenTTL
		lr     = defaultLoginRate
		burst  = defaultLoginBurst
	)
	m.cookieSecure = true
	if c := deps.Config; c != nil {
		secret = []byte(c.GetString("secret"))
		if c.IsSet("token_ttl") {
			ttl = c.GetDuration("token_ttl")
		}
		if c.IsSet("cookie_secure") {
			m.cookieSecure = c.GetBool("cookie_secure")
		}
		if c.IsSet("login_burst") {
			burst = c.GetInt("login_burst")
		}
		if s := c.GetString("login_rate"); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v <= 0 {
				return fmt.Errorf("auth login_rate must be a positive number, got %q", s)
			}
			lr = v
		}
	}
	if len(secret) == 0 {
		m.logger.Warn("auth.secret not set, generated an ephemeral signing key")
	}

	m.tokens, err = NewTokens(secret, ttl)
	if err != nil {
		return err
	}
	if burst <= 0 {
		return fmt.Errorf("auth login_burst must be positive, got %d", burst)
	}
	m.limiter = newIPLimiter(rate.Limit(lr), burst)
	return nil
}

func (m *Module) Start(context.Context) error { return nil }
func (m *Module) Stop(context.Context) error  { return nil }

// Health reports the number of accounts.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	n, err := m.users.Count(ctx)
	if err != nil {
		return plugin.HealthStatus{Status: "unhealthy", Message: "user store unavailable"}
	}
	status := plugin.HealthStatus{Status: "healthy", Details: map[string]string{"users": fmt.Sprint(n)}}
	if n == 0 {
		status.Status = "degraded"
		status.Message = "no accounts, create one with 'showcase user'"
	}
	return status
}

// Login checks a username and password and issues a session token.
func (m *Module) Login(ctx context.Context, username, password string) (string, *Session, error) {
	username = strings.TrimSpace(username)
	u, err := m.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if u.Disabled {
		return "", nil, ErrAccountDisabled
	}

	token, sess, err := m.tokens.Issue(u)
	if err != nil {
		return "", nil, err
	}
	if err := m.users.RecordLogin(ctx, u.ID, m.now()); err != nil {
		m.logger.Warn("failed to record login", zap.String("user", u.Username), zap.Error(err))
	}
	return token, sess, nil
}

// Session reads the token from the Authorization bearer header or the
// session cookie. A token for a deleted or disabled account is rejected.
func (m *Module) Session(r *http.Request) (*Session, error) {
	token := bearerToken(r)
	if token == "" {
		c, err := r.Cookie(CookieName)
		if err != nil || c.Value == "" {
			return nil, nil
		}
		token = c.Value
	}

	sess, err := m.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := m.users.Get(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown account", ErrInvalidToken)
		}
		return nil, err
	}
	if u.Disabled {
		return nil, ErrAccountDisabled
	}
	sess.Role = u.Role
	return sess, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// HashPassword bcrypts a password after checking its length.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
