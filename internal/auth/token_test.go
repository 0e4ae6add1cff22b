package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/internal/testutil"
)

var tokenUser = &services.User{ID: "u-1", Username: "ada", Role: services.RoleAdmin}

func TestTokensRoundTrip(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	tok, err := NewTokens([]byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("NewTokens() error = %v", err)
	}
	tok.now = clock.Now

	signed, issued, err := tok.Issue(tokenUser)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if want := clock.Now().Add(time.Hour); !issued.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", issued.ExpiresAt, want)
	}

	sess, err := tok.Verify(signed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if sess.UserID != "u-1" || sess.Username != "ada" || !sess.IsAdmin() {
		t.Errorf("Verify() = %+v", sess)
	}
}

func TestTokensExpire(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	tok, _ := NewTokens([]byte(testSecret), time.Hour)
	tok.now = clock.Now

	signed, _, err := tok.Issue(tokenUser)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	clock.Advance(2 * time.Hour)
	if _, err := tok.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(expired) error = %v, want ErrInvalidToken", err)
	}
}

func TestTokensRejectForeignSignatures(t *testing.T) {
	a, _ := NewTokens([]byte("secret-a"), time.Hour)
	b, _ := NewTokens([]byte("secret-b"), time.Hour)
	signed, _, err := a.Issue(tokenUser)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := b.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(other key) error = %v, want ErrInvalidToken", err)
	}
}

func TestTokensRejectOtherAlgorithms(t *testing.T) {
	tok, _ := NewTokens([]byte(testSecret), time.Hour)
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: services.RoleAdmin,
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := tok.Verify(none); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(alg none) error = %v, want ErrInvalidToken", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign HS512: %v", err)
	}
	if _, err := tok.Verify(hs512); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(HS512) error = %v, want ErrInvalidToken", err)
	}
}

func TestNewTokensGeneratesSecret(t *testing.T) {
	a, err := NewTokens(nil, time.Hour)
	if err != nil {
		t.Fatalf("NewTokens() error = %v", err)
	}
	b, _ := NewTokens(nil, time.Hour)
	if len(a.secret) != 32 {
		t.Errorf("secret length = %d, want 32", len(a.secret))
	}
	if string(a.secret) == string(b.secret) {
		t.Error("generated secrets are equal")
	}
	if _, err := NewTokens(nil, 0); err == nil {
		t.Error("NewTokens(ttl 0) error = nil, want error")
	}
}

func TestSessionIsAdminNil(t *testing.T) {
	var s *Session
	if s.IsAdmin() {
		t.Error("nil session is admin")
	}
}
