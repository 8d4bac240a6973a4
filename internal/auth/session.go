// Package auth issues and verifies member session tokens.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultCookieName = "member_session"
	DefaultTTL        = 7 * 24 * time.Hour
	issuer            = "learnearnzone"
)

// Sessions signs member identities into HS256 tokens carried by a cookie.
type Sessions struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

type Claims struct {
	jwt.RegisteredClaims
}

func NewSessions(secret, cookieName string, ttl time.Duration, secure bool) *Sessions {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sessions{
		secret:     []byte(secret),
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		now:        time.Now,
	}
}

func (s *Sessions) CookieName() string { return s.cookieName }

// Issue returns a signed token for memberID.
func (s *Sessions) Issue(memberID string) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates a token and returns the member id it carries.
func (s *Sessions) Parse(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("parse session: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("parse session: empty subject")
	}
	return claims.Subject, nil
}

// SetCookie writes the session cookie for memberID.
func (s *Sessions) SetCookie(w http.ResponseWriter, memberID string) error {
	token, err := s.Issue(memberID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
