// Package auth guards the moderation API. A request is authorised by the raw
// admin token or by a short-lived session token issued after a password login.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"estate_reviews/internal/domain"
)

const subject = "moderator"

var ErrBadPassword = errors.New("auth: bad password")

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Authenticator struct {
	token        []byte
	passwordHash []byte
	ttl          time.Duration
	now          func() time.Time
}

func New(adminToken, passwordHash string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Authenticator{
		token:        []byte(adminToken),
		passwordHash: []byte(passwordHash),
		ttl:          ttl,
		now:          time.Now,
	}
}

// Enabled is false when no admin token is configured; every check then fails.
func (a *Authenticator) Enabled() bool { return len(a.token) > 0 }

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}

// Check accepts the admin token itself or a session token signed with it.
func (a *Authenticator) Check(token string) error {
	if !a.Enabled() || token == "" {
		return domain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), a.token) == 1 {
		return nil
	}
	if _, err := a.verifySession(token); err != nil {
		return domain.ErrUnauthorized
	}
	return nil
}

// Login exchanges the moderator password for a session token.
func (a *Authenticator) Login(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, domain.ErrUnauthorized
	}
	if !a.passwordOK(password) {
		return "", time.Time{}, ErrBadPassword
	}
	exp := a.now().Add(a.ttl)
	tok, err := a.issue(exp)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// passwordOK checks the bcrypt hash, or the admin token itself when no hash is set.
func (a *Authenticator) passwordOK(pw string) bool {
	if len(a.passwordHash) == 0 {
		return subtle.ConstantTimeCompare([]byte(pw), a.token) == 1
	}
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(pw)) == nil
}

func (a *Authenticator) issue(exp time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(a.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: subject,
	})
	return token.SignedString(a.token)
}

func (a *Authenticator) verifySession(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.token, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Role != subject {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// HashPassword is used by operators to produce ADMIN_PASSWORD_HASH.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}
