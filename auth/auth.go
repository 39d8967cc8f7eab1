// Package auth issues and validates the admin JWT for the dashboard API.
// streamcast is single-tenant: one admin password, hashed with bcrypt in
// configuration, no user database.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for a wrong password or bad token
var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthModule struct {
	jwtSecret    string
	passwordHash string // bcrypt hash of the admin password
}

func NewAuthModule(jwtSecret, passwordHash string) *AuthModule {
	return &AuthModule{jwtSecret: jwtSecret, passwordHash: passwordHash}
}

// HashPassword produces a bcrypt hash suitable for ADMIN_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Login verifies the admin password and returns a signed JWT
func (a *AuthModule) Login(password string) (string, error) {
	if a.passwordHash == "" {
		return "", errors.New("admin password not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.jwtSecret))
}

// ValidateToken checks an Authorization header value ("Bearer <jwt>" or a
// bare token) and returns the subject.
func (a *AuthModule) ValidateToken(header string) (string, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	if raw == "" {
		return "", ErrInvalidCredentials
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidCredentials
	}
	return sub, nil
}
