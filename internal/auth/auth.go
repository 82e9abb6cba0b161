// Package auth issues and verifies the bearer tokens that scope every API
// request to one account.
package auth

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/invoicestudio/backend/internal/config"
	"go.uber.org/fx"
)

var (
	ErrMissingSecret = errors.New("auth secret is not configured")
	ErrInvalidToken  = errors.New("invalid_token")
)

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(cfg config.Config) (*Manager, error) {
	if cfg.AuthJWTSecret == "" {
		return nil, ErrMissingSecret
	}
	return &Manager{
		secret: []byte(cfg.AuthJWTSecret),
		ttl:    time.Duration(cfg.AuthTokenTTL) * time.Hour,
	}, nil
}

func (m *Manager) IssueToken(userID snowflake.ID) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) VerifyToken(token string) (snowflake.ID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, ErrInvalidToken
	}

	id, err := snowflake.ParseString(claims.Subject)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

var Module = fx.Module("auth",
	fx.Provide(NewManager),
)
