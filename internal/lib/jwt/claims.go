package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// AccessClaims — данные токена доступа.
type AccessClaims struct {
	UserID    string `json:"user_id"`   // Идентификатор пользователя
	Email     string `json:"email"`     // Email пользователя
	Role      string `json:"user_type"` // Роль пользователя
	TokenType string `json:"typ"`       // Тип токена, всегда "access"
	jwt.RegisteredClaims
}

// RefreshClaims — данные токена обновления.
type RefreshClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// GenerateAccessToken выпускает токен доступа и возвращает его вместе с моментом истечения.
func (m *Maker) GenerateAccessToken(userID, email, role string) (string, time.Time, error) {
	const op = "jwt.GenerateAccessToken"
	now := m.now()
	expiresAt := now.Add(m.accessTTL)
	claims := AccessClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return token, expiresAt, nil
}

// GenerateRefreshToken выпускает токен обновления.
func (m *Maker) GenerateRefreshToken(userID string) (string, error) {
	const op = "jwt.GenerateRefreshToken"
	now := m.now()
	claims := RefreshClaims{
		UserID:    userID,
		TokenType: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ParseAccessToken проверяет подпись и срок действия токена доступа.
//
// Возвращает ErrTokenExpired для просроченного токена и ErrTokenInvalid во всех остальных случаях.
func (m *Maker) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	const op = "jwt.ParseAccessToken"
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.TokenType != typeAccess || claims.UserID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
	}
	return claims, nil
}

// ParseRefreshToken проверяет подпись и срок действия токена обновления.
func (m *Maker) ParseRefreshToken(tokenStr string) (*RefreshClaims, error) {
	const op = "jwt.ParseRefreshToken"
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.TokenType != typeRefresh || claims.UserID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
	}
	return claims, nil
}

func (m *Maker) parse(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return m.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
