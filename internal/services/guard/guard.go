// Package guard устанавливает личность вызывающего по заголовку Authorization
// и проверяет грубую ролевую политику. Владение записями проверяют менеджеры ресурсов.
package guard

import (
	"errors"
	"strings"

	"github.com/magabrotheeeer/suscridash/internal/lib/apperr"
	"github.com/magabrotheeeer/suscridash/internal/lib/jwt"
	"github.com/magabrotheeeer/suscridash/internal/models"
)

const bearerPrefix = "Bearer "

type mode int

const (
	modePublic mode = iota
	modeAuthenticated
	modeRole
)

// Requirement — требование к вызывающему.
type Requirement struct {
	mode mode
	role models.Role
}

// Public — токен необязателен. Отсутствующий или негодный токен даёт анонимного вызывающего.
func Public() Requirement { return Requirement{mode: modePublic} }

// Authenticated — подходит любая роль с действительным токеном.
func Authenticated() Requirement { return Requirement{mode: modeAuthenticated} }

// Role — требуется точное совпадение роли.
func Role(r models.Role) Requirement { return Requirement{mode: modeRole, role: r} }

// TokenParser проверяет токены доступа.
type TokenParser interface {
	ParseAccessToken(token string) (*jwt.AccessClaims, error)
}

// Guard проверяет токены доступа и роли.
type Guard struct {
	tokens TokenParser
}

// New создаёт Guard.
func New(tokens TokenParser) *Guard {
	return &Guard{tokens: tokens}
}

// Authorize разбирает сырое значение заголовка Authorization и применяет требование req.
//
// Для Public возвращает (nil, nil), если вызывающий анонимен.
// Иначе ошибки: apperr.ErrAuthHeaderMissing, apperr.ErrTokenExpired,
// apperr.ErrTokenInvalid, apperr.ErrForbidden.
func (g *Guard) Authorize(header string, req Requirement) (*models.Principal, error) {
	p, err := g.principal(header)
	if req.mode == modePublic {
		if err != nil {
			return nil, nil
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	if req.mode == modeRole {
		if err := Require(p, req.role); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Require повторно проверяет роль уже установленного вызывающего.
func Require(p *models.Principal, role models.Role) error {
	if p == nil {
		return apperr.ErrAuthHeaderMissing
	}
	if p.Role != role {
		return apperr.ErrForbidden
	}
	return nil
}

func (g *Guard) principal(header string) (*models.Principal, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, apperr.ErrAuthHeaderMissing
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return nil, apperr.ErrAuthHeaderMissing
	}

	claims, err := g.tokens.ParseAccessToken(token)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperr.ErrTokenExpired
	case err != nil:
		return nil, apperr.ErrTokenInvalid
	}

	role := models.Role(claims.Role)
	if !role.Valid() {
		return nil, apperr.ErrTokenInvalid
	}
	return &models.Principal{UserID: claims.UserID, Email: claims.Email, Role: role}, nil
}
