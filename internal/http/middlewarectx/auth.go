// Package middlewarectx содержит HTTP middleware: проверку токена доступа
// с ролевым требованием и ограничение частоты запросов по IP.
//
// Authorize разбирает заголовок Authorization через guard и кладёт
// проверенную личность вызывающего в контекст запроса. Обработчики
// достают её через PrincipalFrom.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/suscridash/internal/http/response"
	"github.com/magabrotheeeer/suscridash/internal/models"
	"github.com/magabrotheeeer/suscridash/internal/services/guard"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// PrincipalKey — ключ личности вызывающего в контексте.
const PrincipalKey Key = "principal"

// Authorizer проверяет заголовок Authorization по требованию.
type Authorizer interface {
	Authorize(header string, req guard.Requirement) (*models.Principal, error)
}

// Authorize возвращает middleware, применяющее требование req.
// Для публичных маршрутов анонимный запрос пропускается без личности в контексте.
func Authorize(g Authorizer, req guard.Requirement, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authorize"

			p, err := g.Authorize(r.Header.Get("Authorization"), req)
			if err != nil {
				response.Fail(w, r, log.With(
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path),
				), err)
				return
			}
			if p != nil {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal кладёт личность вызывающего в контекст.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFrom достаёт личность вызывающего из контекста. nil для анонимного запроса.
func PrincipalFrom(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(PrincipalKey).(*models.Principal)
	return p
}
