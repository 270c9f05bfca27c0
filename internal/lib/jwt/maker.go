// Package jwt реализует выпуск и проверку подписанных токенов доступа и обновления.
//
// Токен доступа содержит идентификатор, email и роль пользователя, токен обновления —
// только идентификатор. Оба подписываются HS256 секретом сервера и ограничены по времени.
// Отзыва токенов нет: единственный способ сделать токен недействительным — дождаться exp.
package jwt

import (
	"errors"
	"time"
)

const (
	// DefaultAccessTTL — время жизни токена доступа по умолчанию.
	DefaultAccessTTL = time.Hour
	// DefaultRefreshTTL — время жизни токена обновления по умолчанию.
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

var (
	// ErrTokenExpired возвращается, если подпись верна, но срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid возвращается для повреждённых, подделанных токенов и токенов другого типа.
	ErrTokenInvalid = errors.New("token invalid")
)

// Maker выпускает и разбирает токены.
type Maker struct {
	secretKey  []byte           // Секретный ключ для подписи токенов.
	accessTTL  time.Duration    // Время жизни токена доступа.
	refreshTTL time.Duration    // Время жизни токена обновления.
	now        func() time.Time // Источник текущего времени.
}

// NewMaker создаёт Maker. Нулевые TTL заменяются значениями по умолчанию.
func NewMaker(secretKey string, accessTTL, refreshTTL time.Duration) *Maker {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Maker{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock подменяет источник времени. Используется в тестах.
func (m *Maker) WithClock(now func() time.Time) *Maker {
	m.now = now
	return m
}

// AccessTTL возвращает время жизни токена доступа.
func (m *Maker) AccessTTL() time.Duration {
	return m.accessTTL
}
