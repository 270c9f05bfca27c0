// Package apperr описывает классификацию ошибок предметной области.
//
// Каждая ошибка несёт вид (Kind) и короткое сообщение для пользователя.
// HTTP-слой отображает вид ошибки в статус ответа, а сообщение выводит как есть.
package apperr

import (
	"errors"
)

// Kind — вид ошибки.
type Kind int

const (
	// KindInternal — непредвиденная ошибка, в том числе отказ записи в хранилище.
	KindInternal Kind = iota
	// KindAuthHeaderMissing — заголовок Authorization отсутствует или имеет неверный формат.
	KindAuthHeaderMissing
	// KindTokenExpired — срок действия токена истёк.
	KindTokenExpired
	// KindTokenInvalid — токен повреждён, подделан или другого типа.
	KindTokenInvalid
	// KindInvalidCredentials — неверная пара email/пароль для роли.
	KindInvalidCredentials
	// KindForbidden — роль или владелец ресурса не совпадает.
	KindForbidden
	// KindNotFound — запись не найдена.
	KindNotFound
	// KindValidation — некорректные входные данные.
	KindValidation
	// KindDuplicateUser — пользователь с таким email и ролью уже существует.
	KindDuplicateUser
)

func (k Kind) String() string {
	switch k {
	case KindAuthHeaderMissing:
		return "AuthHeaderMissing"
	case KindTokenExpired:
		return "TokenExpired"
	case KindTokenInvalid:
		return "TokenInvalid"
	case KindInvalidCredentials:
		return "InvalidCredentials"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "ValidationError"
	case KindDuplicateUser:
		return "DuplicateUser"
	default:
		return "Internal"
	}
}

// Error — ошибка с видом и сообщением.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Is сравнивает ошибки по виду, сообщение не учитывается.
// Благодаря этому errors.Is(err, apperr.ErrNotFound) срабатывает для любой ошибки вида NotFound.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Сигнальные ошибки для сравнения через errors.Is.
var (
	ErrAuthHeaderMissing  = &Error{Kind: KindAuthHeaderMissing, Msg: "missing or invalid authorization header"}
	ErrTokenExpired       = &Error{Kind: KindTokenExpired, Msg: "token expired"}
	ErrTokenInvalid       = &Error{Kind: KindTokenInvalid, Msg: "invalid token"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Msg: "invalid credentials"}
	ErrForbidden          = &Error{Kind: KindForbidden, Msg: "forbidden"}
	ErrNotFound           = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrValidation         = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrDuplicateUser      = &Error{Kind: KindDuplicateUser, Msg: "user already exists"}
	ErrInternal           = &Error{Kind: KindInternal, Msg: "internal error"}
)

// New создаёт ошибку заданного вида с собственным сообщением.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Validation возвращает ошибку валидации с сообщением msg.
func Validation(msg string) *Error {
	return New(KindValidation, msg)
}

// NotFound возвращает ошибку «не найдено» с сообщением msg.
func NotFound(msg string) *Error {
	return New(KindNotFound, msg)
}

// Forbidden возвращает ошибку доступа с сообщением msg.
func Forbidden(msg string) *Error {
	return New(KindForbidden, msg)
}

// KindOf возвращает вид ошибки. Ошибки без вида считаются внутренними.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message возвращает сообщение для пользователя.
// Для внутренних ошибок детали не раскрываются.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return ErrInternal.Msg
}
