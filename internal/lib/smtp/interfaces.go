// Package smtp отправляет письма уведомлений через SMTP-сервер из настроек.
package smtp

import "io"

// Client — часть *smtp.Client, нужная для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает сессию с SMTP-сервером и знает адрес отправителя.
type Dialer interface {
	Connect() (Client, error)
	Sender() string
}
