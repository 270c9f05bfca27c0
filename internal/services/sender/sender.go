// Package sender превращает доменные события в письма и отправляет их по SMTP.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/suscridash/internal/events"
	"github.com/magabrotheeeer/suscridash/internal/lib/sl"
	"github.com/magabrotheeeer/suscridash/internal/lib/smtp"
)

// Email — готовое к отправке письмо.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Service — сервис рассылки уведомлений.
type Service struct {
	transport smtp.Dialer
	log       *slog.Logger
}

// New создаёт Service.
func New(transport smtp.Dialer, log *slog.Logger) *Service {
	return &Service{transport: transport, log: log}
}

// HandleMessage обрабатывает сообщение из очереди уведомлений.
// Некорректные сообщения и неизвестные ключи подтверждаются без отправки письма,
// ошибка SMTP возвращается, и сообщение уходит на повторную доставку.
func (s *Service) HandleMessage(routingKey string, body []byte) error {
	const op = "services.sender.HandleMessage"
	log := s.log.With(slog.String("op", op), slog.String("routing_key", routingKey))

	email, err := Compose(routingKey, body)
	if err != nil {
		log.Error("failed to compose email, message dropped", sl.Err(err))
		return nil
	}
	if email == nil {
		log.Debug("no email for routing key")
		return nil
	}
	if email.To == "" {
		log.Warn("event without recipient, message dropped")
		return nil
	}
	if err := s.Send(*email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Compose строит письмо по событию. Для событий без письма возвращает nil.
func Compose(routingKey string, body []byte) (*Email, error) {
	const op = "services.sender.Compose"

	switch routingKey {
	case events.UserRegistered:
		var ev events.UserRegisteredEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Email{
			To:      ev.Email,
			Subject: "Bienvenido a Suscridash",
			Body: fmt.Sprintf("Hola, %s!\n\nTu cuenta fue creada correctamente.\n\nYa puedes iniciar sesión en Suscridash.",
				ev.Name),
		}, nil

	case events.SubscriptionCreated, events.SubscriptionStatusChanged, events.RenewalUpcoming:
		var ev events.SubscriptionEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return subscriptionEmail(routingKey, ev), nil

	case events.PlanDeleted:
		var ev events.PlanDeletedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Email{
			To:      ev.BusinessEmail,
			Subject: "Plan eliminado",
			Body: fmt.Sprintf("Hola, %s!\n\nEl plan %s fue eliminado.\nSuscripciones que aún lo referencian: %d.",
				ev.BusinessName, ev.PlanName, ev.DanglingSubscriptions),
		}, nil
	}
	return nil, nil
}

func subscriptionEmail(routingKey string, ev events.SubscriptionEvent) *Email {
	email := &Email{To: ev.CustomerEmail}
	switch routingKey {
	case events.SubscriptionCreated:
		email.Subject = "Tu suscripción fue creada"
		email.Body = fmt.Sprintf("Hola, %s!\n\nTe suscribiste al plan %s de %s.\nMonto mensual: %s.\nPróxima renovación: %s.",
			ev.CustomerName, ev.PlanName, ev.BusinessName, formatAmount(ev.Amount), ev.RenewalDate)
	case events.SubscriptionStatusChanged:
		email.Subject = "Cambio de estado de tu suscripción"
		email.Body = fmt.Sprintf("Hola, %s!\n\nTu suscripción al plan %s de %s cambió de estado: %s → %s.",
			ev.CustomerName, ev.PlanName, ev.BusinessName, ev.PreviousStatus, ev.Status)
	case events.RenewalUpcoming:
		email.Subject = "Tu suscripción se renueva pronto"
		email.Body = fmt.Sprintf("Hola, %s!\n\nTu suscripción al plan %s de %s se renovará el %s por %s.",
			ev.CustomerName, ev.PlanName, ev.BusinessName, ev.RenewalDate, formatAmount(ev.Amount))
	}
	return email
}

func formatAmount(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}

// Send отправляет письмо через SMTP транспорт.
func (s *Service) Send(email Email) error {
	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + email.To,
		"Subject: " + email.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		email.Body,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("smtp client close", sl.Err(err))
		}
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	if err := client.Rcpt(email.To); err != nil {
		s.log.Error("failed to set RCPT TO", slog.String("recipient", email.To), sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.String("to", email.To), slog.String("subject", email.Subject))
	return nil
}
