// Package mail sends transactional email through SendGrid.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"barkeep/internal/config"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrDisabled is returned when no SendGrid key is configured.
var ErrDisabled = errors.New("mail is not configured")

type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// StatusError is a non-2xx answer from SendGrid.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sendgrid returned status %d: %s", e.StatusCode, e.Body)
}

type sendClient interface {
	Send(email *sgmail.SGMailV3) (*rest.Response, error)
}

type mailer struct {
	from   *sgmail.Email
	client sendClient
}

// New returns a SendGrid sender, or a sender that always fails with
// ErrDisabled when no key is set.
func New(cfg config.MailConfig) Sender {
	if !cfg.IsEnabled() {
		return disabled{}
	}
	return &mailer{
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		client: sendgrid.NewSendClient(cfg.SendGridKey),
	}
}

func (m *mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}
	var errs []error
	for _, addr := range msg.To {
		to := sgmail.NewEmail("", addr)
		message := sgmail.NewSingleEmail(m.from, msg.Subject, to, msg.Text, msg.HTML)
		response, err := m.client.Send(message)
		if err != nil {
			slog.ErrorContext(ctx, "mail error", "to", addr, "error", err)
			errs = append(errs, fmt.Errorf("failed to send to %s: %w", addr, err))
			continue
		}
		if response.StatusCode < 200 || response.StatusCode >= 300 {
			slog.ErrorContext(ctx, "sendgrid rejected mail", "to", addr, "status", response.StatusCode, "body", response.Body)
			errs = append(errs, &StatusError{StatusCode: response.StatusCode, Body: response.Body})
			continue
		}
		slog.InfoContext(ctx, "mail sent", "to", addr, "subject", msg.Subject, "status", response.StatusCode)
	}
	return errors.Join(errs...)
}

type disabled struct{}

func (disabled) Send(ctx context.Context, msg Message) error {
	slog.WarnContext(ctx, "dropping mail, sendgrid key not set", "subject", msg.Subject)
	return ErrDisabled
}
