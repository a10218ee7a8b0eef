package mail

import (
	"context"
	"errors"
	"testing"

	"barkeep/internal/config"

	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type fakeMailClient struct {
	response *rest.Response
	err      error
	sent     []*sgmail.SGMailV3
}

func (f *fakeMailClient) Send(m *sgmail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, m)
	return f.response, f.err
}

func newTestMailer(client sendClient) *mailer {
	return &mailer{from: sgmail.NewEmail("Barkeep", "bar@example.com"), client: client}
}

func TestSendOneMessagePerRecipient(t *testing.T) {
	client := &fakeMailClient{response: &rest.Response{StatusCode: 202, Body: "accepted"}}
	m := newTestMailer(client)

	err := m.Send(context.Background(), Message{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Shopping list",
		Text:    "limes",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(client.sent))
	}
	if got := client.sent[1].Personalizations[0].To[0].Address; got != "b@example.com" {
		t.Fatalf("unexpected recipient %q", got)
	}
}

func TestSendReportsNonSuccessStatus(t *testing.T) {
	client := &fakeMailClient{response: &rest.Response{StatusCode: 500, Body: "sendgrid internal error"}}
	err := newTestMailer(client).Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "x"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != 500 {
		t.Fatalf("expected status 500, got %d", statusErr.StatusCode)
	}
}

func TestSendWrapsClientErrors(t *testing.T) {
	boom := errors.New("dial failed")
	err := newTestMailer(&fakeMailClient{err: boom}).Send(context.Background(), Message{To: []string{"a@example.com"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestSendRequiresRecipients(t *testing.T) {
	client := &fakeMailClient{response: &rest.Response{StatusCode: 202}}
	if err := newTestMailer(client).Send(context.Background(), Message{Subject: "x"}); err == nil {
		t.Fatal("expected error without recipients")
	}
	if len(client.sent) != 0 {
		t.Fatal("nothing should be sent")
	}
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	s := New(config.MailConfig{})
	if err := s.Send(context.Background(), Message{To: []string{"a@example.com"}}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if _, ok := New(config.MailConfig{SendGridKey: "key"}).(*mailer); !ok {
		t.Fatal("expected a SendGrid mailer when a key is set")
	}
}
