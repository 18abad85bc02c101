package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// Mailer is satisfied by the SMTP email service.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type EmailNotifier struct {
	mailer     Mailer
	recipients []string
}

func NewEmailNotifier(m Mailer, recipients ...string) (*EmailNotifier, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("email notifier needs at least one recipient")
	}
	return &EmailNotifier{mailer: m, recipients: recipients}, nil
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Publish(ctx context.Context, m Message) error {
	subject := fmt.Sprintf("Document Q&A response %s", m.RequestID)
	body := fmt.Sprintf("<p>%s</p>", strings.ReplaceAll(html.EscapeString(Format(m)), "\n", "<br>"))

	for _, to := range e.recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.mailer.Send(to, subject, body); err != nil {
			return fmt.Errorf("send to %s: %w", to, err)
		}
	}
	return nil
}
