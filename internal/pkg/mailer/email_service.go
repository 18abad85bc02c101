package mailer

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"docqa-be/internal/config"
	"docqa-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	Send(toEmail, subject, htmlBody string) error
}

type emailService struct {
	dialer     *gomail.Dialer
	from       string
	senderName string
	logger     logger.ILogger
}

// NewEmailService sends through the configured SMTP relay, authenticating
// and sending as cfg.Email.
func NewEmailService(cfg config.SMTPConfig, log logger.ILogger) IEmailService {
	return &emailService{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.Email, cfg.Password),
		from:       cfg.Email,
		senderName: cfg.SenderName,
		logger:     log,
	}
}

func (s *emailService) Send(toEmail, subject, htmlBody string) error {
	if s.dialer.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainText(htmlBody))
	m.AddAlternative("text/html", fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">%s</div>`, htmlBody))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("Mailer", "Send failed", map[string]interface{}{"to": toEmail, "subject": subject, "error": err.Error()})
		return err
	}

	s.logger.Info("Mailer", "Mail sent", map[string]interface{}{"to": toEmail, "subject": subject})
	return nil
}

var (
	breakTag = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTag   = regexp.MustCompile(`<[^>]+>`)
)

// plainText is the text/plain part for clients that do not render HTML.
func plainText(body string) string {
	body = breakTag.ReplaceAllString(body, "\n")
	body = anyTag.ReplaceAllString(body, "")
	return strings.TrimSpace(html.UnescapeString(body))
}
