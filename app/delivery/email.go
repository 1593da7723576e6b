package delivery

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"
)

// SMTPConfig holds the outbound mail configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender delivers the bundle as an email attachment via STARTTLS.
type SMTPSender struct {
	cfg SMTPConfig
}

var _ MailSenderInterface = (*SMTPSender)(nil)

// NewSMTPSender creates a sender with the given SMTP configuration.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

// Send mails the bundle file to one recipient.
func (s *SMTPSender) Send(ctx context.Context, bundlePath, subject, recipient string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, "KindleFeed")
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", "News bundle generated for your e-reader.")
	m.Attach(bundlePath, gomail.SetHeader(map[string][]string{
		"Content-Type": {"application/epub+zip"},
	}))

	dialer := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	dialer.StartTLSPolicy = gomail.MandatoryStartTLS
	dialer.Timeout = s.cfg.Timeout

	if err := dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}

	return nil
}
