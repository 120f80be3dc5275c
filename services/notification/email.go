package notification

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"homehub/config"
	"homehub/utils"

	"go.uber.org/zap"
)

// EmailSender delivers a plain-text email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through an authenticated SMTP relay.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender builds a sender from the SMTP_* settings.
func NewSMTPSender(cfg config.Config) *SMTPSender {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: strings.Trim(cfg.SMTPPassword, `"`),
		from:     from,
		send:     smtp.SendMail,
	}
}

// Configured reports whether enough settings exist to send mail.
func (s *SMTPSender) Configured() bool {
	return s.host != "" && s.port != "" && s.from != ""
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return nil
	}
	if !s.Configured() {
		utils.GetLogger().Debug("SMTP not configured, skipping email", zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	msg := buildMessage(s.from, to, subject, body)
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := s.send(s.host+":"+s.port, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// headerBreaks strips line breaks so a value cannot start a new header.
var headerBreaks = strings.NewReplacer("\r", "", "\n", "")

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: HomeHub <" + headerBreaks.Replace(from) + ">\r\n")
	b.WriteString("To: " + headerBreaks.Replace(to) + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
