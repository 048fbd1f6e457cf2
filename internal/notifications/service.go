package notifications

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"quill/internal/config"
	"quill/internal/report"
	"quill/internal/services"
)

// Service defines the notification surface exposed to the pipeline runner.
type Service interface {
	RunSummary(ctx context.Context, run *report.Run) error
	Error(ctx context.Context, err error, contextLabel string) error
	Test(ctx context.Context) error
}

// NewService builds an email notification service when email is enabled in
// configuration. Otherwise a noop implementation is returned and summaries
// only appear in the run log.
func NewService(cfg *config.Config) Service {
	if !cfg.Email.Enabled {
		return noopService{}
	}
	return &smtpService{
		host:       cfg.Email.SMTPHost,
		port:       cfg.Email.SMTPPort,
		sender:     cfg.Email.Sender,
		password:   cfg.Email.Password,
		recipients: append([]string(nil), cfg.Email.Recipients...),
		send:       smtp.SendMail,
		now:        time.Now,
	}
}

type smtpService struct {
	host       string
	port       int
	sender     string
	password   string
	recipients []string

	// send is smtp.SendMail in production and a capture hook in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

func (s *smtpService) RunSummary(ctx context.Context, run *report.Run) error {
	return s.deliver(ctx, run.Subject(), run.Summary())
}

func (s *smtpService) Error(ctx context.Context, err error, contextLabel string) error {
	var b strings.Builder
	b.WriteString("The pipeline stopped before completing a run")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		b.WriteString(" during ")
		b.WriteString(contextLabel)
	}
	b.WriteString(".\n\n")
	if err != nil {
		b.WriteString(strings.TrimSpace(err.Error()))
	} else {
		b.WriteString("unknown error")
	}
	b.WriteString("\n")
	return s.deliver(ctx, "quill run failed", b.String())
}

func (s *smtpService) Test(ctx context.Context) error {
	return s.deliver(ctx, "quill test notification", "Email notifications are configured correctly.\n")
}

func (s *smtpService) deliver(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	auth := smtp.PlainAuth("", s.sender, s.password, s.host)
	msg := s.compose(subject, body)
	if err := s.send(addr, auth, s.sender, s.recipients, msg); err != nil {
		return services.Wrap(services.ErrNotification, "notifications", "send email", fmt.Sprintf("delivery to %s failed", addr), err)
	}
	return nil
}

func (s *smtpService) compose(subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.sender)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

type noopService struct{}

func (noopService) RunSummary(context.Context, *report.Run) error { return nil }

func (noopService) Error(context.Context, error, string) error { return nil }

func (noopService) Test(context.Context) error { return nil }
