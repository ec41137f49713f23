package mail

import (
	"context"

	"github.com/storedir/backend/internal/domain/providers"
	"github.com/storedir/backend/pkg/config"
	apperrors "github.com/storedir/backend/pkg/errors"
	gomail "gopkg.in/gomail.v2"
)

// GomailSender delivers mail over SMTP via gomail
type GomailSender struct {
	dialer *gomail.Dialer
	from   string
}

var _ providers.Mailer = (*GomailSender)(nil)

// NewGomailSender creates a new SMTP mail sender
func NewGomailSender(cfg *config.MailConfig) *GomailSender {
	return &GomailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a single message. gomail dials synchronously, so honor
// cancellation before starting.
func (s *GomailSender) Send(ctx context.Context, req providers.MailRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", req.To)
	m.SetHeader("Subject", req.Subject)
	m.SetBody("text/plain", req.TextBody)
	if req.HTMLBody != "" {
		m.AddAlternative("text/html", req.HTMLBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return apperrors.NewExternalError("failed to send mail", err)
	}
	return nil
}
