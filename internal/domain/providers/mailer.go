package providers

import "context"

// MailRequest describes a single outbound message. The caller supplies the
// already-rendered subject and bodies; delivery details stay in the adapter.
type MailRequest struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer delivers email
type Mailer interface {
	Send(ctx context.Context, req MailRequest) error
}
