// internal/delivery/sendgrid_sender.go
package delivery

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

// SendGridSender delivers via the SendGrid API.
type SendGridSender struct {
	client *sendgrid.Client
	logger *log.Logger
}

// NewSendGridSender creates a new sender
func NewSendGridSender(apiKey string, logger *log.Logger) *SendGridSender {
	if logger == nil {
		logger = log.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		logger: logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, cred *model.SMTPCredential, email OutboundEmail) error {
	from := mail.NewEmail(cred.FromName, cred.FromEmail)
	to := mail.NewEmail(email.ToName, email.To)
	message := mail.NewSingleEmail(from, email.Subject, to, email.Body, email.Body)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Client-side rejection (bad address, suppressed recipient): no
		// amount of retrying fixes it.
		return &HardFailureError{Reason: fmt.Sprintf("sendgrid status %d: %s", resp.StatusCode, resp.Body)}
	default:
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
}

var _ Sender = (*SendGridSender)(nil)
