// internal/delivery/sender.go
package delivery

import (
	"context"
	"fmt"
	"log"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

// OutboundEmail is a fully rendered email ready for transport.
type OutboundEmail struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender is the delivery collaborator: accepts a rendered email and a named
// credential, returns success or failure.
type Sender interface {
	Send(ctx context.Context, cred *model.SMTPCredential, email OutboundEmail) error
}

// HardFailureError marks a permanent delivery failure (hard bounce). The
// state machine routes it to bounced; anything else is retried up to the
// bound.
type HardFailureError struct {
	Reason string
}

func (e *HardFailureError) Error() string {
	return fmt.Sprintf("hard delivery failure: %s", e.Reason)
}

// IsHardFailure reports whether err is a permanent failure.
func IsHardFailure(err error) bool {
	_, ok := err.(*HardFailureError)
	return ok
}

// ConsoleSender logs instead of delivering. Development mode only.
type ConsoleSender struct {
	Logger *log.Logger
}

func (s *ConsoleSender) Send(ctx context.Context, cred *model.SMTPCredential, email OutboundEmail) error {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("📧 [console sender] to=%s subject=%q via=%s", email.To, email.Subject, cred.Name)
	return nil
}

var _ Sender = (*ConsoleSender)(nil)
