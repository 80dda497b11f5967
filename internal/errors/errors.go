// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrTransitionConflict is returned when a compare-and-swap status update
// loses to a concurrent transition on the same campaign-prospect link.
// Callers should re-read current state and no-op rather than surface this
// to the end user.
var ErrTransitionConflict = errors.New("status changed concurrently")

// ErrNoActiveSMTP is returned when a schedule or send references a missing
// or inactive SMTP credential.
var ErrNoActiveSMTP = errors.New("no active SMTP credential")

type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrProspectNotFound struct {
	ProspectID int
}

func (e *ErrProspectNotFound) Error() string {
	return fmt.Sprintf("prospect with ID %d not found", e.ProspectID)
}

func NewProspectNotFound(id int) error {
	return &ErrProspectNotFound{ProspectID: id}
}

// ErrInvalidConfig covers every schedule-config shape violation: time window
// ordering, empty weekday set, warm-up target mismatch.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid schedule config: %s %s", e.Field, e.Reason)
}

func NewInvalidConfig(field, reason string) error {
	return &ErrInvalidConfig{Field: field, Reason: reason}
}

// ErrInsufficientQuota carries the numbers the UI displays verbatim.
type ErrInsufficientQuota struct {
	Required  int
	Available int
}

func (e *ErrInsufficientQuota) Error() string {
	return fmt.Sprintf("insufficient quota: required %d, available %d", e.Required, e.Available)
}

func NewInsufficientQuota(required, available int) error {
	return &ErrInsufficientQuota{Required: required, Available: available}
}

// IsInsufficientQuota reports whether err is a quota rejection and returns it.
func IsInsufficientQuota(err error) (*ErrInsufficientQuota, bool) {
	var qe *ErrInsufficientQuota
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// IsInvalidConfig reports whether err is a config rejection and returns it.
func IsInvalidConfig(err error) (*ErrInvalidConfig, bool) {
	var ce *ErrInvalidConfig
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
