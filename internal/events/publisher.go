// internal/events/publisher.go
package events

import (
	"context"
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

// TransitionEvent is emitted on every committed status transition so
// integrations can push instead of poll.
type TransitionEvent struct {
	CampaignID int               `json:"campaign_id"`
	ProspectID int               `json:"prospect_id"`
	From       model.EmailStatus `json:"from"`
	To         model.EmailStatus `json:"to"`
	Provenance string            `json:"provenance"`
	At         time.Time         `json:"at"`
}

// Publisher pushes transition events to subscribers. Publishing is
// best-effort: a failed publish never rolls back the transition.
type Publisher interface {
	PublishTransition(ctx context.Context, ev TransitionEvent) error
}

// NopPublisher drops events. Used when no Redis URL is configured; pollers
// still see everything through the prospects endpoint.
type NopPublisher struct{}

func (NopPublisher) PublishTransition(ctx context.Context, ev TransitionEvent) error { return nil }

var _ Publisher = NopPublisher{}
