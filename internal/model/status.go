// internal/model/status.go
package model

import "fmt"

// EmailStatus is the authoritative stage of a prospect within a campaign.
type EmailStatus string

const (
	StatusNotGenerated EmailStatus = "not_generated"
	StatusGenerated    EmailStatus = "generated"
	StatusSent         EmailStatus = "sent"
	StatusOpened       EmailStatus = "opened"
	StatusClicked      EmailStatus = "clicked"
	StatusReplied      EmailStatus = "replied"
	StatusBounced      EmailStatus = "bounced"
)

// StatusEvent is a machine-driven cause of a status transition.
type StatusEvent string

const (
	EventGenerateSuccess StatusEvent = "generate_success"
	EventSendSuccess     StatusEvent = "send_success"
	EventOpen            StatusEvent = "open"
	EventClick           StatusEvent = "click"
	EventReply           StatusEvent = "reply"
	EventHardBounce      StatusEvent = "hard_bounce"
)

// Provenance distinguishes machine-driven transitions from manual overrides
// in the transition log.
const (
	ProvenanceMachine = "machine"
	ProvenanceManual  = "manual"
)

// transitions is the legal edge set. Engagement states (opened, clicked,
// replied) may move among themselves but never back to sent. bounced is
// terminal.
var transitions = map[EmailStatus]map[StatusEvent]EmailStatus{
	StatusNotGenerated: {
		EventGenerateSuccess: StatusGenerated,
	},
	StatusGenerated: {
		EventSendSuccess: StatusSent,
		EventHardBounce:  StatusBounced,
	},
	StatusSent: {
		EventOpen:       StatusOpened,
		EventClick:      StatusClicked,
		EventReply:      StatusReplied,
		EventHardBounce: StatusBounced,
	},
	StatusOpened: {
		EventClick: StatusClicked,
		EventReply: StatusReplied,
	},
	StatusClicked: {
		EventOpen:  StatusOpened,
		EventReply: StatusReplied,
	},
	StatusReplied: {
		EventOpen:  StatusOpened,
		EventClick: StatusClicked,
	},
}

// Transition returns the next status for (current, event), or an error when
// no such edge exists. Rejections are no-ops for the caller, never silent
// overwrites.
func Transition(current EmailStatus, event StatusEvent) (EmailStatus, error) {
	edges, ok := transitions[current]
	if !ok {
		return current, fmt.Errorf("status %q is terminal", current)
	}
	next, ok := edges[event]
	if !ok {
		return current, fmt.Errorf("no transition from %q on %q", current, event)
	}
	return next, nil
}

// CanTransition reports whether (current, event) is a legal edge.
func CanTransition(current EmailStatus, event StatusEvent) bool {
	_, err := Transition(current, event)
	return err == nil
}

// ValidStatus reports whether s is a known status value. Used by the manual
// override endpoint, which bypasses the edge set but not the value set.
func ValidStatus(s EmailStatus) bool {
	switch s {
	case StatusNotGenerated, StatusGenerated, StatusSent,
		StatusOpened, StatusClicked, StatusReplied, StatusBounced:
		return true
	}
	return false
}
