// Package lifecycle classifies appointment records: which transition a viewer may
// currently request and how the status should be presented. It never mutates a
// record; the booking backend is the enforcement point.
package lifecycle

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus accepts exactly the four known statuses.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(s), true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Role mirrors the backend's user_type values.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleArtist   Role = "artist"
	RoleCustomer Role = "user"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleArtist, RoleCustomer:
		return Role(s), true
	default:
		return "", false
	}
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether the state machine has an edge from -> to.
func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// Transition names a status change request sent to the backend.
type Transition string

const (
	TransitionApprove  Transition = "approve"
	TransitionDecline  Transition = "decline"
	TransitionComplete Transition = "complete"
	TransitionCancel   Transition = "cancel"
)

// Target is the status a successful transition lands in. Unknown transitions
// return the empty status.
func (t Transition) Target() Status {
	switch t {
	case TransitionApprove:
		return StatusConfirmed
	case TransitionDecline, TransitionCancel:
		return StatusCancelled
	case TransitionComplete:
		return StatusCompleted
	default:
		return ""
	}
}

// Permits reports whether t is currently legal for a record in status from.
// Completion additionally requires the slot to have started.
func Permits(t Transition, from Status, pastDue bool) bool {
	switch t {
	case TransitionApprove, TransitionDecline:
		if from != StatusPending {
			return false
		}
	case TransitionComplete:
		if from != StatusConfirmed || !pastDue {
			return false
		}
	case TransitionCancel:
		if from != StatusPending && from != StatusConfirmed {
			return false
		}
	default:
		return false
	}
	return CanTransition(from, t.Target())
}
