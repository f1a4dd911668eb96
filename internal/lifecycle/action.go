package lifecycle

import (
	"time"

	"github.com/maryuh24/lashesstudio/internal/slot"
)

// Action is the control a UI should present for a record.
type Action string

const (
	ActionAwaitApproval      Action = "await_approval"
	ActionApproveOrDecline   Action = "approve_or_decline"
	ActionMarkComplete       Action = "mark_complete"
	ActionScheduledNotYetDue Action = "scheduled_not_yet_due"
	ActionCompleted          Action = "completed"
	ActionCancelled          Action = "cancelled"
	ActionNone               Action = "none"
)

// ScheduledAt combines a booking date with its slot start in loc, seconds zeroed.
// It returns false when start is not a time of day.
func ScheduledAt(date time.Time, start string, loc *time.Location) (time.Time, bool) {
	if date.IsZero() {
		return time.Time{}, false
	}
	h, m, ok := slot.ParseStart(start)
	if !ok {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, loc), true
}

// IsPastDue reports whether the scheduled instant is at or before now. A zero
// scheduled time is treated as not past due.
func IsPastDue(scheduled, now time.Time) bool {
	if scheduled.IsZero() {
		return false
	}
	return !scheduled.After(now)
}

// NextActionFor maps a status snapshot to the capability it offers. Pending
// records report approve_or_decline regardless of who is looking; use
// ForViewer to gate it by role.
func NextActionFor(status Status, pastDue bool) Action {
	switch status {
	case StatusPending:
		return ActionApproveOrDecline
	case StatusConfirmed:
		if pastDue {
			return ActionMarkComplete
		}
		return ActionScheduledNotYetDue
	case StatusCompleted:
		return ActionCompleted
	case StatusCancelled:
		return ActionCancelled
	default:
		return ActionNone
	}
}

// ForViewer narrows a capability to what role may act on. Only admins approve
// or decline; everyone else waits.
func ForViewer(action Action, role Role) Action {
	if action == ActionApproveOrDecline && role != RoleAdmin {
		return ActionAwaitApproval
	}
	return action
}

var labels = map[Action]string{
	ActionAwaitApproval:      "Awaiting Admin Approval",
	ActionApproveOrDecline:   "Approve or Decline",
	ActionMarkComplete:       "Mark as Complete",
	ActionScheduledNotYetDue: "Scheduled - Cannot complete yet",
	ActionCompleted:          "Completed",
	ActionCancelled:          "Cancelled",
}

// Label is the human text for an action; ActionNone and unknown actions have none.
func Label(a Action) string {
	return labels[a]
}

// Badge is the presentation category for a status.
func Badge(s Status) string {
	if _, ok := ParseStatus(string(s)); !ok {
		return "status-unknown"
	}
	return "status-" + string(s)
}

// Snapshot is the part of an appointment record the classification reads.
type Snapshot struct {
	Status      Status
	BookingDate time.Time
	BookingTime string
}

// View is the derived presentation of one record for one viewer.
type View struct {
	Status      Status `json:"status"`
	Badge       string `json:"badge"`
	DisplayTime string `json:"display_time"`
	PastDue     bool   `json:"past_due"`
	Action      Action `json:"next_action"`
	ActionLabel string `json:"action_label,omitempty"`
}

// Evaluate classifies s at now for role. Dates are interpreted in loc.
func Evaluate(s Snapshot, now time.Time, role Role, loc *time.Location) View {
	scheduled, _ := ScheduledAt(s.BookingDate, s.BookingTime, loc)
	pastDue := IsPastDue(scheduled, now)
	action := ForViewer(NextActionFor(s.Status, pastDue), role)

	return View{
		Status:      s.Status,
		Badge:       Badge(s.Status),
		DisplayTime: slot.DisplayFor(s.BookingTime),
		PastDue:     pastDue,
		Action:      action,
		ActionLabel: Label(action),
	}
}
