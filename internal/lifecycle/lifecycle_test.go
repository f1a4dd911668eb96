package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPastDueBoundary(t *testing.T) {
	loc := time.UTC
	scheduled := time.Date(2024, 1, 1, 8, 0, 0, 0, loc)

	assert.True(t, IsPastDue(scheduled, time.Date(2024, 1, 1, 8, 0, 0, 0, loc)))
	assert.False(t, IsPastDue(scheduled, time.Date(2024, 1, 1, 7, 59, 0, 0, loc)))
	assert.True(t, IsPastDue(scheduled, time.Date(2024, 1, 2, 0, 0, 0, 0, loc)))
}

func TestIsPastDueZeroScheduled(t *testing.T) {
	assert.False(t, IsPastDue(time.Time{}, time.Now()))
}

func TestScheduledAt(t *testing.T) {
	loc := time.FixedZone("studio", 8*3600)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	got, ok := ScheduledAt(date, "13:00:45", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 13, 0, 0, 0, loc), got)

	_, ok = ScheduledAt(date, "1pm", loc)
	assert.False(t, ok)

	_, ok = ScheduledAt(time.Time{}, "13:00", loc)
	assert.False(t, ok)
}

func TestNextActionFor(t *testing.T) {
	tests := []struct {
		status  Status
		pastDue bool
		want    Action
	}{
		{StatusPending, false, ActionApproveOrDecline},
		{StatusPending, true, ActionApproveOrDecline},
		{StatusConfirmed, true, ActionMarkComplete},
		{StatusConfirmed, false, ActionScheduledNotYetDue},
		{StatusCompleted, true, ActionCompleted},
		{StatusCompleted, false, ActionCompleted},
		{StatusCancelled, true, ActionCancelled},
		{Status("unknown_status"), false, ActionNone},
		{Status(""), true, ActionNone},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, NextActionFor(tt.status, tt.pastDue))
		})
	}
}

func TestForViewer(t *testing.T) {
	assert.Equal(t, ActionApproveOrDecline, ForViewer(ActionApproveOrDecline, RoleAdmin))
	assert.Equal(t, ActionAwaitApproval, ForViewer(ActionApproveOrDecline, RoleArtist))
	assert.Equal(t, ActionAwaitApproval, ForViewer(ActionApproveOrDecline, RoleCustomer))
	assert.Equal(t, ActionMarkComplete, ForViewer(ActionMarkComplete, RoleArtist))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusConfirmed, StatusCompleted))
	assert.True(t, CanTransition(StatusConfirmed, StatusCancelled))

	assert.False(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusPending))
	assert.False(t, CanTransition(Status("archived"), StatusCancelled))
}

func TestPermits(t *testing.T) {
	tests := []struct {
		name    string
		t       Transition
		from    Status
		pastDue bool
		want    bool
	}{
		{"approve pending", TransitionApprove, StatusPending, false, true},
		{"approve confirmed", TransitionApprove, StatusConfirmed, false, false},
		{"decline pending", TransitionDecline, StatusPending, true, true},
		{"complete confirmed past due", TransitionComplete, StatusConfirmed, true, true},
		{"complete confirmed early", TransitionComplete, StatusConfirmed, false, false},
		{"complete pending", TransitionComplete, StatusPending, true, false},
		{"cancel pending", TransitionCancel, StatusPending, false, true},
		{"cancel confirmed", TransitionCancel, StatusConfirmed, false, true},
		{"cancel completed", TransitionCancel, StatusCompleted, false, false},
		{"unknown transition", Transition("reopen"), StatusCancelled, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Permits(tt.t, tt.from, tt.pastDue))
		})
	}
}

func TestTransitionTarget(t *testing.T) {
	assert.Equal(t, StatusConfirmed, TransitionApprove.Target())
	assert.Equal(t, StatusCancelled, TransitionDecline.Target())
	assert.Equal(t, StatusCancelled, TransitionCancel.Target())
	assert.Equal(t, StatusCompleted, TransitionComplete.Target())
	assert.Equal(t, Status(""), Transition("x").Target())
}

func TestParseStatusAndRole(t *testing.T) {
	s, ok := ParseStatus("confirmed")
	assert.True(t, ok)
	assert.Equal(t, StatusConfirmed, s)

	_, ok = ParseStatus("Confirmed")
	assert.False(t, ok)

	r, ok := ParseRole("artist")
	assert.True(t, ok)
	assert.Equal(t, RoleArtist, r)

	_, ok = ParseRole("owner")
	assert.False(t, ok)
}

func TestBadgeAndLabel(t *testing.T) {
	assert.Equal(t, "status-pending", Badge(StatusPending))
	assert.Equal(t, "status-unknown", Badge(Status("weird")))
	assert.Equal(t, "Scheduled - Cannot complete yet", Label(ActionScheduledNotYetDue))
	assert.Equal(t, "", Label(ActionNone))
}

func TestEvaluatePendingBookingForAdmin(t *testing.T) {
	loc := time.UTC
	snap := Snapshot{
		Status:      StatusPending,
		BookingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		BookingTime: "13:00",
	}
	now := time.Date(2024, 2, 28, 9, 0, 0, 0, loc)

	admin := Evaluate(snap, now, RoleAdmin, loc)
	assert.Equal(t, ActionApproveOrDecline, admin.Action)
	assert.Equal(t, "1:00pm-3:00pm", admin.DisplayTime)
	assert.Equal(t, "status-pending", admin.Badge)
	assert.False(t, admin.PastDue)

	customer := Evaluate(snap, now, RoleCustomer, loc)
	assert.Equal(t, ActionAwaitApproval, customer.Action)
	assert.Equal(t, "Awaiting Admin Approval", customer.ActionLabel)
}

func TestEvaluateConfirmedAcrossSlotStart(t *testing.T) {
	loc := time.UTC
	snap := Snapshot{
		Status:      StatusConfirmed,
		BookingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		BookingTime: "08:00:00",
	}

	before := Evaluate(snap, time.Date(2024, 3, 1, 7, 59, 0, 0, loc), RoleArtist, loc)
	assert.Equal(t, ActionScheduledNotYetDue, before.Action)

	at := Evaluate(snap, time.Date(2024, 3, 1, 8, 0, 0, 0, loc), RoleArtist, loc)
	assert.Equal(t, ActionMarkComplete, at.Action)
	assert.True(t, at.PastDue)
}

func TestEvaluateMalformedTimeIsNotPastDue(t *testing.T) {
	snap := Snapshot{
		Status:      StatusConfirmed,
		BookingDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		BookingTime: "sometime",
	}
	v := Evaluate(snap, time.Now(), RoleArtist, time.UTC)
	assert.False(t, v.PastDue)
	assert.Equal(t, ActionScheduledNotYetDue, v.Action)
	assert.Equal(t, "sometime", v.DisplayTime)
}
