package bounty

import (
	"fmt"

	"snapbounty-platform/pkg/errutil"
)

// Action is an admin-initiated lifecycle transition on a bounty request.
type Action string

const (
	ActionPublish Action = "publish"
	ActionPause   Action = "pause"
	ActionUnpause Action = "unpause"
	ActionClose   Action = "close"
	ActionCancel  Action = "cancel"
)

type transition struct {
	from []RequestStatus
	to   RequestStatus
}

var transitions = map[Action]transition{
	ActionPublish: {
		from: []RequestStatus{StatusDraft, StatusPendingReview},
		to:   StatusPublished,
	},
	ActionPause: {
		from: []RequestStatus{StatusPublished},
		to:   StatusPaused,
	},
	ActionUnpause: {
		from: []RequestStatus{StatusPaused},
		to:   StatusPublished,
	},
	ActionClose: {
		from: []RequestStatus{StatusPublished, StatusPaused},
		to:   StatusClosed,
	},
	ActionCancel: {
		from: []RequestStatus{StatusDraft, StatusPendingReview, StatusPublished, StatusPaused},
		to:   StatusCancelled,
	},
}

// AllowedSources returns the set of statuses the action may start from. The
// caller bakes this set into the conditional update so a stale read can never
// produce an illegal transition.
func AllowedSources(action Action) ([]RequestStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return nil, errutil.BadRequest(fmt.Sprintf("unknown lifecycle action %q", action), nil)
	}
	return t.from, nil
}

// Target returns the status the action lands on.
func Target(action Action) (RequestStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return "", errutil.BadRequest(fmt.Sprintf("unknown lifecycle action %q", action), nil)
	}
	return t.to, nil
}

// Validate checks the action against the current status without mutating
// anything.
func Validate(current RequestStatus, action Action) (RequestStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return "", errutil.BadRequest(fmt.Sprintf("unknown lifecycle action %q", action), nil)
	}

	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}

	return "", errutil.InvalidTransition(
		fmt.Sprintf("cannot %s a request in status %q", action, current),
	)
}
