// Package execution contains the pure state machine driving a maintenance run.
// This is part of the Functional Core - no I/O, only pure functions.
package execution

import "fmt"

// Status represents the executor's position in a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusReplanned Status = "replanned"
	StatusDone      Status = "done"
)

// Event drives a transition.
type Event string

const (
	EventStart     Event = "start"     // begin the next planned action
	EventSucceed   Event = "succeed"   // effector reported success
	EventFail      Event = "fail"      // effector reported failure
	EventReplan    Event = "replan"    // a new plan replaced the old one
	EventExhausted Event = "exhausted" // no actions left, or replan budget spent
)

// DefaultMaxReplans bounds replanning when the config leaves it unset.
const DefaultMaxReplans = 3

// NoteReplanLimit is recorded when the budget stops the run.
const NoteReplanLimit = "replan limit reached"

var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventStart:     StatusRunning,
		EventExhausted: StatusDone,
	},
	StatusRunning: {
		EventSucceed: StatusSucceeded,
		EventFail:    StatusFailed,
	},
	StatusSucceeded: {
		EventStart:     StatusRunning,
		EventExhausted: StatusDone,
	},
	StatusFailed: {
		EventReplan:    StatusReplanned,
		EventExhausted: StatusDone,
	},
	StatusReplanned: {
		EventStart:     StatusRunning,
		EventExhausted: StatusDone,
	},
}

// Next returns the status reached from current on ev.
func Next(current Status, ev Event) (Status, error) {
	if next, ok := transitions[current][ev]; ok {
		return next, nil
	}
	return current, fmt.Errorf("invalid transition: %s on %s", current, ev)
}

// ReplanDecision is the outcome of CanReplan.
type ReplanDecision struct {
	Allowed bool
	Reason  string
}

// CanReplan evaluates whether another replan fits in the budget.
// A non-positive limit falls back to DefaultMaxReplans.
func CanReplan(replansSoFar, maxReplans int) ReplanDecision {
	if maxReplans <= 0 {
		maxReplans = DefaultMaxReplans
	}
	if replansSoFar >= maxReplans {
		return ReplanDecision{Allowed: false, Reason: NoteReplanLimit}
	}
	return ReplanDecision{Allowed: true}
}

// Outcome summarises a finished run for history.
// Returns "failed" on a fatal error or when nothing succeeded after a failure,
// "partial" when some action failed, "succeeded" otherwise.
func Outcome(executed, failed int, fatal bool) string {
	switch {
	case fatal:
		return "failed"
	case failed > 0 && executed == 0:
		return "failed"
	case failed > 0:
		return "partial"
	}
	return "succeeded"
}
