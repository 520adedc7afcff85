package models

import "time"

// Actor is the capability deciding whether a cancel is allowed at a given
// moment. Each variant carries its own time-window rule so call sites never
// re-derive the window arithmetic.
type Actor interface {
	CanCancel(e *Event, now time.Time) bool
}

// Owner is the coordinator path: cancels are allowed up to six hours before
// start. Email verification happens before the window check, not here.
type Owner struct {
	Email string
}

func (o Owner) CanCancel(e *Event, now time.Time) bool {
	return e.DateTime.Sub(now) >= OwnerCancelWindow
}

// Administrator is the trusted operator path: cancels are allowed any time
// up to the event's start, with no email verification.
type Administrator struct{}

func (Administrator) CanCancel(e *Event, now time.Time) bool {
	return !e.DateTime.Before(now)
}
