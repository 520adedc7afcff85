package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Status is the lifecycle state of an event
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
)

// Action is a lifecycle transition request
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
	ActionDelete   Action = "delete"
)

// transitions is the full lifecycle table: current status x action -> next
// status. Anything absent is an illegal transition. Cancelled and completed
// are terminal except for the administrative soft delete; deleted is terminal.
var transitions = map[Status]map[Action]Status{
	StatusActive: {
		ActionUpdate:   StatusActive,
		ActionCancel:   StatusCancelled,
		ActionComplete: StatusCompleted,
		ActionDelete:   StatusDeleted,
	},
	StatusCancelled: {
		ActionDelete: StatusDeleted,
	},
	StatusCompleted: {
		ActionDelete: StatusDeleted,
	},
	StatusDeleted: {},
}

// Apply resolves an action against the transition table. The boolean reports
// whether the transition is legal from the current status.
func (s Status) Apply(a Action) (Status, bool) {
	next, ok := transitions[s][a]
	return next, ok
}

// CanApply reports whether the action is legal from the current status.
func (s Status) CanApply(a Action) bool {
	_, ok := transitions[s][a]
	return ok
}

// Time-window guards around an event's start time.
const (
	// EditLockWindow is the period before start during which mutable fields
	// are frozen.
	EditLockWindow = 24 * time.Hour
	// OwnerCancelWindow is the minimum lead time for a coordinator cancel.
	OwnerCancelWindow = 6 * time.Hour
	// SignupCutoff is the minimum lead time for a new signup.
	SignupCutoff = time.Hour
	// CompletionDelay is how long after start the sweeper waits before
	// marking an active event completed.
	CompletionDelay = 4 * time.Hour
)

// Event represents a community-organized occurrence with a start time,
// a capacity ceiling, and an owning coordinator.
type Event struct {
	ID                  string     `gorm:"primaryKey;size:12" json:"id"`
	UUID                uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"uuid"`
	Status              Status     `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Location            string     `gorm:"not null" json:"location"`
	CoordinatorName     string     `gorm:"not null" json:"coordinator_name"`
	CoordinatorEmail    string     `gorm:"not null" json:"coordinator_email"`
	DateTime            time.Time  `gorm:"not null;index" json:"date_time"`
	EndTime             *time.Time `json:"end_time,omitempty"`
	MaxParticipants     int        `gorm:"not null" json:"max_participants"`
	CancellationMessage string     `json:"cancellation_message,omitempty"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`

	// SignupCount is derived from the child signups; it is populated on
	// reads and never written as a column.
	SignupCount int64 `gorm:"-" json:"signup_count"`

	Signups []Signup `gorm:"foreignKey:EventID;references:ID" json:"-"`
}

// IsOwner reports whether the supplied email matches the coordinator's,
// case-insensitively.
func (e *Event) IsOwner(email string) bool {
	return strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(e.CoordinatorEmail))
}

// StartsWithin reports whether the event starts within d of now.
func (e *Event) StartsWithin(now time.Time, d time.Duration) bool {
	return e.DateTime.Sub(now) < d
}

// Signup represents a participant's registration against an event. Signups
// never transition state; they are created once by admission control and may
// only be individually removed by the event owner.
type Signup struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID        string    `gorm:"size:12;not null;index" json:"event_id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	WaiverAccepted bool      `gorm:"not null" json:"waiver_accepted"`
	SignedAt       time.Time `gorm:"not null" json:"signed_at"`
}

// CreateEventParams is the input for creating an event.
type CreateEventParams struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Location         string     `json:"location"`
	CoordinatorName  string     `json:"coordinator_name"`
	CoordinatorEmail string     `json:"coordinator_email"`
	DateTime         time.Time  `json:"date_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	MaxParticipants  int        `json:"max_participants"`
}

// UpdateEventParams carries the mutable fields of an update request. Nil
// pointers mean "leave unchanged"; the service computes the effective diff.
type UpdateEventParams struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Location        *string    `json:"location,omitempty"`
	CoordinatorName *string    `json:"coordinator_name,omitempty"`
	DateTime        *time.Time `json:"date_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	MaxParticipants *int       `json:"max_participants,omitempty"`
}

// SignupParams is the input for an admission attempt.
type SignupParams struct {
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	WaiverAccepted bool   `json:"waiver_accepted"`
}

// EventLinks are the caller-facing URLs for a freshly created event.
type EventLinks struct {
	Public string `json:"public"`
	Manage string `json:"manage"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	if err := db.AutoMigrate(&Event{}, &Signup{}); err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}
	return nil
}
