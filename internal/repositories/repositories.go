package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/gatherly/services/events/internal/models"
)

// EventRepository provides access to event records.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event row.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return errors.Wrap(err, "failed to create event")
	}
	return nil
}

// GetByID returns a single event with its derived signup count.
// Soft-deleted events are hidden and read as models.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, models.StatusDeleted).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get event")
	}

	count, err := r.countSignups(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	event.SignupCount = count
	return &event, nil
}

// ListActive returns all active events ordered by start time, each with its
// derived signup count.
func (r *EventRepository) ListActive(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusActive).
		Order("date_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active events")
	}
	if err := r.attachCounts(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListActiveStartedBefore returns active events whose start time is before
// the cutoff. Used by the sweeper; already-completed events are excluded by
// the status filter itself.
func (r *EventRepository) ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("status = ? AND date_time < ?", models.StatusActive, cutoff).
		Order("date_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stale active events")
	}
	return events, nil
}

// UpdateFields applies a partial column update to an event that is still
// active, then returns the fresh row. The status predicate makes the write
// conditional: a concurrent cancel between the service's guard read and this
// write leaves zero rows affected instead of resurrecting fields.
func (r *EventRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*models.Event, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND status = ?", id, models.StatusActive).
		Updates(fields)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to update event")
	}
	if result.RowsAffected == 0 {
		return nil, models.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Transition flips an event's status from one state to another as a single
// conditional write. The boolean reports whether the row was in the expected
// source state; a false result with nil error means something else got there
// first.
func (r *EventRepository) Transition(ctx context.Context, id string, from, to models.Status, extra map[string]interface{}) (bool, error) {
	fields := map[string]interface{}{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range extra {
		fields[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to transition event")
	}
	return result.RowsAffected > 0, nil
}

func (r *EventRepository) countSignups(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Signup{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count signups")
	}
	return count, nil
}

func (r *EventRepository) attachCounts(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}

	type row struct {
		EventID string
		Total   int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Signup{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ?", ids).
		Group("event_id").
		Find(&rows).Error
	if err != nil {
		return errors.Wrap(err, "failed to count signups")
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.EventID] = r.Total
	}
	for i := range events {
		events[i].SignupCount = counts[events[i].ID]
	}
	return nil
}

// SignupRepository provides access to signup records.
type SignupRepository struct {
	db *gorm.DB
}

// NewSignupRepository creates a new signup repository
func NewSignupRepository(db *gorm.DB) *SignupRepository {
	return &SignupRepository{db: db}
}

// Admit runs the capacity-constrained admission as one transaction.
//
// The event row is read with a FOR UPDATE lock, so concurrent admissions for
// the same event serialize at the store: the count-check and the insert below
// happen against a row no other transaction can lock until this one commits.
// A plain read-then-insert here is known to overbook the last seat under
// concurrent load.
//
// Precondition checks run in order and short-circuit: exists, not cancelled,
// signup window open, capacity remaining.
func (r *SignupRepository) Admit(ctx context.Context, eventID string, signup *models.Signup, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", eventID).
			First(&event).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return errors.Wrap(err, "failed to lock event row")
		}

		switch event.Status {
		case models.StatusActive:
		case models.StatusCancelled:
			return models.ErrEventCancelled
		case models.StatusDeleted:
			return models.ErrNotFound
		default:
			// Completed events have already started.
			return models.ErrSignupWindowClosed
		}

		if event.DateTime.Sub(now) < models.SignupCutoff {
			return models.ErrSignupWindowClosed
		}

		var count int64
		err = tx.Model(&models.Signup{}).
			Where("event_id = ?", eventID).
			Count(&count).Error
		if err != nil {
			return errors.Wrap(err, "failed to count signups")
		}
		if count >= int64(event.MaxParticipants) {
			return models.ErrEventFull
		}

		signup.EventID = eventID
		if err := tx.Create(signup).Error; err != nil {
			return errors.Wrap(err, "failed to insert signup")
		}
		return nil
	})
}

// ListForEvent returns all signups for an event in admission order.
func (r *SignupRepository) ListForEvent(ctx context.Context, eventID string) ([]models.Signup, error) {
	var signups []models.Signup
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Find(&signups).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list signups")
	}
	return signups, nil
}

// Delete removes a single signup from an event.
func (r *SignupRepository) Delete(ctx context.Context, eventID string, signupID int64) error {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND id = ?", eventID, signupID).
		Delete(&models.Signup{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete signup")
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
