// Package services implements the event lifecycle and admission business
// logic between the HTTP handlers and the repositories.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/gatherly/services/events/internal/cache"
	"example.com/gatherly/services/events/internal/messaging"
	"example.com/gatherly/services/events/internal/metrics"
	"example.com/gatherly/services/events/internal/models"
	"example.com/gatherly/services/events/internal/notify"
	"example.com/gatherly/services/events/internal/search"
	"example.com/gatherly/services/events/internal/tracing"
)

var validate = validator.New()

// EventStore is the persistence surface the lifecycle controller needs.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ListActive(ctx context.Context) ([]models.Event, error)
	ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]models.Event, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*models.Event, error)
	Transition(ctx context.Context, id string, from, to models.Status, extra map[string]interface{}) (bool, error)
}

// SignupStore is the persistence surface admission control needs.
type SignupStore interface {
	Admit(ctx context.Context, eventID string, signup *models.Signup, now time.Time) error
	ListForEvent(ctx context.Context, eventID string) ([]models.Signup, error)
	Delete(ctx context.Context, eventID string, signupID int64) error
}

// Dispatcher is the post-commit notification fan-out. Implementations absorb
// all delivery failures; nothing here can fail the primary mutation.
type Dispatcher interface {
	EventCreated(ctx context.Context, event *models.Event, links models.EventLinks) notify.Report
	EventUpdated(ctx context.Context, event *models.Event, signups []models.Signup, changed []string) notify.Report
	EventCancelled(ctx context.Context, event *models.Event, signups []models.Signup) notify.Report
	SignupAdmitted(ctx context.Context, event *models.Event, signup *models.Signup, total int64) notify.Report
}

// CancelParams identifies the cancelling actor and carries the optional
// human-authored message stored verbatim on the event.
type CancelParams struct {
	IsAdmin          bool
	CoordinatorEmail string
	Message          string
}

// EventService orchestrates event lifecycle and admission operations.
type EventService struct {
	events    EventStore
	signups   SignupStore
	notifier  Dispatcher
	cache     *cache.RedisCache
	search    *search.ElasticClient
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	tracer    tracing.Tracer
	baseURL   string

	// syncDispatch makes notification dispatch run inline instead of on a
	// goroutine. Tests only.
	syncDispatch bool
}

// NewEventService creates an event service with its dependencies.
func NewEventService(
	events EventStore,
	signups SignupStore,
	notifier Dispatcher,
	redisCache *cache.RedisCache,
	elasticClient *search.ElasticClient,
	publisher messaging.Publisher,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
	baseURL string,
) *EventService {
	return &EventService{
		events:    events,
		signups:   signups,
		notifier:  notifier,
		cache:     redisCache,
		search:    elasticClient,
		publisher: publisher,
		metrics:   metricsCollector,
		tracer:    tracer,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// CreateEvent validates the request, commits a new active event, and
// notifies the coordinator.
func (s *EventService) CreateEvent(ctx context.Context, params models.CreateEventParams) (*models.Event, models.EventLinks, error) {
	txn := s.tracer.StartTransaction("create-event")
	defer s.tracer.EndTransaction(txn)

	if err := validateCreate(&params); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, models.EventLinks{}, err
	}

	now := time.Now().UTC()
	event := &models.Event{
		ID:               models.NewShortID(),
		UUID:             uuid.New(),
		Status:           models.StatusActive,
		Title:            strings.TrimSpace(params.Title),
		Description:      params.Description,
		Location:         strings.TrimSpace(params.Location),
		CoordinatorName:  strings.TrimSpace(params.CoordinatorName),
		CoordinatorEmail: strings.TrimSpace(params.CoordinatorEmail),
		DateTime:         params.DateTime.UTC(),
		EndTime:          params.EndTime,
		MaxParticipants:  params.MaxParticipants,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.events.Create(ctx, event); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, models.EventLinks{}, errors.Wrap(err, "failed to create event")
	}

	links := s.linksFor(event)
	s.metrics.IncrementCounter(metrics.CounterEventsCreated)
	log.Info().
		Str("event_id", event.ID).
		Time("date_time", event.DateTime).
		Msg("Event created")

	s.afterCommit(event, models.ActionCreate)
	s.dispatchAsync(func(ctx context.Context) {
		s.recordReport(s.notifier.EventCreated(ctx, event, links))
	})

	return event, links, nil
}

// GetEvent returns one event, read through the cache when available.
func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if id == "" {
		return nil, models.ErrNotFound
	}

	if s.cache.Enabled() {
		var cached models.Event
		if err := s.cache.Get(ctx, cache.EventCacheKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cache.EventCacheKey(id), event, time.Minute); err != nil {
			log.Warn().Err(err).Str("event_id", id).Msg("Failed to cache event")
		}
	}
	return event, nil
}

// ListEvents returns all active events.
func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.events.ListActive(ctx)
}

// UpdateEvent applies a field-diffed update to an active event outside the
// 24h edit lock. A call that changes nothing commits nothing and notifies
// nobody.
func (s *EventService) UpdateEvent(ctx context.Context, id string, params models.UpdateEventParams) (*models.Event, error) {
	txn := s.tracer.StartTransaction("update-event")
	defer s.tracer.EndTransaction(txn)

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	switch {
	case event.Status == models.StatusCancelled:
		return nil, models.ErrEventCancelled
	case !event.Status.CanApply(models.ActionUpdate):
		return nil, models.ErrEditWindowClosed
	case event.StartsWithin(now, models.EditLockWindow):
		return nil, models.ErrEditWindowClosed
	}

	if err := validateUpdate(event, &params); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	fields, changed := diffFields(event, &params)
	if len(changed) == 0 {
		return event, nil
	}
	fields["updated_at"] = now

	updated, err := s.events.UpdateFields(ctx, id, fields)
	if err != nil {
		// The conditional write refuses rows no longer active; re-read to
		// tell a concurrent cancel apart from a vanished row.
		if errors.Is(err, models.ErrNotFound) {
			if current, readErr := s.events.GetByID(ctx, id); readErr == nil && current.Status == models.StatusCancelled {
				return nil, models.ErrEventCancelled
			}
		}
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	signups, err := s.signups.ListForEvent(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("event_id", id).Msg("Failed to load signups for update notification")
		signups = nil
	}

	s.metrics.IncrementCounter(metrics.CounterEventsUpdated)
	log.Info().
		Str("event_id", id).
		Strs("changed", changed).
		Msg("Event updated")

	s.afterCommit(updated, models.ActionUpdate)
	s.dispatchAsync(func(ctx context.Context) {
		s.recordReport(s.notifier.EventUpdated(ctx, updated, signups, changed))
	})

	return updated, nil
}

// CancelEvent transitions an active event to cancelled. Owners must present
// the coordinator email and are boxed by the 6h window; administrators skip
// the email check and may cancel any time before start. A repeat cancel
// surfaces ErrAlreadyCancelled and never re-notifies.
func (s *EventService) CancelEvent(ctx context.Context, id string, params CancelParams) (*models.Event, error) {
	txn := s.tracer.StartTransaction("cancel-event")
	defer s.tracer.EndTransaction(txn)

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch event.Status {
	case models.StatusCancelled:
		return nil, models.ErrAlreadyCancelled
	case models.StatusCompleted:
		// Completed events have already started.
		return nil, models.ErrTooCloseToStart
	}

	var actor models.Actor
	if params.IsAdmin {
		actor = models.Administrator{}
	} else {
		if !event.IsOwner(params.CoordinatorEmail) {
			return nil, models.ErrUnauthorized
		}
		actor = models.Owner{Email: params.CoordinatorEmail}
	}

	now := time.Now().UTC()
	if !actor.CanCancel(event, now) {
		return nil, models.ErrTooCloseToStart
	}

	message := strings.TrimSpace(params.Message)
	flipped, err := s.events.Transition(ctx, id, models.StatusActive, models.StatusCancelled, map[string]interface{}{
		"cancelled_at":         now,
		"cancellation_message": message,
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if !flipped {
		// Lost the race: someone else moved the event first.
		if current, readErr := s.events.GetByID(ctx, id); readErr == nil && current.Status == models.StatusCancelled {
			return nil, models.ErrAlreadyCancelled
		}
		return nil, models.ErrTooCloseToStart
	}

	event.Status = models.StatusCancelled
	event.CancelledAt = &now
	event.CancellationMessage = message
	event.UpdatedAt = now

	signups, err := s.signups.ListForEvent(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("event_id", id).Msg("Failed to load signups for cancellation notification")
		signups = nil
	}

	s.metrics.IncrementCounter(metrics.CounterEventsCancelled)
	log.Info().
		Str("event_id", id).
		Bool("admin", params.IsAdmin).
		Int("signups", len(signups)).
		Msg("Event cancelled")

	s.afterCommit(event, models.ActionCancel)
	s.dispatchAsync(func(ctx context.Context) {
		s.recordReport(s.notifier.EventCancelled(ctx, event, signups))
	})

	return event, nil
}

// DeleteEvent soft-deletes an event from any non-deleted state. The caller
// is responsible for admin authorization. Child signups are retained.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, ok := event.Status.Apply(models.ActionDelete); !ok {
		return models.ErrNotFound
	}

	flipped, err := s.events.Transition(ctx, id, event.Status, models.StatusDeleted, nil)
	if err != nil {
		return err
	}
	if !flipped {
		return models.ErrNotFound
	}

	event.Status = models.StatusDeleted
	s.metrics.IncrementCounter(metrics.CounterEventsDeleted)
	log.Info().Str("event_id", id).Msg("Event deleted")

	s.afterCommit(event, models.ActionDelete)
	return nil
}

// Signup validates contact details and hands admission to the store, which
// closes the count-then-insert race with a locked transaction.
func (s *EventService) Signup(ctx context.Context, eventID string, params models.SignupParams) (*models.Signup, error) {
	txn := s.tracer.StartTransaction("signup")
	defer s.tracer.EndTransaction(txn)

	if err := validateSignup(&params); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	now := time.Now().UTC()
	signup := &models.Signup{
		Name:           strings.TrimSpace(params.Name),
		Email:          strings.ToLower(strings.TrimSpace(params.Email)),
		Phone:          strings.TrimSpace(params.Phone),
		WaiverAccepted: true,
		SignedAt:       now,
	}

	if err := s.signups.Admit(ctx, eventID, signup, now); err != nil {
		s.metrics.IncrementCounter(metrics.CounterSignupsRejected)
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	s.metrics.IncrementCounter(metrics.CounterSignupsAdmitted)
	s.invalidate(eventID)
	log.Info().
		Str("event_id", eventID).
		Int64("signup_id", signup.ID).
		Msg("Signup admitted")

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		// The signup is committed; the confirmation just loses its context.
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to reload event after signup")
		return signup, nil
	}

	s.reindex(event)
	s.dispatchAsync(func(ctx context.Context) {
		s.recordReport(s.notifier.SignupAdmitted(ctx, event, signup, event.SignupCount))
	})

	return signup, nil
}

// ListSignups returns all signups for an existing event.
func (s *EventService) ListSignups(ctx context.Context, eventID string) ([]models.Signup, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.signups.ListForEvent(ctx, eventID)
}

// RemoveSignup deletes a single signup. Owner or admin only.
func (s *EventService) RemoveSignup(ctx context.Context, eventID string, signupID int64, requesterEmail string, isAdmin bool) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !isAdmin && !event.IsOwner(requesterEmail) {
		return models.ErrUnauthorized
	}
	if err := s.signups.Delete(ctx, eventID, signupID); err != nil {
		return err
	}
	s.invalidate(eventID)
	log.Info().Str("event_id", eventID).Int64("signup_id", signupID).Msg("Signup removed")
	return nil
}

// linksFor builds the caller-facing URLs. The manage link carries the
// event's UUID as its capability token.
func (s *EventService) linksFor(event *models.Event) models.EventLinks {
	return models.EventLinks{
		Public: fmt.Sprintf("%s/events/%s", s.baseURL, event.ID),
		Manage: fmt.Sprintf("%s/events/%s/manage?key=%s", s.baseURL, event.ID, event.UUID),
	}
}

// dispatchAsync runs a notification dispatch on its own goroutine with a
// detached context, so the caller's response never waits on delivery and a
// cancelled request context cannot abort the fan-out.
func (s *EventService) dispatchAsync(fn func(ctx context.Context)) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		fn(ctx)
	}
	if s.syncDispatch {
		run()
		return
	}
	go run()
}

func (s *EventService) recordReport(report notify.Report) {
	s.metrics.IncrementCounterBy(metrics.CounterNotificationsSent, int64(report.Sent))
	s.metrics.IncrementCounterBy(metrics.CounterNotificationsFailed, int64(report.Failed))
}

// afterCommit fans the committed state out to the ancillary systems: cache
// invalidation, search projection, transition publishing. All best effort.
func (s *EventService) afterCommit(event *models.Event, action models.Action) {
	s.invalidate(event.ID)
	s.reindex(event)

	if s.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.publisher.PublishTransition(ctx, event, action); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to publish transition")
		}
	}
}

func (s *EventService) reindex(event *models.Event) {
	if s.search == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.search.IndexEvent(ctx, event); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to index event")
	}
}

func (s *EventService) invalidate(eventID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cache.EventCacheKey(eventID)); err != nil {
		log.Warn().Err(err).Str("event_id", eventID).Msg("Failed to invalidate cached event")
	}
}

func validateCreate(params *models.CreateEventParams) error {
	if strings.TrimSpace(params.CoordinatorName) == "" {
		return models.NewValidationError("coordinator_name", "is required")
	}
	if err := validate.Var(strings.TrimSpace(params.CoordinatorEmail), "required,email"); err != nil {
		return models.NewValidationError("coordinator_email", "must be a valid email address")
	}
	if strings.TrimSpace(params.Location) == "" {
		return models.NewValidationError("location", "is required")
	}
	if params.DateTime.IsZero() {
		return models.NewValidationError("date_time", "is required")
	}
	if params.MaxParticipants < 1 {
		return models.NewValidationError("max_participants", "must be a positive integer")
	}
	if params.EndTime != nil && !params.EndTime.After(params.DateTime) {
		return models.NewValidationError("end_time", "must be after date_time")
	}
	return nil
}

func validateUpdate(event *models.Event, params *models.UpdateEventParams) error {
	if params.DateTime != nil && params.DateTime.IsZero() {
		return models.NewValidationError("date_time", "must be a valid timestamp")
	}
	if params.Location != nil && strings.TrimSpace(*params.Location) == "" {
		return models.NewValidationError("location", "is required")
	}
	if params.CoordinatorName != nil && strings.TrimSpace(*params.CoordinatorName) == "" {
		return models.NewValidationError("coordinator_name", "is required")
	}
	if params.MaxParticipants != nil {
		if *params.MaxParticipants < 1 {
			return models.NewValidationError("max_participants", "must be a positive integer")
		}
		// Shrinking below the committed signups would break the capacity
		// invariant retroactively.
		if int64(*params.MaxParticipants) < event.SignupCount {
			return models.NewValidationError("max_participants", "cannot be lower than the current signup count")
		}
	}

	// Check the ordering of the pair the update would leave behind, whichever
	// side of it is being moved.
	start := event.DateTime
	if params.DateTime != nil {
		start = params.DateTime.UTC()
	}
	end := event.EndTime
	if params.EndTime != nil {
		end = params.EndTime
	}
	if end != nil && !end.After(start) {
		return models.NewValidationError("end_time", "must be after date_time")
	}

	return nil
}

func validateSignup(params *models.SignupParams) error {
	if strings.TrimSpace(params.Name) == "" {
		return models.NewValidationError("name", "is required")
	}
	if !params.WaiverAccepted {
		return models.NewValidationError("waiver_accepted", "must be accepted")
	}
	email := strings.TrimSpace(params.Email)
	phone := strings.TrimSpace(params.Phone)
	if email == "" && phone == "" {
		return models.NewValidationError("contact", "at least one of email or phone is required")
	}
	if email != "" {
		if err := validate.Var(email, "email"); err != nil {
			return models.NewValidationError("email", "must be a valid email address")
		}
	}
	return nil
}

// diffFields computes the changed-column map and diff set of an update.
func diffFields(event *models.Event, params *models.UpdateEventParams) (map[string]interface{}, []string) {
	fields := make(map[string]interface{})
	var changed []string

	if params.Title != nil && strings.TrimSpace(*params.Title) != event.Title {
		fields["title"] = strings.TrimSpace(*params.Title)
		changed = append(changed, "title")
	}
	if params.Description != nil && *params.Description != event.Description {
		fields["description"] = *params.Description
		changed = append(changed, "description")
	}
	if params.Location != nil && strings.TrimSpace(*params.Location) != event.Location {
		fields["location"] = strings.TrimSpace(*params.Location)
		changed = append(changed, "location")
	}
	if params.CoordinatorName != nil && strings.TrimSpace(*params.CoordinatorName) != event.CoordinatorName {
		fields["coordinator_name"] = strings.TrimSpace(*params.CoordinatorName)
		changed = append(changed, "coordinator_name")
	}
	if params.DateTime != nil && !params.DateTime.UTC().Equal(event.DateTime) {
		fields["date_time"] = params.DateTime.UTC()
		changed = append(changed, "date_time")
	}
	if params.EndTime != nil && (event.EndTime == nil || !params.EndTime.UTC().Equal(*event.EndTime)) {
		fields["end_time"] = params.EndTime.UTC()
		changed = append(changed, "end_time")
	}
	if params.MaxParticipants != nil && *params.MaxParticipants != event.MaxParticipants {
		fields["max_participants"] = *params.MaxParticipants
		changed = append(changed, "max_participants")
	}

	return fields, changed
}
