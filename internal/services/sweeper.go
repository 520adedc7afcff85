package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/gatherly/services/events/internal/metrics"
	"example.com/gatherly/services/events/internal/models"
)

// SweepCompletions moves stale active events to completed: every active
// event whose start time passed more than the completion delay ago. Each
// event transitions independently; one failure is logged and the sweep moves
// on. Rerunning is harmless because completed events drop out of the listing
// filter.
func (s *EventService) SweepCompletions(ctx context.Context) (int, error) {
	txn := s.tracer.StartTransaction("sweep-completions")
	defer s.tracer.EndTransaction(txn)

	start := time.Now()
	cutoff := time.Now().UTC().Add(-models.CompletionDelay)

	stale, err := s.events.ListActiveStartedBefore(ctx, cutoff)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return 0, errors.Wrap(err, "failed to list stale active events")
	}

	completed := 0
	for i := range stale {
		event := &stale[i]

		flipped, err := s.events.Transition(ctx, event.ID, models.StatusActive, models.StatusCompleted, nil)
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to complete event, continuing sweep")
			s.tracer.RecordError(txn, err)
			continue
		}
		if !flipped {
			// No longer active; someone else moved it since the listing.
			continue
		}

		event.Status = models.StatusCompleted
		completed++
		s.metrics.IncrementCounter(metrics.CounterEventsCompleted)
		s.afterCommit(event, models.ActionComplete)

		log.Info().
			Str("event_id", event.ID).
			Time("date_time", event.DateTime).
			Msg("Event completed by sweeper")
	}

	s.metrics.IncrementCounter(metrics.CounterSweepRuns)
	s.metrics.RecordDuration("sweep", time.Since(start))
	log.Info().
		Int("candidates", len(stale)).
		Int("completed", completed).
		Msg("Completion sweep finished")

	return completed, nil
}
