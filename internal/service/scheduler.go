package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/okurilov/meetradar/internal/logger"
	"github.com/okurilov/meetradar/internal/model"
)

// Scheduler drives re-evaluation of the nearby query for one user session
// while enabled: once on entry, on a fixed interval, and on every presence
// change notification. Evaluations always read the user's published
// presence, never an in-flight sample, so the local view stays symmetric
// with what peers compute. Overlapping evaluations are tolerated; the
// results callback is last-write-wins.
type Scheduler struct {
	userID    uuid.UUID
	finder    *Finder
	presences model.PresenceStore
	profiles  model.ProfileStore
	events    model.PresenceEvents
	interval  time.Duration
	clock     model.Clock
	onResults func([]model.CandidateMatch)
	logger    *logger.Logger
}

func NewScheduler(
	userID uuid.UUID,
	finder *Finder,
	presences model.PresenceStore,
	profiles model.ProfileStore,
	events model.PresenceEvents,
	interval time.Duration,
	clock model.Clock,
	onResults func([]model.CandidateMatch),
	logger *logger.Logger,
) *Scheduler {
	return &Scheduler{
		userID:    userID,
		finder:    finder,
		presences: presences,
		profiles:  profiles,
		events:    events,
		interval:  interval,
		clock:     clock,
		onResults: onResults,
		logger:    logger,
	}
}

// Run enables re-evaluation until ctx is cancelled. Cancellation is a hard
// stop: the ticker stops, the subscription ends and no further
// reconciliation occurs. A later Run performs a fresh query rather than
// replaying missed notifications.
func (s *Scheduler) Run(ctx context.Context) error {
	changes, err := s.events.Subscribe(ctx)
	if err != nil {
		return err
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	go s.evaluate(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C():
			go s.evaluate(ctx)

		case _, ok := <-changes:
			if !ok {
				// Subscription lost; keep going on the timer alone.
				s.logger.Warn("presence change subscription closed, timer-only mode",
					"user_id", s.userID)
				changes = nil
				continue
			}
			go s.evaluate(ctx)
		}
	}
}

// evaluate performs one full nearby query and delivers the result set. A
// failed cycle delivers an empty set rather than a stale or fabricated
// one; the next trigger retries.
func (s *Scheduler) evaluate(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	presence, err := s.presences.GetByUserID(ctx, s.userID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.logger.Error("failed to load own presence",
				"user_id", s.userID,
				"error", err.Error())
		}
		// Nothing published yet (or the store is down): nothing to match.
		s.deliver(ctx, nil)
		return
	}

	profile, err := s.profiles.GetByID(ctx, s.userID)
	if err != nil {
		s.logger.Error("failed to load own profile",
			"user_id", s.userID,
			"error", err.Error())
		s.deliver(ctx, nil)
		return
	}

	results, err := s.finder.FindNearby(ctx, s.userID, presence.Latitude, presence.Longitude, profile.Interests)
	if err != nil {
		s.logger.Error("nearby evaluation failed",
			"user_id", s.userID,
			"error", err.Error())
		s.deliver(ctx, nil)
		return
	}

	s.deliver(ctx, results)
}

func (s *Scheduler) deliver(ctx context.Context, results []model.CandidateMatch) {
	if ctx.Err() != nil || s.onResults == nil {
		return
	}
	s.onResults(results)
}
