package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okurilov/meetradar/internal/geo"
	"github.com/okurilov/meetradar/internal/logger"
	"github.com/okurilov/meetradar/internal/model"
)

// PublisherConfig contains the throttling thresholds.
type PublisherConfig struct {
	MinDisplacementMeters    float64
	MinIntervalStationary    time.Duration
	MinIntervalMoving        time.Duration
	StationarySpeedThreshold float64
	Debounce                 time.Duration
	SpatialPrecision         int
}

// Publisher owns the publish decision for one user session. Raw samples
// go through a trailing-edge debounce; the survivor of each quiet period
// is evaluated against displacement and staleness thresholds and, when it
// qualifies, upserted as the user's published presence. The run loop is
// the single writer of the throttling state.
type Publisher struct {
	userID uuid.UUID
	store  model.PresenceStore
	cfg    PublisherConfig
	clock  model.Clock
	logger *logger.Logger

	samples chan model.LocationSample

	mu   sync.Mutex
	last *publishedState
}

type publishedState struct {
	latitude  float64
	longitude float64
	at        time.Time
}

func NewPublisher(
	userID uuid.UUID,
	store model.PresenceStore,
	cfg PublisherConfig,
	clock model.Clock,
	logger *logger.Logger,
) *Publisher {
	if cfg.SpatialPrecision <= 0 {
		cfg.SpatialPrecision = geo.DefaultPrecision
	}
	return &Publisher{
		userID:  userID,
		store:   store,
		cfg:     cfg,
		clock:   clock,
		logger:  logger,
		samples: make(chan model.LocationSample, 1),
	}
}

// Offer hands a raw sample to the run loop. Only the latest pending sample
// matters, so a full buffer is drained rather than blocking the source.
func (p *Publisher) Offer(sample model.LocationSample) {
	for {
		select {
		case p.samples <- sample:
			return
		default:
			select {
			case <-p.samples:
			default:
			}
		}
	}
}

// Run consumes offered samples until ctx is cancelled. Each arriving
// sample restarts the debounce timer; when a quiet period elapses, the
// pending sample is evaluated once. Cancellation is a hard stop: a pending
// debounce never fires afterwards.
func (p *Publisher) Run(ctx context.Context) {
	var (
		timer   model.Timer
		fire    <-chan time.Time
		pending model.LocationSample
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case sample := <-p.samples:
			pending = sample
			if timer == nil {
				timer = p.clock.NewTimer(p.cfg.Debounce)
				fire = timer.C()
			} else {
				timer.Stop()
				timer.Reset(p.cfg.Debounce)
			}

		case <-fire:
			if ctx.Err() != nil {
				return
			}
			p.evaluate(ctx, pending)
		}
	}
}

func (p *Publisher) evaluate(ctx context.Context, sample model.LocationSample) {
	if !p.ShouldPublish(sample) {
		return
	}
	if err := p.Publish(ctx, sample); err != nil {
		if errors.Is(err, model.ErrStaleState) {
			// An out-of-order attempt is abandoned, not an error.
			return
		}
		// Throttling state is untouched, the next qualifying sample retries.
		p.logger.Error("failed to publish presence",
			"user_id", p.userID,
			"error", err.Error())
	}
}

// ShouldPublish reports whether a sample is worth persisting. The first
// sample always is. Afterwards, displacement beyond the threshold wins
// immediately; otherwise enough time must have passed, where a stationary
// user gets the longer interval. A missing speed reading counts as moving
// so an unavailable sensor cannot suppress publishes.
func (p *Publisher) ShouldPublish(sample model.LocationSample) bool {
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()

	if last == nil {
		return true
	}

	displacement := geo.Distance(last.latitude, last.longitude, sample.Latitude, sample.Longitude)
	if displacement >= p.cfg.MinDisplacementMeters {
		return true
	}

	stationary := sample.Speed != nil && *sample.Speed < p.cfg.StationarySpeedThreshold
	interval := p.cfg.MinIntervalMoving
	if stationary {
		interval = p.cfg.MinIntervalStationary
	}

	return p.clock.Now().Sub(last.at) >= interval
}

// Publish validates and persists the sample as the user's presence, then
// records it as the last published state. The state is only updated after
// the store acknowledged the write, so a failed publish is retried on the
// next qualifying sample instead of being silently treated as done.
func (p *Publisher) Publish(ctx context.Context, sample model.LocationSample) error {
	if err := geo.ValidateCoordinate(sample.Latitude, sample.Longitude); err != nil {
		return err
	}

	now := p.clock.Now().UTC()

	p.mu.Lock()
	if p.last != nil && p.last.at.After(now) {
		p.mu.Unlock()
		return model.ErrStaleState
	}
	p.mu.Unlock()

	presence := model.PublishedPresence{
		UserID:      p.userID,
		Latitude:    sample.Latitude,
		Longitude:   sample.Longitude,
		SpatialKey:  geo.Encode(sample.Latitude, sample.Longitude, p.cfg.SpatialPrecision),
		PublishedAt: now,
	}

	if _, err := p.store.Upsert(ctx, presence); err != nil {
		return fmt.Errorf("failed to upsert presence: %w", err)
	}

	p.mu.Lock()
	p.last = &publishedState{
		latitude:  sample.Latitude,
		longitude: sample.Longitude,
		at:        now,
	}
	p.mu.Unlock()

	return nil
}
