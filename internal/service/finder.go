package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/okurilov/meetradar/internal/geo"
	"github.com/okurilov/meetradar/internal/logger"
	"github.com/okurilov/meetradar/internal/model"
)

// FinderConfig contains the nearby-query parameters.
type FinderConfig struct {
	MaxDistanceMeters float64
	SpatialPrecision  int
}

// Finder answers "who is nearby and shares an interest". It is stateless
// and safe to invoke concurrently.
type Finder struct {
	presences  model.PresenceStore
	reconciler *Reconciler
	cfg        FinderConfig
	logger     *logger.Logger
}

func NewFinder(
	presences model.PresenceStore,
	reconciler *Reconciler,
	cfg FinderConfig,
	logger *logger.Logger,
) *Finder {
	if cfg.SpatialPrecision <= 0 {
		cfg.SpatialPrecision = geo.DefaultPrecision
	}
	return &Finder{
		presences:  presences,
		reconciler: reconciler,
		cfg:        cfg,
		logger:     logger,
	}
}

// FindNearby queries the 9-cell neighborhood of the location, narrows the
// candidates by exact distance (inclusive bound) and interest overlap, and
// returns them ordered by ascending distance. Every returned candidate is
// reconciled into a match record before the call returns; matching is a
// side effect of finding. An empty interest set short-circuits without a
// query since no overlap is possible.
func (f *Finder) FindNearby(ctx context.Context, userID uuid.UUID, lat, lng float64, interests []string) ([]model.CandidateMatch, error) {
	if len(interests) == 0 {
		return nil, nil
	}

	if err := geo.ValidateCoordinate(lat, lng); err != nil {
		return nil, err
	}

	cells := geo.Neighbors(geo.Encode(lat, lng, f.cfg.SpatialPrecision))

	nearby, err := f.presences.GetBySpatialKeys(ctx, cells, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby presences: %w", err)
	}

	var candidates []model.CandidateMatch
	for _, presence := range nearby {
		distance := geo.Distance(lat, lng, presence.Latitude, presence.Longitude)
		if distance > f.cfg.MaxDistanceMeters {
			continue
		}

		shared := model.IntersectInterests(interests, presence.Interests)
		if len(shared) == 0 {
			continue
		}

		candidates = append(candidates, model.CandidateMatch{
			UserID:          presence.UserID,
			DistanceMeters:  distance,
			SharedInterests: shared,
		})
	}

	// Stable: exact-distance ties keep the fetch order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceMeters < candidates[j].DistanceMeters
	})

	for _, candidate := range candidates {
		if _, err := f.reconciler.Reconcile(ctx, userID, candidate); err != nil {
			// The candidate is still returned; the next evaluation retries.
			f.logger.Error("failed to reconcile match",
				"user_id", userID,
				"candidate_id", candidate.UserID,
				"error", err.Error())
		}
	}

	return candidates, nil
}
