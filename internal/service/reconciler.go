package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/okurilov/meetradar/internal/logger"
	"github.com/okurilov/meetradar/internal/model"
)

// Reconciler turns a qualifying candidate pair into a durable match
// record. The operation is an idempotent upsert keyed by the deterministic
// pair id, so duplicate triggers from either side collapse into one record.
type Reconciler struct {
	matches model.MatchStore
	clock   model.Clock
	logger  *logger.Logger
}

func NewReconciler(matches model.MatchStore, clock model.Clock, logger *logger.Logger) *Reconciler {
	return &Reconciler{
		matches: matches,
		clock:   clock,
		logger:  logger,
	}
}

// Reconcile creates the suggested match for (userID, candidate) or, when
// the pair is already recorded, refreshes its last-seen-together time. The
// store preserves status and first-recorded interests on refresh.
func (r *Reconciler) Reconcile(ctx context.Context, userID uuid.UUID, candidate model.CandidateMatch) (model.MatchRecord, error) {
	userA, userB := model.OrderPair(userID, candidate.UserID)

	record := model.MatchRecord{
		PairID:             model.PairKey(userID, candidate.UserID),
		UserA:              userA,
		UserB:              userB,
		SharedInterests:    candidate.SharedInterests,
		Status:             model.MatchStatusSuggested,
		LastSeenTogetherAt: r.clock.Now().UTC(),
	}

	saved, err := r.matches.Upsert(ctx, record)
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("failed to upsert match record: %w", err)
	}

	r.logger.Debug("match reconciled",
		"pair_id", saved.PairID,
		"status", string(saved.Status))

	return saved, nil
}
