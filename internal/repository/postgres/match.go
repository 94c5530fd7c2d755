package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/okurilov/meetradar/internal/model"
)

var _ model.MatchStore = (*MatchRepository)(nil)

type MatchRepository struct {
	db *Connection
}

func NewMatchRepository(db *Connection) *MatchRepository {
	return &MatchRepository{
		db: db,
	}
}

// Upsert inserts a suggested match or, when the pair already exists,
// refreshes last_seen_together_at only. Status and shared interests of an
// existing record are never overwritten, so a connected match cannot
// revert and first-recorded interests win. Concurrent duplicate calls
// collapse on the pair_id primary key.
func (r *MatchRepository) Upsert(ctx context.Context, match model.MatchRecord) (model.MatchRecord, error) {
	query := `INSERT INTO matches (pair_id, user_a, user_b, shared_interests, status, last_seen_together_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (pair_id) DO UPDATE SET
			      last_seen_together_at = EXCLUDED.last_seen_together_at
			  RETURNING pair_id, user_a, user_b, shared_interests, status, last_seen_together_at, created_at`

	var saved model.MatchRecord
	err := r.db.QueryRow(ctx, query,
		match.PairID, match.UserA, match.UserB, match.SharedInterests,
		string(match.Status), match.LastSeenTogetherAt,
	).Scan(
		&saved.PairID, &saved.UserA, &saved.UserB, &saved.SharedInterests,
		&saved.Status, &saved.LastSeenTogetherAt, &saved.CreatedAt,
	)
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("failed to upsert match: %w", err)
	}

	return saved, nil
}

func (r *MatchRepository) GetByPairID(ctx context.Context, pairID string) (model.MatchRecord, error) {
	var match model.MatchRecord
	query := `SELECT pair_id, user_a, user_b, shared_interests, status, last_seen_together_at, created_at
			  FROM matches WHERE pair_id = $1`

	err := r.db.QueryRow(ctx, query, pairID).Scan(
		&match.PairID, &match.UserA, &match.UserB, &match.SharedInterests,
		&match.Status, &match.LastSeenTogetherAt, &match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MatchRecord{}, model.ErrNotFound
		}
		return model.MatchRecord{}, fmt.Errorf("failed to get match by pair id: %w", err)
	}

	return match, nil
}

func (r *MatchRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.MatchRecord, error) {
	query := `SELECT pair_id, user_a, user_b, shared_interests, status, last_seen_together_at, created_at
			  FROM matches
			  WHERE user_a = $1 OR user_b = $1
			  ORDER BY last_seen_together_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches by user id: %w", err)
	}
	defer rows.Close()

	var matches []model.MatchRecord
	for rows.Next() {
		var match model.MatchRecord
		err := rows.Scan(
			&match.PairID, &match.UserA, &match.UserB, &match.SharedInterests,
			&match.Status, &match.LastSeenTogetherAt, &match.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read match rows: %w", err)
	}

	return matches, nil
}
