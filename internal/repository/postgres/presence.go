package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/okurilov/meetradar/internal/model"
)

var _ model.PresenceStore = (*PresenceRepository)(nil)

type PresenceRepository struct {
	db *Connection
}

func NewPresenceRepository(db *Connection) *PresenceRepository {
	return &PresenceRepository{
		db: db,
	}
}

// Upsert writes the single presence row for a user, overwriting any
// previous value.
func (r *PresenceRepository) Upsert(ctx context.Context, presence model.PublishedPresence) (model.PublishedPresence, error) {
	query := `INSERT INTO presences (user_id, latitude, longitude, spatial_key, published_at)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (user_id) DO UPDATE SET
			      latitude = EXCLUDED.latitude,
			      longitude = EXCLUDED.longitude,
			      spatial_key = EXCLUDED.spatial_key,
			      published_at = EXCLUDED.published_at
			  RETURNING user_id, latitude, longitude, spatial_key, published_at`

	var saved model.PublishedPresence
	err := r.db.QueryRow(ctx, query,
		presence.UserID, presence.Latitude, presence.Longitude, presence.SpatialKey, presence.PublishedAt,
	).Scan(
		&saved.UserID, &saved.Latitude, &saved.Longitude, &saved.SpatialKey, &saved.PublishedAt,
	)
	if err != nil {
		return model.PublishedPresence{}, fmt.Errorf("failed to upsert presence: %w", err)
	}

	return saved, nil
}

func (r *PresenceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (model.PublishedPresence, error) {
	var presence model.PublishedPresence
	query := `SELECT user_id, latitude, longitude, spatial_key, published_at
			  FROM presences WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&presence.UserID, &presence.Latitude, &presence.Longitude, &presence.SpatialKey, &presence.PublishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PublishedPresence{}, model.ErrNotFound
		}
		return model.PublishedPresence{}, fmt.Errorf("failed to get presence by user id: %w", err)
	}

	return presence, nil
}

// GetBySpatialKeys returns other users' presences in the given cells joined
// with their interest sets, restricted to visible, onboarded profiles.
func (r *PresenceRepository) GetBySpatialKeys(ctx context.Context, keys []string, exclude uuid.UUID) ([]model.NearbyPresence, error) {
	query := `SELECT p.user_id, p.latitude, p.longitude, p.spatial_key, p.published_at, pr.interests
			  FROM presences p
			  JOIN profiles pr ON pr.user_id = p.user_id
			  WHERE p.spatial_key = ANY($1)
			    AND p.user_id <> $2
			    AND pr.visible
			    AND pr.onboarded
			  ORDER BY p.published_at DESC, p.user_id`

	rows, err := r.db.Query(ctx, query, keys, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to query presences by spatial keys: %w", err)
	}
	defer rows.Close()

	var presences []model.NearbyPresence
	for rows.Next() {
		var p model.NearbyPresence
		err := rows.Scan(&p.UserID, &p.Latitude, &p.Longitude, &p.SpatialKey, &p.PublishedAt, &p.Interests)
		if err != nil {
			return nil, fmt.Errorf("failed to scan presence row: %w", err)
		}
		presences = append(presences, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read presence rows: %w", err)
	}

	return presences, nil
}
