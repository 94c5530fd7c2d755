package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/okurilov/meetradar/internal/model"
)

var _ model.ProfileStore = (*ProfileRepository)(nil)

type ProfileRepository struct {
	db *Connection
}

func NewProfileRepository(db *Connection) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	var profile model.Profile
	query := `SELECT user_id, interests, visible, onboarded, created_at, updated_at
			  FROM profiles WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&profile.UserID, &profile.Interests, &profile.Visible, &profile.Onboarded,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to get profile by id: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, profile model.Profile) (model.Profile, error) {
	query := `INSERT INTO profiles (user_id, interests, visible, onboarded)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_id) DO UPDATE SET
			      interests = EXCLUDED.interests,
			      visible = EXCLUDED.visible,
			      onboarded = EXCLUDED.onboarded,
			      updated_at = now()
			  RETURNING user_id, interests, visible, onboarded, created_at, updated_at`

	var saved model.Profile
	err := r.db.QueryRow(ctx, query,
		profile.UserID, profile.Interests, profile.Visible, profile.Onboarded,
	).Scan(
		&saved.UserID, &saved.Interests, &saved.Visible, &saved.Onboarded,
		&saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return saved, nil
}
