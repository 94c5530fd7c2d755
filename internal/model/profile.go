package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProfileStore defines read/write operations for user profiles. Only the
// subset relevant to matching is modeled; the full profile belongs to the
// surrounding application.
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Profile, error)
	Upsert(ctx context.Context, profile Profile) (Profile, error)
}

// Profile is the matching-relevant subset of a user profile.
type Profile struct {
	UserID    uuid.UUID `json:"user_id"`
	Interests []string  `json:"interests"`
	Visible   bool      `json:"visible"`
	Onboarded bool      `json:"onboarded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IntersectInterests returns the elements of a that also appear in b,
// preserving the order of a. Comparison is exact.
func IntersectInterests(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(b))
	for _, interest := range b {
		set[interest] = struct{}{}
	}
	var shared []string
	for _, interest := range a {
		if _, ok := set[interest]; ok {
			shared = append(shared, interest)
		}
	}
	return shared
}
