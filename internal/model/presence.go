package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PresenceStore defines persistence operations for published presences.
type PresenceStore interface {
	Upsert(ctx context.Context, presence PublishedPresence) (PublishedPresence, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (PublishedPresence, error)
	GetBySpatialKeys(ctx context.Context, keys []string, exclude uuid.UUID) ([]NearbyPresence, error)
}

// PresenceEvents delivers a signal whenever any published presence changes.
// The channel carries no payload; consumers re-query. It is closed when the
// subscription ends (context cancelled or connection lost).
type PresenceEvents interface {
	Subscribe(ctx context.Context) (<-chan struct{}, error)
}

// PublishedPresence is a user's most recently published location. One
// logical row per user; a new publish overwrites the previous value.
// SpatialKey is always the encoder's function of the coordinates at the
// configured precision, never set independently.
type PublishedPresence struct {
	UserID      uuid.UUID
	Latitude    float64
	Longitude   float64
	SpatialKey  string
	PublishedAt time.Time
}

// NearbyPresence is a presence row joined with the owner's interest set,
// as returned by the spatial candidate query.
type NearbyPresence struct {
	UserID      uuid.UUID
	Latitude    float64
	Longitude   float64
	SpatialKey  string
	PublishedAt time.Time
	Interests   []string
}
