package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MatchStore defines persistence operations for match records. Upsert must
// be idempotent per pair: an existing record only has LastSeenTogetherAt
// refreshed, status and shared interests are preserved.
type MatchStore interface {
	Upsert(ctx context.Context, match MatchRecord) (MatchRecord, error)
	GetByPairID(ctx context.Context, pairID string) (MatchRecord, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]MatchRecord, error)
}

// MatchStatus enumerates match record states.
type MatchStatus string

const (
	// MatchStatusSuggested is set on first qualifying co-presence.
	MatchStatusSuggested MatchStatus = "suggested"
	// MatchStatusConnected is set by the external connection-request flow
	// and is never reverted by the matching engine.
	MatchStatusConnected MatchStatus = "connected"
)

// MatchRecord is a durable record that two users were mutually eligible to
// meet. Exactly one record exists per unordered user pair, enforced by the
// PairID uniqueness key. UserA precedes UserB in the canonical pair order.
type MatchRecord struct {
	PairID             string
	UserA              uuid.UUID
	UserB              uuid.UUID
	SharedInterests    []string
	Status             MatchStatus
	LastSeenTogetherAt time.Time
	CreatedAt          time.Time
}

// CandidateMatch is a transient computed value describing a qualifying
// nearby user. It is never persisted directly.
type CandidateMatch struct {
	UserID          uuid.UUID
	DistanceMeters  float64
	SharedInterests []string
}

// OrderPair returns the two ids in canonical order (lexicographic over the
// string form), so that (a,b) and (b,a) map to the same pair.
func OrderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if b.String() < a.String() {
		return b, a
	}
	return a, b
}

// PairKey derives the deterministic uniqueness key for an unordered pair.
func PairKey(a, b uuid.UUID) string {
	first, second := OrderPair(a, b)
	return first.String() + ":" + second.String()
}
