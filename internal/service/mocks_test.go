package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/okurilov/meetradar/internal/model"
)

// MockPresenceStore mocks the PresenceStore interface
type MockPresenceStore struct {
	mock.Mock
}

func (m *MockPresenceStore) Upsert(ctx context.Context, presence model.PublishedPresence) (model.PublishedPresence, error) {
	args := m.Called(ctx, presence)
	return args.Get(0).(model.PublishedPresence), args.Error(1)
}

func (m *MockPresenceStore) GetByUserID(ctx context.Context, userID uuid.UUID) (model.PublishedPresence, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.PublishedPresence), args.Error(1)
}

func (m *MockPresenceStore) GetBySpatialKeys(ctx context.Context, keys []string, exclude uuid.UUID) ([]model.NearbyPresence, error) {
	args := m.Called(ctx, keys, exclude)
	return args.Get(0).([]model.NearbyPresence), args.Error(1)
}

// MockProfileStore mocks the ProfileStore interface
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetByID(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Profile), args.Error(1)
}

func (m *MockProfileStore) Upsert(ctx context.Context, profile model.Profile) (model.Profile, error) {
	args := m.Called(ctx, profile)
	return args.Get(0).(model.Profile), args.Error(1)
}

// MockMatchStore mocks the MatchStore interface
type MockMatchStore struct {
	mock.Mock
}

func (m *MockMatchStore) Upsert(ctx context.Context, match model.MatchRecord) (model.MatchRecord, error) {
	args := m.Called(ctx, match)
	return args.Get(0).(model.MatchRecord), args.Error(1)
}

func (m *MockMatchStore) GetByPairID(ctx context.Context, pairID string) (model.MatchRecord, error) {
	args := m.Called(ctx, pairID)
	return args.Get(0).(model.MatchRecord), args.Error(1)
}

func (m *MockMatchStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.MatchRecord, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.MatchRecord), args.Error(1)
}

// stubEvents is a hand stub for PresenceEvents backed by a plain channel.
type stubEvents struct {
	ch chan struct{}
}

func newStubEvents() *stubEvents {
	return &stubEvents{ch: make(chan struct{}, 1)}
}

func (s *stubEvents) Subscribe(_ context.Context) (<-chan struct{}, error) {
	return s.ch, nil
}

func (s *stubEvents) notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}
