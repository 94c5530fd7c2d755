//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/okurilov/meetradar/internal/geo"
	"github.com/okurilov/meetradar/internal/model"
	repo "github.com/okurilov/meetradar/internal/repository/postgres"
	"github.com/okurilov/meetradar/internal/testutil"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "meetradar_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/meetradar_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func seedProfile(t *testing.T, ctx context.Context, profiles *repo.ProfileRepository, interests []string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := profiles.Upsert(ctx, model.Profile{
		UserID:    id,
		Interests: interests,
		Visible:   true,
		Onboarded: true,
	})
	require.NoError(t, err)
	return id
}

func TestRepositories(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	profiles := repo.NewProfileRepository(conn)
	presences := repo.NewPresenceRepository(conn)
	matches := repo.NewMatchRepository(conn)

	t.Run("profile_upsert_and_get", func(t *testing.T) {
		id := seedProfile(t, ctx, profiles, []string{"coffee", "hiking"})

		got, err := profiles.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, []string{"coffee", "hiking"}, got.Interests)
		require.True(t, got.Visible)
		require.True(t, got.Onboarded)

		_, err = profiles.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("presence_upsert_overwrites", func(t *testing.T) {
		id := seedProfile(t, ctx, profiles, []string{"coffee"})

		first := model.PublishedPresence{
			UserID:      id,
			Latitude:    35.9940,
			Longitude:   -78.8986,
			SpatialKey:  geo.Encode(35.9940, -78.8986, 6),
			PublishedAt: time.Now().UTC(),
		}
		_, err := presences.Upsert(ctx, first)
		require.NoError(t, err)

		second := first
		second.Latitude = 36.0010
		second.SpatialKey = geo.Encode(second.Latitude, second.Longitude, 6)
		second.PublishedAt = first.PublishedAt.Add(time.Minute)
		_, err = presences.Upsert(ctx, second)
		require.NoError(t, err)

		got, err := presences.GetByUserID(ctx, id)
		require.NoError(t, err)
		require.InDelta(t, 36.0010, got.Latitude, 1e-9)
		require.Equal(t, second.SpatialKey, got.SpatialKey)
	})

	t.Run("presence_spatial_query_filters_flags", func(t *testing.T) {
		me := seedProfile(t, ctx, profiles, []string{"coffee"})
		visible := seedProfile(t, ctx, profiles, []string{"coffee"})
		hidden := uuid.New()
		_, err := profiles.Upsert(ctx, model.Profile{UserID: hidden, Interests: []string{"coffee"}, Visible: false, Onboarded: true})
		require.NoError(t, err)

		key := geo.Encode(40.7128, -74.0060, 6)
		for _, id := range []uuid.UUID{me, visible, hidden} {
			_, err := presences.Upsert(ctx, model.PublishedPresence{
				UserID: id, Latitude: 40.7128, Longitude: -74.0060,
				SpatialKey: key, PublishedAt: time.Now().UTC(),
			})
			require.NoError(t, err)
		}

		nearby, err := presences.GetBySpatialKeys(ctx, geo.Neighbors(key), me)
		require.NoError(t, err)
		require.Len(t, nearby, 1)
		require.Equal(t, visible, nearby[0].UserID)
		require.Equal(t, []string{"coffee"}, nearby[0].Interests)
	})

	t.Run("match_upsert_is_idempotent_per_pair", func(t *testing.T) {
		u1, u2 := uuid.New(), uuid.New()
		a, b := model.OrderPair(u1, u2)
		seen := time.Now().UTC().Truncate(time.Microsecond)

		created, err := matches.Upsert(ctx, model.MatchRecord{
			PairID: model.PairKey(u1, u2), UserA: a, UserB: b,
			SharedInterests: []string{"coffee"}, Status: model.MatchStatusSuggested,
			LastSeenTogetherAt: seen,
		})
		require.NoError(t, err)
		require.Equal(t, model.MatchStatusSuggested, created.Status)

		// Reconciling again from the reversed order with a larger interest
		// set refreshes the timestamp but keeps the original interests.
		refreshed, err := matches.Upsert(ctx, model.MatchRecord{
			PairID: model.PairKey(u2, u1), UserA: a, UserB: b,
			SharedInterests: []string{"coffee", "books"}, Status: model.MatchStatusSuggested,
			LastSeenTogetherAt: seen.Add(time.Minute),
		})
		require.NoError(t, err)
		require.Equal(t, created.PairID, refreshed.PairID)
		require.Equal(t, []string{"coffee"}, refreshed.SharedInterests)
		require.True(t, refreshed.LastSeenTogetherAt.After(created.LastSeenTogetherAt))

		records, err := matches.GetByUserID(ctx, u1)
		require.NoError(t, err)
		require.Len(t, records, 1)
	})

	t.Run("connected_status_is_never_reverted", func(t *testing.T) {
		u1, u2 := uuid.New(), uuid.New()
		a, b := model.OrderPair(u1, u2)
		pairID := model.PairKey(u1, u2)

		_, err := matches.Upsert(ctx, model.MatchRecord{
			PairID: pairID, UserA: a, UserB: b,
			SharedInterests: []string{"music"}, Status: model.MatchStatusSuggested,
			LastSeenTogetherAt: time.Now().UTC(),
		})
		require.NoError(t, err)

		// The external connection flow owns this transition.
		_, err = conn.Exec(ctx, `UPDATE matches SET status = 'connected' WHERE pair_id = $1`, pairID)
		require.NoError(t, err)

		refreshed, err := matches.Upsert(ctx, model.MatchRecord{
			PairID: pairID, UserA: a, UserB: b,
			SharedInterests: []string{"music"}, Status: model.MatchStatusSuggested,
			LastSeenTogetherAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		require.Equal(t, model.MatchStatusConnected, refreshed.Status)
	})

	t.Run("presence_change_notification", func(t *testing.T) {
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		listener := repo.NewPresenceListener(conn, testutil.MakeNoopLogger())
		events, err := listener.Subscribe(subCtx)
		require.NoError(t, err)

		id := seedProfile(t, ctx, profiles, []string{"coffee"})
		_, err = presences.Upsert(ctx, model.PublishedPresence{
			UserID: id, Latitude: 1, Longitude: 1,
			SpatialKey: geo.Encode(1, 1, 6), PublishedAt: time.Now().UTC(),
		})
		require.NoError(t, err)

		select {
		case _, ok := <-events:
			require.True(t, ok)
		case <-time.After(5 * time.Second):
			t.Fatal("no presence change notification received")
		}
	})
}
