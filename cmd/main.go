package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okurilov/meetradar/internal/config"
	"github.com/okurilov/meetradar/internal/logger"
	"github.com/okurilov/meetradar/internal/model"
	"github.com/okurilov/meetradar/internal/repository/cache"
	"github.com/okurilov/meetradar/internal/repository/postgres"
	"github.com/okurilov/meetradar/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	userID, err := uuid.Parse(cfg.Session.UserID)
	if err != nil {
		logger.Fatal("failed to parse session user id", "error", err)
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	presenceRepo := postgres.NewPresenceRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	listener := postgres.NewPresenceListener(db, logger)

	var profiles model.ProfileStore = postgres.NewProfileRepository(db)
	if cfg.Cache.Enabled {
		profiles = cache.NewProfileCache(profiles, cfg.Cache.SizeMB, cfg.Cache.TTL)
	}

	clock := model.SystemClock()

	publisher := service.NewPublisher(userID, presenceRepo, service.PublisherConfig{
		MinDisplacementMeters:    cfg.Presence.MinDisplacementMeters,
		MinIntervalStationary:    cfg.Presence.MinIntervalStationary,
		MinIntervalMoving:        cfg.Presence.MinIntervalMoving,
		StationarySpeedThreshold: cfg.Presence.StationarySpeedThreshold,
		Debounce:                 cfg.Presence.Debounce,
		SpatialPrecision:         cfg.Matching.SpatialPrecision,
	}, clock, logger)

	reconciler := service.NewReconciler(matchRepo, clock, logger)
	finder := service.NewFinder(presenceRepo, reconciler, service.FinderConfig{
		MaxDistanceMeters: cfg.Matching.MaxDistanceMeters,
		SpatialPrecision:  cfg.Matching.SpatialPrecision,
	}, logger)

	scheduler := service.NewScheduler(
		userID, finder, presenceRepo, profiles, listener,
		cfg.Matching.ReEvaluationInterval, clock,
		func(results []model.CandidateMatch) {
			logger.Info("nearby results", "user_id", userID, "count", len(results))
			for _, r := range results {
				logger.Info("candidate",
					"user_id", r.UserID,
					"distance_m", r.DistanceMeters,
					"shared_interests", r.SharedInterests)
			}
		},
		logger,
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		publisher.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := scheduler.Run(ctx); err != nil {
			logger.Error("scheduler stopped", "error", err)
			stop()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		readSamples(ctx, publisher, logger)
	}()

	logger.Info("session started", "user_id", userID)

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	wg.Wait()
	logger.Info("shutdown complete")
}

// readSamples feeds location samples from stdin into the publisher, one
// JSON object per line. Malformed lines are logged and skipped.
func readSamples(ctx context.Context, publisher *service.Publisher, logger *logger.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var sample model.LocationSample
		if err := json.Unmarshal(line, &sample); err != nil {
			logger.Error("failed to decode location sample", "error", err)
			continue
		}

		publisher.Offer(sample)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		logger.Error("sample input closed", "error", err)
	}
}
