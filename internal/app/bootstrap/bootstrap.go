package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	activitycore "concourse/contexts/federation/activity-core"
	fetchadapter "concourse/contexts/federation/activity-core/adapters/fetch"
	activitypg "concourse/contexts/federation/activity-core/adapters/postgres"
	activityworkers "concourse/contexts/federation/activity-core/application/workers"
	relayservice "concourse/contexts/federation/relay-service"
	relaypg "concourse/contexts/federation/relay-service/adapters/postgres"
	relayworkers "concourse/contexts/federation/relay-service/application/workers"
	"concourse/internal/platform/config"
	"concourse/internal/platform/db"
	"concourse/internal/platform/delivery"
	"concourse/internal/platform/httpserver"
	"concourse/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres         *db.Postgres
	outboxRelay      activityworkers.OutboxRelay
	activityConsumer relayworkers.ActivityConsumer
	followerConsumer relayworkers.FollowerConsumer
	pruner           relayworkers.LedgerPruner
	pollInterval     time.Duration
	logger           *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := activitypg.NewRepository(pg.DB, logger)
	relayRepo := relaypg.NewRepository(pg.DB, logger)
	deliveryClient := delivery.NewClient(cfg.DeliveryTimeout, logger)
	module := activitycore.NewModule(activitycore.Dependencies{
		Actors:          repo,
		Objects:         repo,
		Communities:     repo,
		Votes:           repo,
		Outbox:          repo,
		Fetcher:         fetchadapter.NewClient(cfg.DeliveryTimeout, cfg.ServiceName, logger),
		Deliverer:       activityDeliverer{communities: repo, client: deliveryClient},
		Clock:           activitypg.SystemClock{},
		IDGen:           activitypg.UUIDGenerator{},
		FetchBudget:     cfg.FetchBudget,
		RefreshInterval: cfg.ActorRefreshInterval,
		BaseURL:         cfg.BaseURL,
		Logger:          logger,
	})

	relayModule := relayservice.NewModule(relayservice.Dependencies{
		Ledger:    relayRepo,
		Followers: relayRepo,
		Deliverer: relayDeliverer{client: deliveryClient},
		Clock:     relaypg.SystemClock{},
		IDGen:     relaypg.UUIDGenerator{},
		BaseURL:   cfg.BaseURL,
		Horizon:   cfg.RelayHorizon,
		Logger:    logger,
	})

	server := httpserver.New(module, relayModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	activityRepo := activitypg.NewRepository(pg.DB, logger)
	relayRepo := relaypg.NewRepository(pg.DB, logger)
	deliveryClient := delivery.NewClient(cfg.DeliveryTimeout, logger)

	relayModule := relayservice.NewModule(relayservice.Dependencies{
		Ledger:    relayRepo,
		Followers: relayRepo,
		Deliverer: relayDeliverer{client: deliveryClient},
		Clock:     relaypg.SystemClock{},
		IDGen:     relaypg.UUIDGenerator{},
		BaseURL:   cfg.BaseURL,
		Horizon:   cfg.RelayHorizon,
		Logger:    logger,
	})

	return &WorkerApp{
		postgres: pg,
		outboxRelay: activityworkers.OutboxRelay{
			Outbox:    activityRepo,
			Publisher: bus,
			Clock:     activitypg.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		activityConsumer: relayworkers.ActivityConsumer{
			Subscriber: bus,
			Forwarder:  relayModule.Forwarder,
			Disabled:   !cfg.EnableRelayActivityConsumer,
			Logger:     logger,
		},
		followerConsumer: relayworkers.FollowerConsumer{
			Subscriber: bus,
			Followers:  relayRepo,
			Clock:      relaypg.SystemClock{},
			Disabled:   !cfg.EnableRelayFollowerConsumer,
			Logger:     logger,
		},
		pruner:       relayModule.Pruner,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.activityConsumer.Start(ctx); err != nil {
		return err
	}
	if err := w.followerConsumer.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.pruner.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
