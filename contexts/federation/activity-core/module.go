package activitycore

import (
	"log/slog"
	"time"

	httpadapter "concourse/contexts/federation/activity-core/adapters/http"
	"concourse/contexts/federation/activity-core/adapters/memory"
	"concourse/contexts/federation/activity-core/application/commands"
	"concourse/contexts/federation/activity-core/application/queries"
	"concourse/contexts/federation/activity-core/application/resolve"
	"concourse/contexts/federation/activity-core/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Inbound  commands.InboundUseCase
	Outbound commands.OutboundUseCase
	Store    *memory.Store
}

type Dependencies struct {
	Actors          ports.ActorRepository
	Objects         ports.ObjectRepository
	Communities     ports.CommunityRepository
	Votes           ports.VoteRepository
	Outbox          ports.OutboxWriter
	Fetcher         ports.Fetcher
	Deliverer       ports.Deliverer
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	FetchBudget     int
	RefreshInterval time.Duration
	BaseURL         string
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	resolver := resolve.Resolver{
		Actors:          deps.Actors,
		Objects:         deps.Objects,
		Fetcher:         deps.Fetcher,
		Clock:           deps.Clock,
		RefreshInterval: deps.RefreshInterval,
		Logger:          deps.Logger,
	}
	inbound := commands.InboundUseCase{
		Resolver:    resolver,
		Communities: deps.Communities,
		Votes:       deps.Votes,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		FetchBudget: deps.FetchBudget,
		Logger:      deps.Logger,
	}
	outbound := commands.OutboundUseCase{
		Actors:      deps.Actors,
		Objects:     deps.Objects,
		Communities: deps.Communities,
		Votes:       deps.Votes,
		Deliverer:   deps.Deliverer,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		BaseURL:     deps.BaseURL,
		Logger:      deps.Logger,
	}
	scores := queries.ScoreUseCase{
		Votes: deps.Votes,
	}
	return Module{
		Handler: httpadapter.Handler{
			Inbound:  inbound,
			Outbound: outbound,
			Scores:   scores,
			Logger:   deps.Logger,
		},
		Inbound:  inbound,
		Outbound: outbound,
	}
}

// NewInMemoryModule wires the module onto a single in-memory store, which
// also serves as clock, id generator, and outbox. Used by tests and local
// development wiring.
func NewInMemoryModule(fetcher ports.Fetcher, deliverer ports.Deliverer, baseURL string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Actors:      store,
		Objects:     store,
		Communities: store,
		Votes:       store,
		Outbox:      store,
		Fetcher:     fetcher,
		Deliverer:   deliverer,
		Clock:       store,
		IDGen:       store,
		BaseURL:     baseURL,
		Logger:      logger,
	})
	module.Store = store
	return module
}
