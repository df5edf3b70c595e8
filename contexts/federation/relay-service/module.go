package relayservice

import (
	"log/slog"
	"time"

	httpadapter "concourse/contexts/federation/relay-service/adapters/http"
	"concourse/contexts/federation/relay-service/adapters/memory"
	"concourse/contexts/federation/relay-service/application/commands"
	"concourse/contexts/federation/relay-service/application/queries"
	"concourse/contexts/federation/relay-service/application/workers"
	"concourse/contexts/federation/relay-service/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Forwarder commands.ForwardUseCase
	Pruner    workers.LedgerPruner
	Store     *memory.Store
}

type Dependencies struct {
	Ledger    ports.ForwardLedger
	Followers ports.FollowerRepository
	Deliverer ports.Deliverer
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BaseURL   string
	Horizon   time.Duration
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	forwarder := commands.ForwardUseCase{
		Ledger:    deps.Ledger,
		Followers: deps.Followers,
		Deliverer: deps.Deliverer,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		BaseURL:   deps.BaseURL,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Followers: queries.FollowerUseCase{Followers: deps.Followers},
			Logger:    deps.Logger,
		},
		Forwarder: forwarder,
		Pruner: workers.LedgerPruner{
			Ledger:  deps.Ledger,
			Clock:   deps.Clock,
			Horizon: deps.Horizon,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module onto a single in-memory store, which
// also serves as clock and id generator. Used by tests and local wiring.
func NewInMemoryModule(deliverer ports.Deliverer, baseURL string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Ledger:    store,
		Followers: store,
		Deliverer: deliverer,
		Clock:     store,
		IDGen:     store,
		BaseURL:   baseURL,
		Logger:    logger,
	})
	module.Store = store
	return module
}
