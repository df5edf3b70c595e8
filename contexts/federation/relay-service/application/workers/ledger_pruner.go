package workers

import (
	"context"
	"log/slog"
	"time"

	application "concourse/contexts/federation/relay-service/application"
	"concourse/contexts/federation/relay-service/ports"
)

const defaultRetentionHorizon = 7 * 24 * time.Hour

// LedgerPruner drops forward-ledger entries old enough that redelivery of
// the same activity id is practically impossible, keeping the dedup set
// bounded.
type LedgerPruner struct {
	Ledger  ports.ForwardLedger
	Clock   ports.Clock
	Horizon time.Duration
	Logger  *slog.Logger
}

func (p LedgerPruner) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(p.Logger)
	horizon := p.Horizon
	if horizon <= 0 {
		horizon = defaultRetentionHorizon
	}
	now := time.Now().UTC()
	if p.Clock != nil {
		now = p.Clock.Now().UTC()
	}

	pruned, err := p.Ledger.PruneBefore(ctx, now.Add(-horizon))
	if err != nil {
		logger.Error("relay ledger prune failed",
			"event", "relay_ledger_prune_failed",
			"module", "federation/relay-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if pruned > 0 {
		logger.Info("relay ledger pruned",
			"event", "relay_ledger_pruned",
			"module", "federation/relay-service",
			"layer", "worker",
			"pruned_count", pruned,
			"horizon", horizon.String(),
		)
	}
	return nil
}
