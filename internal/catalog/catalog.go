package catalog

import (
	"context"
	"log/slog"
	"time"

	"splice/internal/logging"
	"splice/internal/store"
)

// EventRecorder receives ledger audit rows. *store.Store satisfies it.
type EventRecorder interface {
	RecordLedgerEvents(ctx context.Context, events []store.LedgerEvent) error
}

// recordEvents writes audit rows, logging rather than failing on error: the
// ledger file is the record of truth.
func recordEvents(ctx context.Context, recorder EventRecorder, logger *slog.Logger, events []store.LedgerEvent) {
	if recorder == nil || len(events) == 0 {
		return
	}
	if err := recorder.RecordLedgerEvents(ctx, events); err != nil {
		logging.WarnWithContext(logger, "ledger audit write failed", "ledger_audit_failed",
			logging.Error(err),
			logging.Int("events", len(events)),
			logging.String(logging.FieldErrorHint, "check the state database under paths.state_dir"),
			logging.String(logging.FieldImpact, "ledger file is updated but the audit log is incomplete"),
		)
	}
}

func nowFunc(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now()
}
