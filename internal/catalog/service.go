package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"splice/internal/config"
	"splice/internal/services"
)

// Outcome is the result of synchronizing one configured catalog. Exactly one
// of Allocate or Rebuild is set, matching Mode.
type Outcome struct {
	Catalog  string
	Mode     string
	Allocate *AllocateReport
	Rebuild  *SyncReport
}

// Summary renders a one-line description of the outcome.
func (o Outcome) Summary() string {
	switch {
	case o.Allocate != nil:
		r := o.Allocate
		return fmt.Sprintf("%s: allocated %d (last %d, %d gaps, %d duplicates, %d total)",
			o.Catalog, len(r.Added), r.Last, len(r.Gaps), len(r.Duplicates), r.Total)
	case o.Rebuild != nil:
		r := o.Rebuild
		return fmt.Sprintf("%s: rebuilt %d entries (%d scanned, %d added, %d removed, %d short, %d unreadable)",
			o.Catalog, r.Total, r.Scanned, len(r.Added), len(r.Removed), len(r.Short), len(r.Unknown))
	default:
		return o.Catalog + ": nothing to do"
	}
}

// Service runs the configured mode for a catalog.
type Service struct {
	Prober DurationProber
	Events EventRecorder
	Logger *slog.Logger
	Now    func() time.Time
}

// Sync allocates or rebuilds cat's ledger depending on its mode.
func (s *Service) Sync(ctx context.Context, cat config.Catalog) (Outcome, error) {
	ctx = services.WithCatalog(ctx, cat.Name)
	outcome := Outcome{Catalog: cat.Name, Mode: cat.Mode}
	switch cat.Mode {
	case config.ModeAllocate:
		allocator := &Allocator{Prober: s.Prober, Events: s.Events, Logger: s.Logger, Now: s.Now}
		report, err := allocator.Allocate(ctx, AllocateRequestFor(cat))
		if err != nil {
			return outcome, err
		}
		outcome.Allocate = &report
	case config.ModeRebuild:
		synchronizer := &Synchronizer{Prober: s.Prober, Events: s.Events, Logger: s.Logger, Now: s.Now}
		report, err := synchronizer.Rebuild(ctx, RebuildRequestFor(cat))
		if err != nil {
			return outcome, err
		}
		outcome.Rebuild = &report
	default:
		return outcome, services.Wrap(services.ErrConfiguration, "catalog", "sync",
			fmt.Sprintf("catalog %q has unknown mode %q", cat.Name, cat.Mode), nil)
	}
	return outcome, nil
}

// AllocateRequestFor maps a configured catalog onto an allocation request.
func AllocateRequestFor(cat config.Catalog) AllocateRequest {
	return AllocateRequest{
		Catalog:        cat.Name,
		Root:           cat.Root,
		LedgerPath:     cat.Ledger,
		Keyword:        cat.Keyword,
		Match:          cat.Match,
		Width:          cat.NumberWidth,
		BatchSize:      cat.BatchSize,
		Extensions:     cat.Extensions,
		ExcludeMarkers: cat.ExcludeMarkers,
	}
}

// RebuildRequestFor maps a configured catalog onto a rebuild request.
func RebuildRequestFor(cat config.Catalog) RebuildRequest {
	return RebuildRequest{
		Catalog:        cat.Name,
		Root:           cat.Root,
		LedgerPath:     cat.Ledger,
		MinDuration:    time.Duration(cat.MinDurationSeconds) * time.Second,
		Extensions:     cat.Extensions,
		ExcludeMarkers: cat.ExcludeMarkers,
	}
}
