package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"splice/internal/ledger"
	"splice/internal/logging"
	"splice/internal/scanner"
	"splice/internal/services"
	"splice/internal/store"
)

// DefaultMinDuration is the rebuild floor below which clips are dropped.
const DefaultMinDuration = 60 * time.Second

// RebuildRequest describes one rebuild pass.
type RebuildRequest struct {
	Catalog        string
	Root           string
	LedgerPath     string
	MinDuration    time.Duration
	Extensions     []string
	ExcludeMarkers []string
}

// SyncReport summarizes a rebuild.
type SyncReport struct {
	Scanned int
	Short   []string
	Unknown []string
	Added   []string
	Removed []ledger.Asset
	Total   int
}

// Synchronizer rebuilds a ledger so it mirrors the qualifying clips on a share.
type Synchronizer struct {
	Prober DurationProber
	Events EventRecorder
	Logger *slog.Logger
	Now    func() time.Time
}

// Rebuild scans the share, keeps clips with a known duration at or above the
// floor, and rewrites the ledger with dense sequence numbers ordered by
// case-insensitive file name. Clips already in the ledger keep their recorded
// age so an unchanged share produces an identical file. Entries whose file is
// gone or no longer qualifies are dropped and audited.
func (s *Synchronizer) Rebuild(ctx context.Context, req RebuildRequest) (SyncReport, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "synchronizer"))
	if strings.TrimSpace(req.LedgerPath) == "" {
		return SyncReport{}, services.Wrap(services.ErrValidation, "synchronizer", "validate", "ledger path is required", nil)
	}
	if s.Prober == nil {
		return SyncReport{}, services.Wrap(services.ErrConfiguration, "synchronizer", "prepare", "no duration prober configured", nil)
	}
	// Without the probe tool every clip would read as unknown and the ledger
	// would be emptied.
	if err := s.Prober.Ready(); err != nil {
		return SyncReport{}, err
	}
	minDuration := req.MinDuration
	if minDuration <= 0 {
		minDuration = DefaultMinDuration
	}
	ledgerPath := filepath.Clean(req.LedgerPath)

	unlock, err := ledger.Lock(ctx, ledgerPath)
	if err != nil {
		return SyncReport{}, err
	}
	defer func() { _ = unlock() }()

	current, _, err := ledger.Read(ledgerPath, logger)
	if err != nil {
		return SyncReport{}, err
	}

	files, err := scanner.Scan(req.Root, scanner.Options{
		Extensions:     req.Extensions,
		ExcludeMarkers: req.ExcludeMarkers,
		Logger:         s.Logger,
	})
	if err != nil {
		return SyncReport{}, err
	}

	report := SyncReport{Scanned: len(files)}
	now := nowFunc(s.Now)
	type candidate struct {
		path     string
		duration string
	}
	desired := make(map[string]candidate, len(files))
	var keep []string
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return SyncReport{}, err
		}
		seconds, known := s.Prober.ProbeDuration(ctx, path)
		switch {
		case !known:
			report.Unknown = append(report.Unknown, path)
			continue
		case seconds < minDuration.Seconds():
			logger.Debug("clip below duration floor", logging.String("path", path), logging.Float64("seconds", seconds))
			report.Short = append(report.Short, path)
			continue
		}
		desired[path] = candidate{path: path, duration: FormatDuration(seconds, true)}
		keep = append(keep, path)
	}

	scanner.SortByBaseName(keep)

	var events []store.LedgerEvent
	next, _ := ledger.New()
	for i, path := range keep {
		c := desired[path]
		asset := ledger.Asset{Sequence: i + 1, Path: c.path, Duration: c.duration}
		if existing, ok := current.ByPath(path); ok {
			asset.AgeSeconds = existing.AgeSeconds
		} else {
			asset.AgeSeconds = fileAge(path, now)
			report.Added = append(report.Added, path)
			events = append(events, store.LedgerEvent{Catalog: req.Catalog, Action: store.LedgerActionAdded, Path: path, Sequence: asset.Sequence})
		}
		if err := next.Append(asset); err != nil {
			return SyncReport{}, err
		}
	}
	for _, old := range current.Assets() {
		if _, ok := desired[old.Path]; ok {
			continue
		}
		report.Removed = append(report.Removed, old)
		events = append(events, store.LedgerEvent{Catalog: req.Catalog, Action: store.LedgerActionRemoved, Path: old.Path, Sequence: old.Sequence})
		logger.Info("asset removed from ledger",
			logging.Int(logging.FieldSequence, old.Sequence),
			logging.String("path", old.Path),
			logging.String(logging.FieldEventType, "ledger_removed"),
		)
	}

	if err := ledger.Write(ledgerPath, next); err != nil {
		return SyncReport{}, err
	}
	report.Total = next.Len()
	recordEvents(ctx, s.Events, logger, events)

	logger.Info("ledger rebuilt",
		logging.Int("total", report.Total),
		logging.Int("added", len(report.Added)),
		logging.Int("removed", len(report.Removed)),
		logging.Int("short", len(report.Short)),
		logging.Int("unknown", len(report.Unknown)),
		logging.String("ledger", ledgerPath),
		logging.String(logging.FieldEventType, "ledger_saved"),
	)
	return report, nil
}
