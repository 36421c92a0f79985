package catalog

import (
	"context"
	"errors"
	"fmt"
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

// AllocateRequest describes one allocation pass.
type AllocateRequest struct {
	Catalog    string
	Root       string
	LedgerPath string
	Keyword    string
	// Match is scanner.MatchFile (default) or scanner.MatchFolder.
	Match          string
	Width          int
	BatchSize      int
	Extensions     []string
	ExcludeMarkers []string
}

// DuplicateSkip records a match that was already registered.
type DuplicateSkip struct {
	Sequence int
	Path     string
}

// AllocateReport summarizes an allocation pass.
type AllocateReport struct {
	Last       int
	Added      []ledger.Asset
	Gaps       []int
	Duplicates []DuplicateSkip
	Total      int
}

// Allocator extends a ledger with the next sequence numbers found on a share.
type Allocator struct {
	Prober DurationProber
	Events EventRecorder
	Logger *slog.Logger
	Now    func() time.Time
}

// Allocate looks for files numbered last+1 .. last+BatchSize and appends each
// new match with the next sequence number. When the ledger has no stt values
// the last row's file name supplies the starting number. Existing rows are never
// renumbered, registered paths are never appended twice, and offsets with no
// matching file are left as gaps.
func (a *Allocator) Allocate(ctx context.Context, req AllocateRequest) (AllocateReport, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(a.Logger, "allocator"))
	if err := req.validate(); err != nil {
		return AllocateReport{}, err
	}
	if a.Prober == nil {
		return AllocateReport{}, services.Wrap(services.ErrConfiguration, "allocator", "prepare", "no duration prober configured", nil)
	}
	if err := a.Prober.Ready(); err != nil {
		return AllocateReport{}, err
	}

	unlock, err := ledger.Lock(ctx, req.LedgerPath)
	if err != nil {
		return AllocateReport{}, err
	}
	defer func() { _ = unlock() }()

	l, _, err := ledger.Read(req.LedgerPath, logger)
	if err != nil {
		return AllocateReport{}, err
	}
	report := AllocateReport{Last: max(l.MaxSequence(), l.LastSequence())}

	files, err := scanner.Scan(req.Root, scanner.Options{
		Extensions:     req.Extensions,
		ExcludeMarkers: req.ExcludeMarkers,
		Logger:         a.Logger,
	})
	if err != nil {
		return AllocateReport{}, err
	}

	now := nowFunc(a.Now)
	var events []store.LedgerEvent
	for offset := 1; offset <= req.BatchSize; offset++ {
		if err := ctx.Err(); err != nil {
			return AllocateReport{}, err
		}
		target := report.Last + offset
		label := scanner.FormatSequence(target, req.Width)
		match, ok := req.find(files, target)
		if !ok {
			logger.Info("no file for sequence",
				logging.Int(logging.FieldSequence, target),
				logging.String("pattern", fmt.Sprintf("%s %s", req.Keyword, label)),
				logging.String(logging.FieldEventType, "allocate_gap"),
			)
			report.Gaps = append(report.Gaps, target)
			continue
		}
		if l.Contains(match) {
			logger.Info("sequence file already registered",
				logging.Int(logging.FieldSequence, target),
				logging.String("path", match),
				logging.String(logging.FieldEventType, "allocate_duplicate"),
			)
			report.Duplicates = append(report.Duplicates, DuplicateSkip{Sequence: target, Path: match})
			continue
		}

		seconds, known := a.Prober.ProbeDuration(ctx, match)
		asset := ledger.Asset{
			Sequence:   target,
			Path:       match,
			Duration:   FormatDuration(seconds, known),
			AgeSeconds: fileAge(match, now),
		}
		if err := l.Append(asset); err != nil {
			if errors.Is(err, services.ErrDuplicatePath) {
				report.Duplicates = append(report.Duplicates, DuplicateSkip{Sequence: target, Path: match})
				continue
			}
			return AllocateReport{}, err
		}
		report.Added = append(report.Added, asset)
		events = append(events, store.LedgerEvent{Catalog: req.Catalog, Action: store.LedgerActionAdded, Path: match, Sequence: target})
		logger.Info("asset allocated",
			logging.Int(logging.FieldSequence, target),
			logging.String("path", match),
			logging.String("duration", asset.Duration),
			logging.String(logging.FieldEventType, "ledger_appended"),
		)
	}

	report.Total = l.Len()
	if len(report.Added) == 0 {
		logger.Info("no new assets", logging.Int("last", report.Last), logging.Int("gaps", len(report.Gaps)))
		return report, nil
	}
	if err := ledger.Write(req.LedgerPath, l); err != nil {
		return AllocateReport{}, err
	}
	recordEvents(ctx, a.Events, logger, events)
	logger.Info("ledger updated",
		logging.Int("added", len(report.Added)),
		logging.Int("total", report.Total),
		logging.String("ledger", req.LedgerPath),
		logging.String(logging.FieldEventType, "ledger_saved"),
	)
	return report, nil
}

func (r *AllocateRequest) find(files []string, target int) (string, bool) {
	if r.Match == scanner.MatchFolder {
		return scanner.FindSequenceFolder(r.Root, files, target, r.Width, r.Keyword)
	}
	return scanner.FindSequence(files, target, r.Width, r.Keyword)
}

func (r *AllocateRequest) validate() error {
	r.Keyword = strings.TrimSpace(r.Keyword)
	r.Match = strings.ToLower(strings.TrimSpace(r.Match))
	switch r.Match {
	case "":
		r.Match = scanner.MatchFile
	case scanner.MatchFile, scanner.MatchFolder:
	default:
		return services.Wrap(services.ErrValidation, "allocator", "validate", fmt.Sprintf("unknown match target %q", r.Match), nil)
	}
	if r.Keyword == "" && r.Match == scanner.MatchFile {
		return services.Wrap(services.ErrValidation, "allocator", "validate", "keyword is required", nil)
	}
	if strings.TrimSpace(r.LedgerPath) == "" {
		return services.Wrap(services.ErrValidation, "allocator", "validate", "ledger path is required", nil)
	}
	if r.Width <= 0 {
		r.Width = 3
	}
	if r.BatchSize <= 0 {
		r.BatchSize = 5
	}
	r.LedgerPath = filepath.Clean(r.LedgerPath)
	return nil
}
