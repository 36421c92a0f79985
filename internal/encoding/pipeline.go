package encoding

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"splice/internal/config"
	"splice/internal/deps"
	"splice/internal/fileutil"
	"splice/internal/logging"
	"splice/internal/notifications"
	"splice/internal/services"
	"splice/internal/staging"
)

// RunDirPrefix names per-run working directories under paths.work_dir.
const RunDirPrefix = staging.RunDirPrefix

// RunRecorder persists pipeline run history.
type RunRecorder interface {
	StartRun(ctx context.Context, id, catalog, outputPath string, inputs []string) error
	FinishRun(ctx context.Context, id string, runErr error) error
}

// RunRequest names the clips to join, in output order.
type RunRequest struct {
	Catalog string
	Inputs  []string
	Output  string
}

// RunResult summarizes a successful run.
type RunResult struct {
	RunID    string
	Output   string
	Segments int
	Codec    string
	Elapsed  time.Duration
}

type job struct {
	index  int
	input  string
	output string
}

// Pipeline normalizes clips in parallel and concatenates the results in
// request order.
type Pipeline struct {
	workDir      string
	normalizer   *Normalizer
	concatenator *Concatenator
	recorder     RunRecorder
	notifier     notifications.Service
	logger       *slog.Logger
	now          func() time.Time
}

// NewPipeline builds a pipeline from configuration. recorder and notifier may
// be nil.
func NewPipeline(cfg *config.Config, recorder RunRecorder, notifier notifications.Service, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "configuration is required", nil)
	}
	profile, err := ProfileFromConfig(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Pipeline{
		workDir:      cfg.Paths.WorkDir,
		normalizer:   NewNormalizer(profile, cfg.FFmpegBinary(), logger),
		concatenator: NewConcatenator(cfg.FFmpegBinary(), logger),
		recorder:     recorder,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		now:          time.Now,
	}, nil
}

// Normalizer exposes the pipeline's normalizer.
func (p *Pipeline) Normalizer() *Normalizer {
	return p.normalizer
}

// Run normalizes every input with a bounded worker pool and joins the segments
// into req.Output. The first job failure cancels the remaining jobs and is
// returned. Intermediates are removed on success and left in the run
// directory on failure.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if err := validateRequest(req); err != nil {
		return RunResult{}, err
	}
	if _, err := deps.Resolve(p.normalizer.binary); err != nil {
		return RunResult{}, err
	}

	output, err := filepath.Abs(req.Output)
	if err != nil {
		return RunResult{}, services.Wrap(services.ErrValidation, "pipeline", "resolve output", "Invalid output path", err)
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	if req.Catalog != "" {
		ctx = services.WithCatalog(ctx, req.Catalog)
	}
	logger := logging.WithContext(ctx, p.logger)
	started := p.now()

	runDir := filepath.Join(p.workDir, RunDirPrefix+runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return RunResult{}, services.Wrap(services.ErrConfiguration, "pipeline", "create run dir", "Failed to create run directory", err)
	}
	p.recordStart(ctx, logger, runID, req.Catalog, output, req.Inputs)

	codec := p.normalizer.Codec()
	logger.Info("run started",
		logging.Int("clips", len(req.Inputs)),
		logging.Int("workers", p.normalizer.profile.workers),
		logging.String("codec", codec),
		logging.String("output", output),
		logging.String(logging.FieldEventType, "run_start"),
	)

	segments, err := p.normalizeAll(ctx, runDir, req.Inputs)
	if err == nil {
		err = p.join(ctx, segments, runDir, output)
	}
	p.recordFinish(ctx, logger, runID, err)
	if err != nil {
		logging.ErrorWithContext(logger, "run failed", "run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String("run_dir", runDir),
		)
		if ctx.Err() == nil {
			if notifyErr := p.notifier.NotifyError(ctx, err, runLabel(req.Catalog, runID)); notifyErr != nil {
				logger.Warn("failure notification failed", logging.Error(notifyErr))
			}
		}
		return RunResult{}, err
	}
	p.removeRunDir(logger, runDir)

	result := RunResult{
		RunID:    runID,
		Output:   output,
		Segments: len(segments),
		Codec:    codec,
		Elapsed:  p.now().Sub(started),
	}
	logger.Info("run completed",
		logging.String("output", output),
		logging.Int("segments", result.Segments),
		logging.Duration("elapsed", result.Elapsed),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	if notifyErr := p.notifier.NotifyRunCompleted(ctx, notifications.RunSummary{
		Catalog: req.Catalog,
		Output:  output,
		Clips:   result.Segments,
		Elapsed: result.Elapsed,
	}); notifyErr != nil {
		logger.Warn("run notification failed", logging.Error(notifyErr))
	}
	return result, nil
}

func (p *Pipeline) normalizeAll(ctx context.Context, runDir string, inputs []string) ([]Segment, error) {
	jobs := make([]job, len(inputs))
	for i, input := range inputs {
		jobs[i] = job{
			index:  i,
			input:  input,
			output: filepath.Join(runDir, fmt.Sprintf("normalized_%03d.mp4", i)),
		}
	}

	segments := make([]Segment, len(jobs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.normalizer.profile.workers)
	for _, j := range jobs {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			jobCtx := services.WithJobIndex(groupCtx, j.index)
			segment, err := p.normalizer.Normalize(jobCtx, j.input, j.output)
			if err != nil {
				return err
			}
			segments[j.index] = segment
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return segments, nil
}

func (p *Pipeline) join(ctx context.Context, segments []Segment, runDir, output string) error {
	joined := filepath.Join(runDir, "joined"+outputExtension(output))
	if err := p.concatenator.Concat(ctx, segments, runDir, joined); err != nil {
		return err
	}
	if err := fileutil.MoveFile(joined, output); err != nil {
		return services.Wrap(services.ErrToolFailure, "pipeline", "finalize output", "Failed to move joined output into place", err)
	}
	return nil
}

// removeRunDir drops a finished run's intermediates. Failed runs keep theirs
// until staging cleanup.
func (p *Pipeline) removeRunDir(logger *slog.Logger, runDir string) {
	if err := os.RemoveAll(runDir); err != nil {
		logger.Warn("failed to remove run directory",
			logging.String("path", runDir),
			logging.Error(err),
			logging.String(logging.FieldEventType, "run_cleanup_failed"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
	}
}

func runLabel(catalog, runID string) string {
	if catalog == "" {
		return "run " + runID
	}
	return fmt.Sprintf("%s run %s", catalog, runID)
}

func (p *Pipeline) recordStart(ctx context.Context, logger *slog.Logger, runID, catalog, output string, inputs []string) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.StartRun(ctx, runID, catalog, output, inputs); err != nil {
		logging.WarnWithContext(logger, "failed to record run start", "run_history_failed", logging.Error(err))
	}
}

func (p *Pipeline) recordFinish(ctx context.Context, logger *slog.Logger, runID string, runErr error) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.FinishRun(context.WithoutCancel(ctx), runID, runErr); err != nil {
		logging.WarnWithContext(logger, "failed to record run result", "run_history_failed", logging.Error(err))
	}
}

func validateRequest(req RunRequest) error {
	if len(req.Inputs) == 0 {
		return services.Wrap(services.ErrValidation, "pipeline", "validate request", "no input clips", nil)
	}
	if strings.TrimSpace(req.Output) == "" {
		return services.Wrap(services.ErrValidation, "pipeline", "validate request", "output path is required", nil)
	}
	for i, input := range req.Inputs {
		if strings.TrimSpace(input) == "" || strings.ContainsRune(input, 0) {
			return services.Wrap(services.ErrValidation, "pipeline", "validate request", fmt.Sprintf("input %d is not a usable path", i), nil)
		}
	}
	return nil
}

func outputExtension(output string) string {
	if ext := filepath.Ext(output); ext != "" {
		return ext
	}
	return ".mp4"
}
