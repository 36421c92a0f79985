package encoding_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"splice/internal/encoding"
	"splice/internal/logging"
	"splice/internal/notifications"
	"splice/internal/services"
	"splice/internal/store"
	"splice/internal/testsupport"
)

func writeInputs(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		testsupport.WriteVideo(t, path, 30)
		paths = append(paths, path)
	}
	return paths
}

func runDirs(t *testing.T, workDir string) []string {
	t.Helper()
	entries, err := os.ReadDir(workDir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read work dir: %v", err)
	}
	var dirs []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), encoding.RunDirPrefix) {
			dirs = append(dirs, filepath.Join(workDir, entry.Name()))
		}
	}
	return dirs
}

func assertNoRunDirs(t *testing.T, workDir string) {
	t.Helper()
	if dirs := runDirs(t, workDir); len(dirs) > 0 {
		t.Fatalf("run directories left behind: %v", dirs)
	}
}

type errorNotifier struct {
	mu     sync.Mutex
	labels []string
	errs   []error
}

func (n *errorNotifier) NotifyTaskFailed(context.Context, notifications.Alert) error { return nil }

func (n *errorNotifier) NotifyRunCompleted(context.Context, notifications.RunSummary) error {
	return nil
}

func (n *errorNotifier) NotifyError(_ context.Context, err error, label string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.labels = append(n.labels, label)
	n.errs = append(n.errs, err)
	return nil
}

func (n *errorNotifier) TestNotification(context.Context) error { return nil }

func TestPipelineRunJoinsInSubmissionOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	argsLog := testsupport.ArgsFile(t)
	st := testsupport.MustOpenStore(t, cfg)

	inputs := writeInputs(t, t.TempDir(), "spidey_003.mp4", "spidey_001.avi", "spidey_010.mov", "spidey_002.mkv", "spidey_007.mp4")
	output := filepath.Join(t.TempDir(), "out", "final.mp4")

	pipeline, err := encoding.NewPipeline(cfg, st, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	result, err := pipeline.Run(context.Background(), encoding.RunRequest{Catalog: "spidey", Inputs: inputs, Output: output})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "normalized:spidey_003.mp4\nnormalized:spidey_001.avi\nnormalized:spidey_010.mov\nnormalized:spidey_002.mkv\nnormalized:spidey_007.mp4\n"
	if string(data) != want {
		t.Fatalf("segments out of order:\n%s", data)
	}
	if result.Segments != 5 || result.Codec != encoding.CodecLibx264 || result.Output != output {
		t.Fatalf("unexpected result %+v", result)
	}

	lines := testsupport.ReadArgs(t, argsLog)
	if len(lines) != 6 {
		t.Fatalf("expected 5 encodes and 1 concat, got %d invocations", len(lines))
	}
	if !strings.Contains(lines[len(lines)-1], "-f concat -safe 0") {
		t.Fatalf("expected concat to run last, got %q", lines[len(lines)-1])
	}

	assertNoRunDirs(t, cfg.Paths.WorkDir)

	run, err := st.GetRun(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != store.RunStatusCompleted || run.Catalog != "spidey" || len(run.Inputs) != 5 {
		t.Fatalf("unexpected run record %+v", run)
	}
}

func TestPipelineRunFailureCancelsAndKeepsIntermediates(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Encoding.Workers = 1
	argsLog := testsupport.ArgsFile(t)
	t.Setenv(testsupport.StubFailEnv, "corrupt")
	st := testsupport.MustOpenStore(t, cfg)

	inputs := writeInputs(t, t.TempDir(), "a.mp4", "corrupt.mp4", "c.mp4", "d.mp4")
	output := filepath.Join(t.TempDir(), "final.mp4")

	notifier := &errorNotifier{}
	pipeline, err := encoding.NewPipeline(cfg, st, notifier, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	_, err = pipeline.Run(context.Background(), encoding.RunRequest{Catalog: "spidey", Inputs: inputs, Output: output})
	if !errors.Is(err, services.ErrToolFailure) {
		t.Fatalf("expected ErrToolFailure, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output on failure, stat err=%v", statErr)
	}

	for _, line := range testsupport.ReadArgs(t, argsLog) {
		if strings.Contains(line, "d.mp4") {
			t.Fatalf("job after the failure should not have been encoded: %q", line)
		}
		if strings.Contains(line, "-f concat") {
			t.Fatal("concat must not run after a failed job")
		}
	}

	dirs := runDirs(t, cfg.Paths.WorkDir)
	if len(dirs) != 1 {
		t.Fatalf("expected the failed run directory to remain, got %v", dirs)
	}
	if _, statErr := os.Stat(filepath.Join(dirs[0], "normalized_000.mp4")); statErr != nil {
		t.Fatalf("expected first segment kept for diagnosis: %v", statErr)
	}

	if len(notifier.errs) != 1 || !errors.Is(notifier.errs[0], services.ErrToolFailure) {
		t.Fatalf("expected one error notification, got %v", notifier.errs)
	}
	if !strings.HasPrefix(notifier.labels[0], "spidey run ") {
		t.Fatalf("unexpected notification label %q", notifier.labels[0])
	}

	runs, err := st.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != store.RunStatusFailed {
		t.Fatalf("expected one failed run, got %+v", runs)
	}
	if !strings.Contains(runs[0].Error, "corrupt.mp4") {
		t.Fatalf("expected failing clip in stored error, got %q", runs[0].Error)
	}
}

func TestPipelineRunRequiresFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	t.Setenv("PATH", t.TempDir())

	pipeline, err := encoding.NewPipeline(cfg, nil, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	_, err = pipeline.Run(context.Background(), encoding.RunRequest{Inputs: []string{"/a.mp4"}, Output: "/tmp/out.mp4"})
	if !errors.Is(err, services.ErrToolMissing) {
		t.Fatalf("expected ErrToolMissing, got %v", err)
	}
}

func TestPipelineRunValidatesRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	pipeline, err := encoding.NewPipeline(cfg, nil, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	requests := []encoding.RunRequest{
		{Output: "out.mp4"},
		{Inputs: []string{"a.mp4"}},
		{Inputs: []string{"a.mp4", ""}, Output: "out.mp4"},
	}
	for i, req := range requests {
		if _, err := pipeline.Run(context.Background(), req); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("request %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestNewPipelineRejectsInvalidProfile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Encoding.Width = 1921
	if _, err := encoding.NewPipeline(cfg, nil, nil, logging.NewNop()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
