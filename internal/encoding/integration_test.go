package encoding_test

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"testing"

	"splice/internal/encoding"
	"splice/internal/logging"
	"splice/internal/media/ffprobe"
	"splice/internal/testsupport"
)

func requireRealFFmpeg(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping ffmpeg integration test in short mode")
	}
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not on PATH", bin)
		}
	}
}

// synthesize renders a test pattern with a tone at the given geometry and rate.
func synthesize(t *testing.T, path string, seconds, width, height, fps, sampleRate int) {
	t.Helper()
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "lavfi", "-i", fmt.Sprintf("testsrc=size=%dx%d:rate=%d:duration=%d", width, height, fps, seconds),
		"-f", "lavfi", "-i", fmt.Sprintf("sine=frequency=440:sample_rate=%d:duration=%d", sampleRate, seconds),
		"-c:v", "libx264", "-preset", "ultrafast", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-shortest", path,
	}
	if out, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		t.Fatalf("synthesize %s: %v\n%s", filepath.Base(path), err, out)
	}
}

func TestPipelineJoinedDurationMatchesInputs(t *testing.T) {
	requireRealFFmpeg(t)

	dir := t.TempDir()
	inputs := []string{
		filepath.Join(dir, "clip_010s.mp4"),
		filepath.Join(dir, "clip_020s.mkv"),
		filepath.Join(dir, "clip_015s.mov"),
	}
	synthesize(t, inputs[0], 10, 640, 480, 25, 44100)
	synthesize(t, inputs[1], 20, 480, 360, 24, 48000)
	synthesize(t, inputs[2], 15, 320, 240, 30, 32000)

	cfg := testsupport.NewConfig(t)
	cfg.Encoding.Width = 320
	cfg.Encoding.Height = 240
	cfg.Encoding.Workers = 3
	output := filepath.Join(t.TempDir(), "joined.mp4")

	pipeline, err := encoding.NewPipeline(cfg, nil, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if _, err := pipeline.Run(context.Background(), encoding.RunRequest{Inputs: inputs, Output: output}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := ffprobe.Duration(context.Background(), "ffprobe", output)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	if math.Abs(got-45) > 1 {
		t.Fatalf("expected joined duration 45s +/- 1s, got %.3fs", got)
	}

	result, err := ffprobe.Inspect(context.Background(), "ffprobe", output)
	if err != nil {
		t.Fatalf("inspect output: %v", err)
	}
	summary := result.Summary()
	if summary.Width != 320 || summary.Height != 240 || math.Abs(summary.FPS-30) > 0.01 || summary.AudioSampleRate != 48000 {
		t.Fatalf("output does not match the profile: %+v", summary)
	}
}
