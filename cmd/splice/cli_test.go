package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"splice/internal/config"
	"splice/internal/services"
	"splice/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("SPLICE_NTFY_TOPIC", "")
	opts = append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "splice.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func (e *cliTestEnv) share(name string) string {
	return filepath.Join(e.baseDir, "shares", name)
}

func TestConfigInitRefusesToOverwrite(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config on disk: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateAndShow(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCatalog("beca", config.ModeRebuild, ""))

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Catalogs: 1")
	requireContains(t, out, "Configuration valid")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "1920x1080@30")
	requireContains(t, out, "beca")
	requireContains(t, out, "rebuild")
}

func TestSyncAllocatesAndLedgerCommandsReport(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCatalog("spidey", config.ModeAllocate, "Spidey"))
	testsupport.WriteVideo(t, filepath.Join(env.share("spidey"), "Spidey 001.mp4"), 95)
	testsupport.WriteVideo(t, filepath.Join(env.share("spidey"), "Spidey 002.mp4"), 125.5)

	out, _, err := runCLI(t, []string{"sync"}, env.configPath)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "spidey: allocated 2 (last 0, 3 gaps, 0 duplicates, 2 total)")

	out, _, err = runCLI(t, []string{"ledger", "show", "spidey"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger show: %v", err)
	}
	requireContains(t, out, "Spidey 002.mp4")
	requireContains(t, out, "2:05")
	requireContains(t, out, "2 rows, last stt 2, runtime 3:40")

	out, _, err = runCLI(t, []string{"ledger", "history", "spidey"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger history: %v", err)
	}
	requireContains(t, out, "added")
	requireContains(t, out, "Spidey 001.mp4")

	out, _, err = runCLI(t, []string{"allocate", "spidey"}, env.configPath)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	requireContains(t, out, "spidey: allocated 0 (last 2")
}

func TestRebuildCommandDropsShortClips(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCatalog("beca", config.ModeRebuild, ""))
	testsupport.WriteVideo(t, filepath.Join(env.share("beca"), "b.mp4"), 300)
	testsupport.WriteVideo(t, filepath.Join(env.share("beca"), "a.mp4"), 61)
	testsupport.WriteVideo(t, filepath.Join(env.share("beca"), "c.mp4"), 10)

	out, _, err := runCLI(t, []string{"rebuild", "beca"}, env.configPath)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	requireContains(t, out, "beca: rebuilt 2 entries (3 scanned, 2 added, 0 removed, 1 short, 0 unreadable)")

	out, _, err = runCLI(t, []string{"rebuild", "beca", "--min-duration", "5m"}, env.configPath)
	if err != nil {
		t.Fatalf("rebuild with floor: %v", err)
	}
	requireContains(t, out, "beca: rebuilt 1 entries")
}

func TestConcatBySequenceKeepsRequestedOrder(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCatalog("spidey", config.ModeAllocate, "Spidey"))
	testsupport.WriteVideo(t, filepath.Join(env.share("spidey"), "Spidey 001.mp4"), 95)
	testsupport.WriteVideo(t, filepath.Join(env.share("spidey"), "Spidey 002.mp4"), 95)
	if _, _, err := runCLI(t, []string{"sync", "spidey"}, env.configPath); err != nil {
		t.Fatalf("sync: %v", err)
	}

	output := filepath.Join(env.baseDir, "out", "joined.mp4")
	out, errOut, err := runCLI(t, []string{"concat", "--catalog", "spidey", "--stt", "2, 1,9,x", "-o", output}, env.configPath)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	requireContains(t, out, "Joined 2 clips into "+output)
	requireContains(t, errOut, "ignoring invalid sequence numbers: x")
	requireContains(t, errOut, "not in spidey ledger: 9")

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "normalized:Spidey 002.mp4\nnormalized:Spidey 001.mp4\n"
	if string(data) != want {
		t.Fatalf("unexpected joined content %q, want %q", data, want)
	}

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "spidey")
}

func TestConcatFolderUsesFileNameOrder(t *testing.T) {
	env := setupCLITestEnv(t)
	folder := filepath.Join(env.baseDir, "clips")
	testsupport.WriteVideo(t, filepath.Join(folder, "b", "02.mp4"), 10)
	testsupport.WriteVideo(t, filepath.Join(folder, "a", "03.mp4"), 10)
	testsupport.WriteVideo(t, filepath.Join(folder, "01.mp4"), 10)

	output := filepath.Join(env.baseDir, "folder.mp4")
	if _, _, err := runCLI(t, []string{"concat", "--folder", folder, "-o", output}, env.configPath); err != nil {
		t.Fatalf("concat --folder: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "normalized:01.mp4\nnormalized:02.mp4\nnormalized:03.mp4\n"
	if string(data) != want {
		t.Fatalf("unexpected joined content %q, want %q", data, want)
	}
}

func TestConcatValidatesSources(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCatalog("spidey", config.ModeAllocate, "Spidey"))
	output := filepath.Join(env.baseDir, "out.mp4")

	cases := []struct {
		name   string
		args   []string
		marker error
	}{
		{"no source", []string{"concat", "-o", output}, services.ErrValidation},
		{"two sources", []string{"concat", "--folder", env.baseDir, "-o", output, "a.mp4"}, services.ErrValidation},
		{"stt without catalog", []string{"concat", "--stt", "1", "-o", output}, services.ErrValidation},
		{"missing folder", []string{"concat", "--folder", filepath.Join(env.baseDir, "nope"), "-o", output}, services.ErrConfiguration},
		{"empty ledger", []string{"concat", "--catalog", "spidey", "--stt", "1", "-o", output}, services.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runCLI(t, tc.args, env.configPath)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
}

func TestUnknownCatalogListsKnownNames(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCatalog("beca", config.ModeRebuild, ""))

	_, _, err := runCLI(t, []string{"ledger", "show", "nope"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, err.Error(), "known: beca")
}

func TestCleanupRemovesOnlyStaleRunDirectories(t *testing.T) {
	env := setupCLITestEnv(t)
	workDir := env.cfg.Paths.WorkDir
	stale := filepath.Join(workDir, "run-stale")
	fresh := filepath.Join(workDir, "run-fresh")
	other := filepath.Join(workDir, "keep")
	for _, dir := range []string{stale, fresh, other} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	for _, dir := range []string{stale, other} {
		if err := os.Chtimes(dir, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	out, _, err := runCLI(t, []string{"cleanup", "--max-age", "1h"}, env.configPath)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireContains(t, out, "Run directories removed: 1")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale run dir removed, stat err=%v", err)
	}
	for _, dir := range []string{fresh, other} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected %s to remain: %v", dir, err)
		}
	}

	out, _, err = runCLI(t, []string{"cleanup", "--orphaned"}, env.configPath)
	if err != nil {
		t.Fatalf("cleanup --orphaned: %v", err)
	}
	requireContains(t, out, "Run directories removed: 1")
	if _, err := os.Stat(fresh); !os.IsNotExist(err) {
		t.Fatalf("expected orphaned run dir removed, stat err=%v", err)
	}
}

func TestStatusReportsToolsAndCatalogs(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCatalog("spidey", config.ModeAllocate, "Spidey"))

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Tools ==")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "spidey share")
	requireContains(t, out, "allocate, 0 rows, last stt 0")
	requireContains(t, out, "Run dirs:")
	requireContains(t, out, "[INFO] 0 entries")
}

const conformingProbe = `{"streams":[
 {"index":0,"codec_name":"h264","codec_type":"video","width":1920,"height":1080,"pix_fmt":"yuv420p","r_frame_rate":"30/1","avg_frame_rate":"30/1"},
 {"index":1,"codec_name":"aac","codec_type":"audio","sample_rate":"48000","channels":2},
 {"index":2,"codec_name":"ac3","codec_type":"audio","sample_rate":"48000","channels":6}],
 "format":{"filename":"clip.mp4","nb_streams":3,"duration":"65.5","size":"2097152","bit_rate":"2560000","format_name":"mov,mp4"}}`

func TestProbeReportsStreamsAndProfileMatch(t *testing.T) {
	env := setupCLITestEnv(t)
	clip := filepath.Join(env.baseDir, "clip.mp4")
	testsupport.WriteVideo(t, clip, 65.5)
	testsupport.WriteProbeJSON(t, clip, conformingProbe)

	out, _, err := runCLI(t, []string{"probe", "--json", clip}, env.configPath)
	if err != nil {
		t.Fatalf("probe --json: %v", err)
	}
	var reports []probeReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode probe output: %v\n%s", err, out)
	}
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %d", len(reports))
	}
	r := reports[0]
	if r.Duration != "1:05" || r.Resolution != "1920x1080" || r.FPS != 30 || !r.Conforms {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.Video != 1 || r.Audio != 2 || r.SizeBytes != 2097152 || r.BitRate != 2560000 {
		t.Fatalf("unexpected stream counts or container stats %+v", r)
	}

	out, _, err = runCLI(t, []string{"probe", clip}, env.configPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, out, "1v/2a")
	requireContains(t, out, "2.0 MiB")
	requireContains(t, out, "2.6 Mb/s")

	out, _, err = runCLI(t, []string{"probe", "--raw", clip}, env.configPath)
	if err != nil {
		t.Fatalf("probe --raw: %v", err)
	}
	requireContains(t, out, `"format_name":"mov,mp4"`)
}

func TestProbeUnreadableClipFails(t *testing.T) {
	env := setupCLITestEnv(t)
	clip := filepath.Join(env.baseDir, "broken.mp4")
	testsupport.WriteVideo(t, clip, -1)

	_, _, err := runCLI(t, []string{"probe", clip}, env.configPath)
	if !errors.Is(err, services.ErrMetadataUnreadable) {
		t.Fatalf("expected ErrMetadataUnreadable, got %v", err)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}
