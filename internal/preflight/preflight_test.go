package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"splice/internal/config"
	"splice/internal/deps"
	"splice/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableDirectory_Empty(t *testing.T) {
	if result := CheckReadableDirectory("share", ""); result.Passed {
		t.Fatal("expected failure for unconfigured path")
	}
}

func TestCheckLedgerWritable(t *testing.T) {
	dir := t.TempDir()

	missingDir := CheckLedgerWritable("ledger", filepath.Join(dir, "new", "spidey.csv"))
	if !missingDir.Passed || !strings.Contains(missingDir.Detail, "directory will be created") {
		t.Fatalf("unexpected result for missing dir: %+v", missingDir)
	}

	fresh := CheckLedgerWritable("ledger", filepath.Join(dir, "spidey.csv"))
	if !fresh.Passed || !strings.Contains(fresh.Detail, "will be created") {
		t.Fatalf("unexpected result for new ledger: %+v", fresh)
	}

	existing := filepath.Join(dir, "beca.csv")
	if err := os.WriteFile(existing, []byte("stt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckLedgerWritable("ledger", existing); !result.Passed {
		t.Fatalf("expected writable ledger, got %+v", result)
	}
}

func TestCheckNtfy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckNtfy(context.Background(), srv.URL+"/splice-alerts"); !result.Passed {
		t.Fatalf("expected reachable ntfy, got %+v", result)
	}
	if result := CheckNtfy(context.Background(), "not a url"); result.Passed {
		t.Fatal("expected invalid topic to fail")
	}
	if result := CheckNtfy(context.Background(), ""); !result.Passed || result.Detail != "disabled" {
		t.Fatalf("expected disabled result, got %+v", result)
	}
}

func TestCheckHardware(t *testing.T) {
	cfg := config.Default()
	missing := deps.HardwareDetector{
		DevicePath: filepath.Join(t.TempDir(), "nvidia0"),
		SMICommand: "splice-test-no-such-smi",
	}
	if result := CheckHardware(&cfg, missing); !strings.Contains(result.Detail, "libx264") {
		t.Fatalf("expected libx264 fallback, got %+v", result)
	}

	device := filepath.Join(t.TempDir(), "nvidia0")
	if err := os.WriteFile(device, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	present := deps.HardwareDetector{DevicePath: device, SMICommand: "splice-test-no-such-smi"}
	if result := CheckHardware(&cfg, present); !strings.Contains(result.Detail, "h264_nvenc") {
		t.Fatalf("expected nvenc, got %+v", result)
	}
}

func TestRunAllCoversCatalogs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	cfg.Catalogs = []config.Catalog{{
		Name:   "spidey",
		Root:   filepath.Join(base, "missing-share"),
		Ledger: filepath.Join(base, "spidey.csv"),
		Mode:   config.ModeAllocate,
	}}

	results := RunAll(context.Background(), &cfg)
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "spidey share" {
		t.Fatalf("expected only the missing share to fail, got %+v", failed)
	}
}

func TestRunStorageSkipsHardwareAndNtfy(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithCatalog("spidey", config.ModeAllocate, "Spidey"),
		testsupport.WithNtfyTopic("http://127.0.0.1:1/topic"),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunStorage(cfg)
	if len(results) != 5 {
		t.Fatalf("expected 3 directory checks plus share and ledger, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected all storage checks to pass, got %+v", failed)
	}
}
