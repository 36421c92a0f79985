package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"

	"splice/internal/store"
	"splice/internal/testsupport"
)

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	inputs := []string{"/a.mp4", "/b.mp4"}
	if err := st.StartRun(ctx, "run-1", "spidey", "/out/final.mp4", inputs); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	run, err := st.GetRun(ctx, "run-1")
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Status != store.RunStatusRunning || !reflect.DeepEqual(run.Inputs, inputs) || run.Catalog != "spidey" {
		t.Fatalf("unexpected running record %+v", run)
	}
	if !run.FinishedAt.IsZero() {
		t.Fatal("expected no finish time while running")
	}

	if err := st.FinishRun(ctx, "run-1", errors.New("ffmpeg exited 1")); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	run, _ = st.GetRun(ctx, "run-1")
	if run.Status != store.RunStatusFailed || run.Error != "ffmpeg exited 1" || run.FinishedAt.IsZero() {
		t.Fatalf("unexpected failed record %+v", run)
	}
	if err := st.FinishRun(ctx, "run-1", nil); err == nil {
		t.Fatal("expected finishing a finished run to fail")
	}

	missing, err := st.GetRun(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing run, got %v %v", missing, err)
	}
}

func TestListRunsAndFailStale(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3"} {
		if err := st.StartRun(ctx, id, "", "/out/"+id+".mp4", []string{"/x.mp4"}); err != nil {
			t.Fatalf("StartRun %s: %v", id, err)
		}
	}
	if err := st.FinishRun(ctx, "r1", nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(runs))
	}

	n, err := st.FailStaleRuns(ctx, "interrupted")
	if err != nil {
		t.Fatalf("FailStaleRuns: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 stale runs, got %d", n)
	}
	all, _ := st.ListRuns(ctx, 0)
	for _, run := range all {
		if run.Status == store.RunStatusRunning {
			t.Fatalf("run %s still running", run.ID)
		}
	}
}

func TestProbeCacheRequiresMatchingStat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entry := store.ProbeEntry{Path: "/a.mp4", SizeBytes: 100, ModTimeUnix: 1700000000, DurationSeconds: 61.5}
	if err := st.SaveProbe(ctx, entry); err != nil {
		t.Fatalf("SaveProbe: %v", err)
	}
	if d, ok, err := st.LookupProbe(ctx, "/a.mp4", 100, 1700000000); err != nil || !ok || d != 61.5 {
		t.Fatalf("expected cache hit, got %v %v %v", d, ok, err)
	}
	if _, ok, _ := st.LookupProbe(ctx, "/a.mp4", 101, 1700000000); ok {
		t.Fatal("expected miss for changed size")
	}
	if _, ok, _ := st.LookupProbe(ctx, "/a.mp4", 100, 1700000001); ok {
		t.Fatal("expected miss for changed mtime")
	}

	entry.SizeBytes = 101
	entry.DurationSeconds = 70
	if err := st.SaveProbe(ctx, entry); err != nil {
		t.Fatalf("SaveProbe upsert: %v", err)
	}
	if n, _ := st.CountProbes(ctx); n != 1 {
		t.Fatalf("expected upsert to keep one row, got %d", n)
	}
	if removed, err := st.ClearProbes(ctx); err != nil || removed != 1 {
		t.Fatalf("ClearProbes: %d %v", removed, err)
	}
}

func TestLedgerEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	events := []store.LedgerEvent{
		{Catalog: "beca", Action: store.LedgerActionAdded, Path: "/a.mp4", Sequence: 1},
		{Catalog: "beca", Action: store.LedgerActionRemoved, Path: "/old.mp4"},
		{Catalog: "other", Action: store.LedgerActionAdded, Path: "/z.mp4", Sequence: 9},
	}
	if err := st.RecordLedgerEvents(ctx, events); err != nil {
		t.Fatalf("RecordLedgerEvents: %v", err)
	}
	got, err := st.ListLedgerEvents(ctx, "beca", 0)
	if err != nil {
		t.Fatalf("ListLedgerEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 beca events, got %d", len(got))
	}
	if got[0].Action != store.LedgerActionRemoved || got[0].Sequence != 0 {
		t.Fatalf("expected newest first, got %+v", got[0])
	}
	if got[1].Path != "/a.mp4" || got[1].Sequence != 1 || got[1].RecordedAt.IsZero() {
		t.Fatalf("unexpected first event %+v", got[1])
	}
	if err := st.RecordLedgerEvents(ctx, nil); err != nil {
		t.Fatalf("empty record should be a no-op: %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splice.db")
	st, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	_ = st.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := db.Exec(`UPDATE schema_version SET version = 99`); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := store.OpenPath(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
