package ledger_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"splice/internal/ledger"
	"splice/internal/logging"
	"splice/internal/services"
)

func TestWriteThenReadPreservesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "spidey_data.csv")
	l, err := ledger.New(
		ledger.Asset{Sequence: 1, Path: "/share/a, with comma.mp4", Duration: "12:05", AgeSeconds: ledger.Age(3600)},
		ledger.Asset{Sequence: 2, Path: "/share/b.mp4", Duration: "0:00"},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ledger.Write(path, l); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("expected UTF-8 BOM")
	}
	if !strings.Contains(string(raw), "stt,file_path,duration,lastest_used_value\n") {
		t.Fatalf("unexpected header in %q", raw)
	}

	got, report, err := ledger.Read(path, logging.NewNop())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(report.MissingColumns) != 0 || len(report.Duplicates) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	assets := got.Assets()
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}
	if assets[0].Path != "/share/a, with comma.mp4" || assets[0].Duration != "12:05" || *assets[0].AgeSeconds != 3600 {
		t.Fatalf("unexpected first asset %+v", assets[0])
	}
	if assets[1].AgeSeconds != nil {
		t.Fatalf("expected empty age to stay nil, got %v", *assets[1].AgeSeconds)
	}
	if got.MaxSequence() != 2 || got.LastSequence() != 2 {
		t.Fatalf("unexpected max sequence %d", got.MaxSequence())
	}
}

func TestReadMissingFileIsEmpty(t *testing.T) {
	l, _, err := ledger.Read(filepath.Join(t.TempDir(), "absent.csv"), nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if l.Len() != 0 || l.MaxSequence() != 0 {
		t.Fatalf("expected empty ledger, got %d rows", l.Len())
	}
}

func TestDecodeBackfillsAndRepairs(t *testing.T) {
	input := "stt,file_path,extra\n" +
		"1.0,/a.mp4,x\n" +
		"2,/b.mp4,y\n" +
		"3,/a.mp4,z\n" +
		",,\n" +
		"bogus,/c.mp4,w\n"
	l, report, err := ledger.Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if strings.Join(report.MissingColumns, ",") != "duration,lastest_used_value" {
		t.Fatalf("unexpected missing columns %v", report.MissingColumns)
	}
	if len(report.Duplicates) != 1 || report.Duplicates[0] != "/a.mp4" {
		t.Fatalf("unexpected duplicates %v", report.Duplicates)
	}
	if report.BlankPaths != 1 || report.BadSequences != 1 {
		t.Fatalf("unexpected repair counts %+v", report)
	}
	if l.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", l.Len())
	}
	first, _ := l.ByPath("/a.mp4")
	if first.Sequence != 1 {
		t.Fatalf("expected first row for duplicate path to win, got %+v", first)
	}

	var buf bytes.Buffer
	if err := ledger.Encode(&buf, l); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := strings.TrimPrefix(buf.String(), "\ufeff")
	want := "stt,file_path,duration,lastest_used_value\n1,/a.mp4,,\n2,/b.mp4,,\n,/c.mp4,,\n"
	if out != want {
		t.Fatalf("unexpected encoding:\n%q\nwant\n%q", out, want)
	}
}

func TestDecodeAcceptsBOMAndFloatAges(t *testing.T) {
	input := "\ufeffstt,file_path,duration,lastest_used_value\n7,/x.mp4,1:05,86400.0\n"
	l, report, err := ledger.Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(report.MissingColumns) != 0 {
		t.Fatalf("BOM should not hide the stt column: %v", report.MissingColumns)
	}
	asset, ok := l.Lookup(7)
	if !ok {
		t.Fatal("expected sequence 7")
	}
	if asset.AgeSeconds == nil || *asset.AgeSeconds != 86400 {
		t.Fatalf("unexpected age %v", asset.AgeSeconds)
	}
}

func TestLastSequenceFallsBackToFileName(t *testing.T) {
	l, _, err := ledger.Decode(strings.NewReader("file_path,duration\n/share/2024/Spidey 011.mp4,1:00\n/share/Spidey 012.mkv,1:00\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if l.MaxSequence() != 0 {
		t.Fatalf("expected no stt values, got max %d", l.MaxSequence())
	}
	if got := l.LastSequence(); got != 12 {
		t.Fatalf("expected 12 from the last file name, got %d", got)
	}

	unnumbered, _ := ledger.New(ledger.Asset{Path: "/share/intro.mp4"})
	if got := unnumbered.LastSequence(); got != 0 {
		t.Fatalf("expected 0 for an unnumbered name, got %d", got)
	}
	numbered, _ := ledger.New(ledger.Asset{Sequence: 4, Path: "/share/Spidey 090.mp4"})
	if got := numbered.LastSequence(); got != 4 {
		t.Fatalf("expected recorded stt to win, got %d", got)
	}
}

func TestAppendRejectsDuplicatePath(t *testing.T) {
	l, _ := ledger.New(ledger.Asset{Sequence: 1, Path: "/a.mp4"})
	err := l.Append(ledger.Asset{Sequence: 2, Path: "/a.mp4"})
	if !errors.Is(err, services.ErrDuplicatePath) {
		t.Fatalf("expected ErrDuplicatePath, got %v", err)
	}
	if l.Len() != 1 || !l.Contains("/a.mp4") {
		t.Fatal("ledger changed after rejected append")
	}
	if _, ok := l.Lookup(2); ok {
		t.Fatal("unexpected sequence 2")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.csv")
	l, _ := ledger.New(ledger.Asset{Sequence: 1, Path: "/a.mp4", Duration: "1:00"})
	for i := 0; i < 2; i++ {
		if err := ledger.Write(path, l); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the ledger file, got %d entries", len(entries))
	}
}

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgers", "ledger.csv")
	unlock, err := ledger.Lock(context.Background(), path)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := ledger.Lock(ctx, path); err == nil {
		t.Fatal("expected second lock to fail while the first is held")
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	unlock2, err := ledger.Lock(context.Background(), path)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	_ = unlock2()
}
