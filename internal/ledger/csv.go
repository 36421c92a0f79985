package ledger

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"splice/internal/logging"
	"splice/internal/services"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadReport describes repairs made while reading a ledger.
type ReadReport struct {
	// MissingColumns were absent from the header and backfilled as empty.
	MissingColumns []string
	// Duplicates are paths seen again after their first row; only the first is kept.
	Duplicates []string
	// BlankPaths counts rows dropped for having no file_path.
	BlankPaths int
	// BadSequences counts rows whose stt could not be parsed (kept with Sequence 0).
	BadSequences int
}

// Read loads a ledger file. A missing file yields an empty ledger. Missing
// columns are backfilled and reported; the error is non-nil only when the file
// cannot be read or parsed as CSV.
func Read(path string, logger *slog.Logger) (*Ledger, ReadReport, error) {
	logger = logging.NewComponentLogger(logger, "ledger")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("ledger file absent; starting empty", logging.String("path", path))
			empty, _ := New()
			return empty, ReadReport{}, nil
		}
		return nil, ReadReport{}, fmt.Errorf("read ledger %s: %w", path, err)
	}
	l, report, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, report, fmt.Errorf("parse ledger %s: %w", path, err)
	}

	if len(report.MissingColumns) > 0 {
		logging.WarnWithContext(logger, "ledger columns backfilled", "ledger_schema_backfill",
			logging.String("path", path),
			logging.Any("columns", report.MissingColumns),
			logging.Error(services.Wrap(services.ErrLedgerSchema, "ledger", "read", "missing columns", nil)),
			logging.String(logging.FieldImpact, "backfilled columns are written empty on next save"),
		)
	}
	for _, dup := range report.Duplicates {
		logging.WarnWithContext(logger, "duplicate ledger path ignored", "ledger_duplicate_path",
			logging.String("path", dup),
			logging.String(logging.FieldErrorHint, "remove the repeated row or run sync"),
			logging.String(logging.FieldImpact, "only the first row for this path is used"),
		)
	}
	if report.BlankPaths > 0 || report.BadSequences > 0 {
		logging.WarnWithContext(logger, "ledger rows repaired", "ledger_rows_repaired",
			logging.String("path", path),
			logging.Int("blank_paths", report.BlankPaths),
			logging.Int("bad_sequences", report.BadSequences),
		)
	}
	return l, report, nil
}

// Decode parses ledger CSV from r. A leading UTF-8 BOM is optional; extra
// columns are ignored.
func Decode(r io.Reader) (*Ledger, ReadReport, error) {
	var report ReadReport
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		l, _ := New()
		report.MissingColumns = append([]string(nil), Header...)
		return l, report, nil
	}
	if err != nil {
		return nil, report, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.TrimSpace(name)
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	for _, name := range Header {
		if _, ok := columns[name]; !ok {
			report.MissingColumns = append(report.MissingColumns, name)
		}
	}
	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	l, _ := New()
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, err
		}
		path := field(record, ColumnPath)
		if path == "" {
			report.BlankPaths++
			continue
		}
		seq, ok := parseSequence(field(record, ColumnSequence))
		if !ok {
			report.BadSequences++
		}
		asset := Asset{
			Sequence:   seq,
			Path:       path,
			Duration:   field(record, ColumnDuration),
			AgeSeconds: parseAge(field(record, ColumnAge)),
		}
		if err := l.Append(asset); err != nil {
			report.Duplicates = append(report.Duplicates, path)
		}
	}
	return l, report, nil
}

// Write persists the ledger atomically: the CSV (UTF-8 with BOM, fixed header)
// goes to a temp file in the same directory which then replaces path.
func Write(path string, l *Ledger) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if err := Encode(tmp, l); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close ledger temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod ledger: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// Encode writes the ledger as BOM-prefixed CSV.
func Encode(w io.Writer, l *Ledger) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, asset := range l.Assets() {
		if err := writer.Write(encodeAsset(asset)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func encodeAsset(asset Asset) []string {
	seq := ""
	if asset.Sequence > 0 {
		seq = strconv.Itoa(asset.Sequence)
	}
	age := ""
	if asset.AgeSeconds != nil {
		age = strconv.FormatInt(*asset.AgeSeconds, 10)
	}
	return []string{seq, asset.Path, asset.Duration, age}
}

// parseSequence accepts integers and integral floats ("12.0") written by
// older tools.
func parseSequence(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return n, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func parseAge(value string) *int64 {
	if value == "" {
		return nil
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int64(f)
	return &n
}
