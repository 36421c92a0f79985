package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ProbeEntry is a cached duration keyed by path, size, and modification time.
type ProbeEntry struct {
	Path            string
	SizeBytes       int64
	ModTimeUnix     int64
	DurationSeconds float64
}

// LookupProbe returns the cached duration when path, size, and mtime all match.
func (s *Store) LookupProbe(ctx context.Context, path string, size, modTimeUnix int64) (float64, bool, error) {
	var duration float64
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT duration_seconds FROM probe_cache WHERE path = ? AND size_bytes = ? AND mod_time_unix = ?`,
		path, size, modTimeUnix,
	).Scan(&duration)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup probe: %w", err)
	}
	return duration, true, nil
}

// SaveProbe upserts a cached duration.
func (s *Store) SaveProbe(ctx context.Context, entry ProbeEntry) error {
	_, err := s.exec(ctx,
		`INSERT INTO probe_cache (path, size_bytes, mod_time_unix, duration_seconds, probed_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
            size_bytes = excluded.size_bytes,
            mod_time_unix = excluded.mod_time_unix,
            duration_seconds = excluded.duration_seconds,
            probed_at = excluded.probed_at`,
		entry.Path, entry.SizeBytes, entry.ModTimeUnix, entry.DurationSeconds, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save probe: %w", err)
	}
	return nil
}

// CountProbes returns the number of cached entries.
func (s *Store) CountProbes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM probe_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count probes: %w", err)
	}
	return n, nil
}

// ClearProbes empties the probe cache and returns the removed row count.
func (s *Store) ClearProbes(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM probe_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear probes: %w", err)
	}
	return res.RowsAffected()
}
