package catalog

import (
	"context"
	"log/slog"
	"os"

	"splice/internal/deps"
	"splice/internal/logging"
	"splice/internal/media/ffprobe"
	"splice/internal/services"
	"splice/internal/store"
)

// DurationProber reports a clip's duration in seconds. A false result is the
// unknown sentinel; probing never fails the caller.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, bool)
	// Ready fails with services.ErrToolMissing when the probe tool is absent.
	Ready() error
}

// Prober runs the ffprobe duration contract.
type Prober struct {
	Binary string
	Logger *slog.Logger
}

// NewProber returns a prober for the given ffprobe binary.
func NewProber(binary string, logger *slog.Logger) *Prober {
	return &Prober{Binary: binary, Logger: logging.NewComponentLogger(logger, "probe")}
}

// Ready resolves the ffprobe binary on PATH.
func (p *Prober) Ready() error {
	_, err := deps.Resolve(p.binary())
	return err
}

// ProbeDuration returns the container duration, or false when the file is
// unreadable, has no duration, or the tool fails.
func (p *Prober) ProbeDuration(ctx context.Context, path string) (float64, bool) {
	seconds, err := ffprobe.Duration(ctx, p.binary(), path)
	if err != nil {
		logging.WarnWithContext(p.Logger, "duration unknown", "probe_unreadable",
			logging.String("path", path),
			logging.Error(services.Wrap(services.ErrMetadataUnreadable, "probe", "duration", "", err)),
			logging.String(logging.FieldErrorHint, "check the file plays and is not truncated"),
			logging.String(logging.FieldImpact, "clip is treated as having an unknown duration"),
		)
		return 0, false
	}
	return seconds, true
}

func (p *Prober) binary() string {
	if p.Binary == "" {
		return "ffprobe"
	}
	return p.Binary
}

// ProbeCache is the subset of the state store used for cached durations.
type ProbeCache interface {
	LookupProbe(ctx context.Context, path string, size, modTimeUnix int64) (float64, bool, error)
	SaveProbe(ctx context.Context, entry store.ProbeEntry) error
}

// CachedProber consults a ProbeCache keyed by path, size, and mtime before
// delegating to Next. Only known durations are cached.
type CachedProber struct {
	Next   DurationProber
	Cache  ProbeCache
	Logger *slog.Logger
}

// Ready delegates to the wrapped prober.
func (c *CachedProber) Ready() error {
	return c.Next.Ready()
}

// ProbeDuration implements DurationProber.
func (c *CachedProber) ProbeDuration(ctx context.Context, path string) (float64, bool) {
	info, err := os.Stat(path)
	if err != nil || c.Cache == nil {
		return c.Next.ProbeDuration(ctx, path)
	}
	size, mtime := info.Size(), info.ModTime().Unix()

	if seconds, ok, err := c.Cache.LookupProbe(ctx, path, size, mtime); err != nil {
		c.logger().Debug("probe cache lookup failed", logging.String("path", path), logging.Error(err))
	} else if ok {
		return seconds, true
	}

	seconds, ok := c.Next.ProbeDuration(ctx, path)
	if !ok {
		return 0, false
	}
	if err := c.Cache.SaveProbe(ctx, store.ProbeEntry{Path: path, SizeBytes: size, ModTimeUnix: mtime, DurationSeconds: seconds}); err != nil {
		c.logger().Debug("probe cache save failed", logging.String("path", path), logging.Error(err))
	}
	return seconds, true
}

func (c *CachedProber) logger() *slog.Logger {
	if c.Logger == nil {
		return logging.NewNop()
	}
	return c.Logger
}
