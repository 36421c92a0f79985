// Package ffprobe provides a typed wrapper around ffprobe.
//
// This package has no splice-specific dependencies.
//
// Entry points:
//   - Duration: the single-value container duration probe used by catalog
//     synchronization, bounded by DurationTimeout
//   - Inspect: full JSON stream/format inspection for diagnostics
//   - ParseRate: exact rational frame-rate parsing ("30000/1001")
//
// Result.Summary flattens the first video and audio streams into the
// properties the normalizer cares about.
package ffprobe
