// Package services defines the error taxonomy and context helpers shared by
// the catalog, encoding, and workflow packages.
//
// Key responsibilities:
//   - Sentinel markers plus the Wrap helper so every failure carries a kind
//     (tool missing, tool failure, validation, configuration, ...) that
//     callers test with errors.Is.
//   - IsFatal, which separates conditions recovered locally (unreadable
//     metadata, schema backfill, missing assets, duplicate paths) from those
//     that abort a run.
//   - Context helpers that stamp catalog names, run IDs, and job indexes for
//     structured logging.
package services
