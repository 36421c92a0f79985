// Package store persists splice's operational state in SQLite
// (modernc.org/sqlite, WAL mode): pipeline run history, a duration probe cache
// keyed by path/size/mtime, and the ledger audit log that records every asset
// added or removed by synchronization.
//
// The ledger CSV files remain the catalog of record; nothing here is required
// to read or rebuild them.
package store
