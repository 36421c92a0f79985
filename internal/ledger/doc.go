// Package ledger owns the persisted asset catalog: a CSV file with the fixed
// columns stt, file_path, duration, lastest_used_value.
//
// Read tolerates files written by older tools (missing BOM, missing columns,
// float sequence numbers, duplicate paths) and reports each repair. Write
// always produces a BOM-prefixed file through a temp file and rename, and Lock
// serializes read-modify-write cycles on one host.
package ledger
