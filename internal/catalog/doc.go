// Package catalog keeps a ledger consistent with the share it describes.
//
// Two synchronization modes exist. Allocator extends a ledger append-only
// with the next keyword-numbered files. Synchronizer rebuilds a ledger from
// scratch with dense sequence numbers, dropping clips that are too short or
// unreadable. Both hold the ledger lock for the whole read-modify-write
// cycle, treat unreadable metadata as an unknown duration, and audit their
// changes through an EventRecorder.
//
// ParseSequenceList and Resolve turn an operator's "1,2,5" into ordered
// source paths for the encoding pipeline.
package catalog
