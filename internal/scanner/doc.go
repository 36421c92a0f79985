// Package scanner discovers video files under a share.
//
// Scan applies the extension allow-list and the exclusion-marker rule for
// raw/working folders, deduplicates, and returns a deterministic
// case-insensitive order. SequenceMatcher implements the keyword +
// zero-padded number convention used to allocate sequence numbers, matched
// against clip names (FindSequence) or top-level folder names
// (FindSequenceFolder).
package scanner
