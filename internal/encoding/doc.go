// Package encoding normalizes heterogeneous clips to one H.264 profile and
// joins them with ffmpeg's concat demuxer.
//
// Profile validates the target resolution, frame rate, quality, bitrates, and
// worker count at construction. Normalizer picks h264_nvenc when hardware
// encoding is requested and NVIDIA tooling is present, falling back to
// libx264 otherwise; the ffmpeg arguments depend only on the profile. Only a
// Normalizer mints Segment values, so the Concatenator can refuse anything
// that did not pass through normalization before stream-copying.
//
// Pipeline ties the pieces together: one run directory per invocation,
// bounded parallel normalization, concat in submission order, and run history
// in the state database.
package encoding
