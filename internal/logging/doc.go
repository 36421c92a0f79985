// Package logging assembles the slog loggers used across splice.
//
// It owns the console and JSON handlers, routes output to stderr plus the log
// file under paths.log_dir, and exposes context helpers that tag lines with the
// catalog, run ID, and job index. The console handler lifts component, catalog,
// and run ID into the line prefix so pipeline output stays readable when six
// encoders log at once.
package logging
