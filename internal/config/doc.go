// Package config loads, normalizes, and validates splice configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SPLICE_NTFY_TOPIC. The Config type centralizes every knob the CLI and the
// task runner need: where state and intermediates live, how shares are
// scanned, the canonical encode profile, and the list of catalogs with their
// ledger files.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, inherited scan defaults, and clear validation errors.
package config
