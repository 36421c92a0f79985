// Package preflight checks that splice can do its work before it starts.
//
// Checks cover the state, log, and work directories, each catalog's share and
// ledger location, hardware encoder detection, and the ntfy server when one is
// configured. The status command renders the results; the runner refuses to
// start when a required directory is unusable.
package preflight
