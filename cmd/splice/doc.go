// Command splice maintains clip ledgers for video shares and joins selected
// clips into one normalized output.
//
// Ledger commands (sync, allocate, rebuild, ledger) keep each catalog's CSV in
// step with its share. The concat command normalizes clips chosen by ledger
// number or path and joins them with ffmpeg. The watch command runs every
// catalog on a loop and alerts through ntfy when one fails. Status, runs, and
// cleanup inspect and tidy the local state directory.
package main
