// Package workflow runs catalog synchronization on a loop.
//
// A Registry holds one task per configured catalog. Tasks start enabled and
// move to disabled the first time they fail; there is no way back short of a
// restart. The Runner walks the enabled tasks in registration order, pausing
// runner.interval_seconds between them, sends an alert through the
// notifications service when a task is disabled, and stops once nothing is
// left enabled or its context ends.
package workflow
