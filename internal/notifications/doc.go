// Package notifications delivers task and run alerts.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml (or SPLICE_NTFY_TOPIC) and degrades to a no-op when no topic is
// set. Captured task output is trimmed to notifications.body_limit characters
// so a noisy ffmpeg failure still fits in a push message.
package notifications
