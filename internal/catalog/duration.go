package catalog

import (
	"fmt"
	"math"
	"os"
	"time"
)

// UnknownDuration is rendered for clips whose duration could not be probed.
const UnknownDuration = "0:00"

// FormatDuration renders whole seconds as "M:SS", truncating fractions.
// Minutes are not wrapped into hours, so 3725s renders "62:05".
func FormatDuration(seconds float64, known bool) string {
	if !known || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return UnknownDuration
	}
	total := int64(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ParseDuration reverses FormatDuration. Malformed values report false.
func ParseDuration(value string) (time.Duration, bool) {
	var minutes, secs int64
	if _, err := fmt.Sscanf(value, "%d:%02d", &minutes, &secs); err != nil || minutes < 0 || secs < 0 || secs > 59 {
		return 0, false
	}
	return time.Duration(minutes*60+secs) * time.Second, true
}

// fileAge returns whole seconds since path was last modified, or nil when the
// file cannot be stat'ed.
func fileAge(path string, now time.Time) *int64 {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	age := int64(now.Sub(info.ModTime()) / time.Second)
	if age < 0 {
		age = 0
	}
	return &age
}
