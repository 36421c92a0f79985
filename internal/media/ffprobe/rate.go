package ffprobe

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseRate parses an ffprobe frame rate such as "30000/1001", "25/1" or
// "29.97" into frames per second. Zero denominators ("0/0") and negative rates
// are rejected.
func ParseRate(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, fmt.Errorf("parse rate: empty value")
	}
	if num, den, ok := strings.Cut(cleaned, "/"); ok && strings.TrimSpace(den) == "0" {
		return 0, fmt.Errorf("parse rate %q: zero denominator (numerator %s)", cleaned, strings.TrimSpace(num))
	}
	rat, ok := new(big.Rat).SetString(cleaned)
	if !ok {
		return 0, fmt.Errorf("parse rate %q: not a rational number", cleaned)
	}
	if rat.Sign() < 0 {
		return 0, fmt.Errorf("parse rate %q: negative", cleaned)
	}
	fps, _ := rat.Float64()
	return fps, nil
}
