package auth

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// maxSeconds is the longest lifetime a time.Duration can hold.
const maxSeconds = math.MaxInt64 / int64(time.Second)

var unitSeconds = map[string]int{
	"s": 1,
	"m": 60,
	"h": 60 * 60,
	"d": 60 * 60 * 24,
}

// ParseMaxAge converts an expiry string into cookie Max-Age seconds. A bare
// integer is seconds; otherwise the form is <N><unit> with unit one of s, m,
// h, d. The second return value is false when raw does not match either form
// or is longer than a time.Duration can represent.
func ParseMaxAge(raw string) (int, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(normalized); err == nil {
		if n < 0 || int64(n) > maxSeconds {
			return 0, false
		}
		return n, true
	}

	match := durationPattern.FindStringSubmatch(normalized)
	if match == nil {
		return 0, false
	}

	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}

	unit := unitSeconds[match[2]]
	if int64(n) > maxSeconds/int64(unit) {
		return 0, false
	}

	return n * unit, true
}

// ParseTTL parses a token lifetime. It accepts everything ParseMaxAge accepts
// and falls back to time.ParseDuration for compound values such as "1h30m".
func ParseTTL(raw string) (time.Duration, error) {
	if seconds, ok := ParseMaxAge(raw); ok {
		if seconds == 0 {
			return 0, fmt.Errorf("ttl %q must be positive", raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid ttl %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("ttl %q must be positive", raw)
	}

	return d, nil
}
