package youtube

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// isoDurationPattern matches the ISO 8601 durations the Data API emits.
// Days appear on videos longer than 24 hours (live stream archives).
var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration converts a Data API duration like "PT1H2M3S" into a
// time.Duration.
func ParseISODuration(s string) (time.Duration, error) {
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}

	matched := false
	var total time.Duration
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("invalid ISO 8601 duration %q: %v", s, err)
		}
		total += time.Duration(n) * unit
		matched = true
	}

	if !matched {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}
	return total, nil
}

// ParsePublishedAt parses a Data API timestamp. RFC 3339 is the documented
// format; plain dates appear in some older feeds.
func ParsePublishedAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
