// Package duty evaluates "is this person on duty right now" from a
// day's assigned time window. Evaluation happens at presentation time
// only; the result is never persisted.
package duty

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClock converts an "HH:MM" string to minutes since midnight.
// Returns false for anything that is not a valid wall-clock time.
func ParseClock(value string) (int, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 23 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// IsOnDuty reports whether now falls inside the [start, end) window.
// A window whose start is not before its end wraps past midnight, so
// start == end covers the whole day. Missing or malformed bounds are
// never on duty.
func IsOnDuty(start, end string, now time.Time) bool {
	startMin, ok := ParseClock(start)
	if !ok {
		return false
	}
	endMin, ok := ParseClock(end)
	if !ok {
		return false
	}

	nowMin := now.Hour()*60 + now.Minute()

	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin
	}
	return nowMin >= startMin || nowMin < endMin
}
