package calc

import (
	"strconv"
	"strings"
	"time"
)

// JustNow is shown for holds shorter than a minute.
const JustNow = "just now"

// HoldDuration returns the elapsed time between open and close/check and its
// compact text. Zero timestamps mean the position is not time-tracked.
func HoldDuration(openedAt, closedOrCheckedAt time.Time) (time.Duration, string, error) {
	if openedAt.IsZero() || closedOrCheckedAt.IsZero() {
		return 0, "", nil
	}
	d := closedOrCheckedAt.Sub(openedAt)
	if d < 0 {
		return 0, "", fieldError("closed_or_checked_at", ErrNegativeDuration)
	}
	return d, FormatDuration(d), nil
}

// FormatDuration renders whole days, hours and minutes, skipping zero units,
// e.g. "1h 30m" or "2d 5m".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return JustNow
	}

	total := int64(d / time.Minute)
	days := total / (24 * 60)
	hours := (total % (24 * 60)) / 60
	minutes := total % 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, strconv.FormatInt(days, 10)+"d")
	}
	if hours > 0 {
		parts = append(parts, strconv.FormatInt(hours, 10)+"h")
	}
	if minutes > 0 {
		parts = append(parts, strconv.FormatInt(minutes, 10)+"m")
	}
	return strings.Join(parts, " ")
}
