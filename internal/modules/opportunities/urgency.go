package opportunities

import (
	"math"
	"time"
)

// DefaultUrgencyThresholdDays is the day-count horizon within which an event
// is considered actionable.
const DefaultUrgencyThresholdDays = 7

// DaysUntil returns the whole days between now and the record's event date,
// truncated toward the earlier date: partial days never round up, and an
// event earlier today or in the past yields a negative or zero count.
func DaysUntil(r Record, now time.Time) int {
	return int(math.Floor(r.EventDate.Sub(now).Hours() / 24))
}

// IsUrgent reports whether the event falls inside the urgency window:
// 0 <= days until event <= thresholdDays. An event date in the past is never
// urgent - deliberate policy, not a tolerance window.
func IsUrgent(r Record, now time.Time, thresholdDays int) bool {
	days := DaysUntil(r, now)
	return days >= 0 && days <= thresholdDays
}
