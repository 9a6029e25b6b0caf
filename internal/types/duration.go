package types

import "time"

const (
	// SecondsPerDay is the length of one whole day in seconds. Validity
	// windows are always an integral number of these.
	SecondsPerDay = 86400

	// MaxSubscriptionDays caps both initial purchases and extensions.
	MaxSubscriptionDays = 365

	// RenewalWindowDays is the maximum remaining validity under which a
	// duration extension is still permitted.
	RenewalWindowDays = 30
)

// Day is one whole day as a time.Duration.
const Day = SecondsPerDay * time.Second

// DaysToDuration converts a whole-day count to a time.Duration.
func DaysToDuration(days int) time.Duration {
	return time.Duration(days) * Day
}

// DurationToDays converts a window length back to whole days. Windows are
// always whole-day multiples, so the division is exact.
func DurationToDays(d time.Duration) int {
	return int(d / Day)
}
