package rules

import "time"

const (
	FreePlanID        = "free"
	FreePlanName      = "Free"
	FreeSongsPerDay   = 25
	AvgMinutesPerSong = 3.5
)

// DayKey returns the calendar date used for daily quota bookkeeping. All quota
// arithmetic is pinned to UTC so two app instances can never disagree on what
// "today" is.
func DayKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

func NextResetAt(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day()+1, 0, 0, 0, 0, time.UTC)
}

func EstimatedListeningHours(totalPlays int) int {
	return int(float64(totalPlays) * AvgMinutesPerSong / 60)
}
