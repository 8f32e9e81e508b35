// Package schedule derives challenge end dates and week boundaries from a
// start date and a duration in weeks. All values are UTC calendar dates.
package schedule

import (
	"time"
)

const (
	DaysPerWeek = 7

	MinDurationWeeks     = 1
	MaxDurationWeeks     = 12
	DefaultDurationWeeks = 4

	DateLayout = "2006-01-02"
)

// Phase describes where a given day sits relative to a challenge window.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseEnded      Phase = "ended"
)

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Date(t), nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return Date(t).Format(DateLayout)
}

// AddDays returns the calendar date n days after t.
func AddDays(t time.Time, n int) time.Time {
	return Date(t).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// EndDate is the last day of a challenge: start + weeks*7 - 1.
func EndDate(start time.Time, weeks int) time.Time {
	return AddDays(start, weeks*DaysPerWeek-1)
}

// WeekStart returns the first day of 1-based week w.
func WeekStart(start time.Time, w int) time.Time {
	return AddDays(start, (w-1)*DaysPerWeek)
}

// WeekEnd returns the last day of 1-based week w.
func WeekEnd(start time.Time, w int) time.Time {
	return AddDays(WeekStart(start, w), DaysPerWeek-1)
}

// Week is a single 1-based challenge week and its inclusive day range.
type Week struct {
	Number int       `json:"number"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Weeks lists every week of a challenge in order.
func Weeks(start time.Time, weeks int) []Week {
	out := make([]Week, 0, weeks)
	for w := 1; w <= weeks; w++ {
		out = append(out, Week{Number: w, Start: WeekStart(start, w), End: WeekEnd(start, w)})
	}
	return out
}

// CurrentWeek reports the 1-based week that today falls in. Days before the
// start and days at or after start + weeks*7 carry week 0.
func CurrentWeek(start time.Time, weeks int, today time.Time) (int, Phase) {
	diff := DaysBetween(start, today)
	if diff < 0 {
		return 0, PhaseNotStarted
	}
	if diff >= weeks*DaysPerWeek {
		return 0, PhaseEnded
	}
	return diff/DaysPerWeek + 1, PhaseInProgress
}

// WeekForDate maps any date inside the challenge window to its week number,
// or 0 when d is outside the window.
func WeekForDate(start time.Time, weeks int, d time.Time) int {
	w, _ := CurrentWeek(start, weeks, d)
	return w
}

// Contains reports whether d lies within [start, EndDate(start, weeks)].
func Contains(start time.Time, weeks int, d time.Time) bool {
	return WeekForDate(start, weeks, d) > 0
}
