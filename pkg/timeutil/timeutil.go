// Package timeutil provides timezone utilities for the club's reference clock.
// Members are spread across timezones, so every cycle boundary, penalty day
// and puzzle index is pinned to a single fixed zone (UTC, no DST).
// Handles week math, date formatting, and the daily puzzle epoch.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// ClubTZ is the club's reference timezone (UTC, no DST).
// All weekly cycles open and close against this zone regardless of
// where individual members live.
var ClubTZ = time.FixedZone("UTC", 0)

// PuzzleEpoch is the calendar date of daily puzzle #0.
// Puzzle numbering is days elapsed since this date.
var PuzzleEpoch = time.Date(2021, time.June, 19, 0, 0, 0, 0, ClubTZ)

// Now returns the current time in the club timezone.
func Now() time.Time {
	return time.Now().In(ClubTZ)
}

// ToClub converts a time to the club timezone.
func ToClub(t time.Time) time.Time {
	return t.In(ClubTZ)
}

// Date creates a time in the club timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, ClubTZ)
}

// DateTime creates a time in the club timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, ClubTZ)
}

// StartOfDay returns the start of the day (00:00:00) in the club timezone.
func StartOfDay(t time.Time) time.Time {
	club := ToClub(t)
	return time.Date(club.Year(), club.Month(), club.Day(), 0, 0, 0, 0, ClubTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the club timezone.
func EndOfDay(t time.Time) time.Time {
	club := ToClub(t)
	return time.Date(club.Year(), club.Month(), club.Day(), 23, 59, 59, 999999999, ClubTZ)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in the club timezone.
func StartOfWeek(t time.Time) time.Time {
	club := ToClub(t)
	weekday := int(club.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(club.AddDate(0, 0, -daysToSubtract))
}

// EndOfWeek returns the end of the week (Sunday 23:59:59) in the club timezone.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// CycleKey returns the identifier of the weekly cycle containing t:
// the Monday date formatted as YYYY-MM-DD.
func CycleKey(t time.Time) string {
	return StartOfWeek(t).Format(FormatDate)
}

// PrevCycleKey returns the identifier of the cycle before the one
// containing t.
func PrevCycleKey(t time.Time) string {
	return CycleKey(StartOfWeek(t).AddDate(0, 0, -7))
}

// ParseCycleKey parses a cycle identifier back into the Monday it names.
// Returns an error if the value is not a Monday date.
func ParseCycleKey(value string) (time.Time, error) {
	day, err := ParseDate(value)
	if err != nil {
		return time.Time{}, err
	}
	if day.Weekday() != time.Monday {
		return time.Time{}, fmt.Errorf("cycle key %q is not a Monday", value)
	}
	return day, nil
}

// PuzzleIndex returns the daily puzzle number for the given date.
// Dates before the epoch yield negative indices.
func PuzzleIndex(t time.Time) int {
	days := StartOfDay(t).Sub(PuzzleEpoch)
	return int(days.Hours() / 24)
}

// PuzzleDate returns the calendar date on which the given puzzle
// number was published.
func PuzzleDate(index int) time.Time {
	return PuzzleEpoch.AddDate(0, 0, index)
}

// IsToday checks if the given time is today in the club timezone.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsSameDay checks if two times are on the same day in the club timezone.
func IsSameDay(t1, t2 time.Time) bool {
	c1, c2 := ToClub(t1), ToClub(t2)
	return c1.Year() == c2.Year() && c1.YearDay() == c2.YearDay()
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	c1 := StartOfDay(t1)
	c2 := StartOfDay(t2)
	duration := c2.Sub(c1)
	days := int(duration.Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// IsWeekend checks if the given time is on a weekend.
func IsWeekend(t time.Time) bool {
	club := ToClub(t)
	weekday := club.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatHumanDate is a human-readable format.
	FormatHumanDate = "2 January 2006"
	// FormatShortDate is a short format (Jan 2).
	FormatShortDate = "Jan 2"
	// FormatBackupStamp names backup files sortably.
	FormatBackupStamp = "20060102-150405"
)

// FormatClub formats a time in the club timezone with the given layout.
func FormatClub(t time.Time, layout string) string {
	return ToClub(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in the club timezone.
func FormatDateStr(t time.Time) string {
	return FormatClub(t, FormatDate)
}

// FormatDateTimeStr formats a time as a datetime string in the club timezone.
func FormatDateTimeStr(t time.Time) string {
	return FormatClub(t, FormatDateTime)
}

// Parse parses a time string in the club timezone.
func Parse(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, ClubTZ)
}

// ParseDate parses a date string (YYYY-MM-DD) in the club timezone.
func ParseDate(value string) (time.Time, error) {
	return Parse(FormatDate, value)
}
