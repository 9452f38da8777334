package report

import (
	"cleanops/bizerror"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses a "HH:MM" clock string into minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, errors.New("invalid clock time '" + value + "'")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, errors.New("invalid clock time '" + value + "'")
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, errors.New("invalid clock time '" + value + "'")
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, errors.New("invalid clock time '" + value + "'")
	}
	return hour*60 + minute, nil
}

// DeriveWorkMinutes computes the authoritative working minutes from the raw
// time inputs: end minus start, crossing midnight once when nextDay is set,
// minus the break, floored at zero.
func DeriveWorkMinutes(startAt, endAt string, nextDay bool, breakMinutes int) (int, error) {
	start, err := ParseClock(startAt)
	if err != nil {
		return 0, &bizerror.ErrBadParam{Cause: err}
	}
	end, err := ParseClock(endAt)
	if err != nil {
		return 0, &bizerror.ErrBadParam{Cause: err}
	}
	if breakMinutes < 0 {
		return 0, &bizerror.ErrBadParam{Cause: errors.New("break minutes must not be negative")}
	}
	if nextDay {
		end += 24 * 60
	}
	minutes := end - start - breakMinutes
	if minutes < 0 {
		minutes = 0
	}
	return minutes, nil
}

// ParseWorkDate validates an ISO work date and normalizes it.
func ParseWorkDate(value string) (string, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return "", &bizerror.ErrBadParam{Cause: fmt.Errorf("invalid work date '%s'", value)}
	}
	return t.Format("2006-01-02"), nil
}

// MonthRange returns the first and last day of a "YYYY-MM" month.
func MonthRange(month string) (string, string, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return "", "", &bizerror.ErrBadParam{Cause: fmt.Errorf("invalid month '%s'", month)}
	}
	last := first.AddDate(0, 1, -1)
	return first.Format("2006-01-02"), last.Format("2006-01-02"), nil
}
