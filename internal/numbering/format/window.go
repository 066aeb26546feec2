package format

import (
	"errors"
	"strings"
	"time"
)

// ResetInterval is the periodic boundary within which a numbering
// sequence counts from zero.
type ResetInterval string

const (
	ResetNever     ResetInterval = "NEVER"
	ResetWeekly    ResetInterval = "WEEKLY"
	ResetMonthly   ResetInterval = "MONTHLY"
	ResetQuarterly ResetInterval = "QUARTERLY"
	ResetYearly    ResetInterval = "YEARLY"
)

var ErrInvalidResetInterval = errors.New("invalid_reset_interval")

// ParseResetInterval normalizes a raw interval value.
func ParseResetInterval(raw string) (ResetInterval, error) {
	switch ResetInterval(strings.ToUpper(strings.TrimSpace(raw))) {
	case ResetNever:
		return ResetNever, nil
	case ResetWeekly:
		return ResetWeekly, nil
	case ResetMonthly:
		return ResetMonthly, nil
	case ResetQuarterly:
		return ResetQuarterly, nil
	case ResetYearly:
		return ResetYearly, nil
	default:
		return "", ErrInvalidResetInterval
	}
}

// CalculateBounds returns the inclusive start and exclusive end of the
// reset window containing effectiveAt, in UTC. ResetNever has no window
// and returns (nil, nil): the counter is global for the system's lifetime.
func CalculateBounds(interval ResetInterval, effectiveAt time.Time) (*time.Time, *time.Time) {
	at := effectiveAt.UTC()

	var start, end time.Time
	switch interval {
	case ResetWeekly:
		// Weeks start on Monday 00:00.
		offset := (int(at.Weekday()) + 6) % 7
		start = time.Date(at.Year(), at.Month(), at.Day()-offset, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 7)
	case ResetMonthly:
		start = time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	case ResetQuarterly:
		quarterStart := time.Month((int(at.Month())-1)/3*3 + 1)
		start = time.Date(at.Year(), quarterStart, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 3, 0)
	case ResetYearly:
		start = time.Date(at.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, 0)
	default:
		return nil, nil
	}

	return &start, &end
}
