package engine

import (
	"fmt"
	"time"

	"github.com/tartampluch/go-valentine/internal/config"
)

// CivilDateTime is the calendar projection of an instant into a reference zone.
// Month is zero-based (January = 0).
type CivilDateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// Civil projects now into loc.
func Civil(now time.Time, loc *time.Location) CivilDateTime {
	t := now.In(loc)
	return CivilDateTime{
		Year:   t.Year(),
		Month:  int(t.Month()) - 1,
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// IsTargetDay reports whether the civil date is February 14th, whatever the
// time of day.
func (c CivilDateTime) IsTargetDay() bool {
	return c.Month == int(config.TargetMonth)-1 && c.Day == config.TargetDay
}

// ResolveTarget returns the next occurrence of February 14th 00:00:00 in loc.
//
// The candidate is built in the civil year of now. It moves to the next year
// only when now is strictly after it: the boundary instant itself still
// resolves to the current year.
func ResolveTarget(now time.Time, loc *time.Location) (time.Time, error) {
	if err := validateInstant(now, loc); err != nil {
		return time.Time{}, err
	}

	year := now.In(loc).Year()
	candidate := targetInstant(year, loc)
	if now.After(candidate) {
		candidate = targetInstant(year+1, loc)
	}
	return candidate, nil
}

// targetInstant builds Feb 14 00:00:00 of year in loc.
func targetInstant(year int, loc *time.Location) time.Time {
	return time.Date(year, config.TargetMonth, config.TargetDay, 0, 0, 0, 0, loc)
}

func validateInstant(now time.Time, loc *time.Location) error {
	if now.IsZero() {
		return fmt.Errorf("%w: %s", ErrInvalidInput, config.ErrZeroInstant)
	}
	if loc == nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, config.ErrNilLocation)
	}
	return nil
}
