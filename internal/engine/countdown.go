package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/tartampluch/go-valentine/internal/config"
)

// State is the presentation state of the countdown.
type State int

const (
	// Locked shows the countdown and hides the card.
	Locked State = iota
	// Unlocked hides the countdown and shows the card.
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// Remaining is the time left until the target, split into whole units.
type Remaining struct {
	Days    int
	Hours   int // 0-23
	Minutes int // 0-59
	Seconds int // 0-59
}

const day = 24 * time.Hour

// Decompose splits d into whole days, then hours, minutes and seconds left
// after the larger units. Every unit is truncated. Negative durations count
// as zero.
func Decompose(d time.Duration) Remaining {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Millisecond)
	return Remaining{
		Days:    int(d / day),
		Hours:   int(d % day / time.Hour),
		Minutes: int(d % time.Hour / time.Minute),
		Seconds: int(d % time.Minute / time.Second),
	}
}

// RenderDecision is what a presentation layer needs to draw one frame.
// Exactly one of the two regions is visible.
type RenderDecision struct {
	State     State
	Now       time.Time
	Target    time.Time
	Remaining Remaining
}

// CountdownVisible reports whether the countdown region is shown.
func (d RenderDecision) CountdownVisible() bool { return d.State == Locked }

// CardVisible reports whether the celebratory region is shown.
func (d RenderDecision) CardVisible() bool { return d.State == Unlocked }

// Text is the countdown line shown while Locked, empty otherwise.
func (d RenderDecision) Text() string {
	if d.State != Locked {
		return ""
	}
	r := d.Remaining
	return fmt.Sprintf(config.FallbackCountdown, r.Days, r.Hours, r.Minutes, r.Seconds)
}

// Occurrence is the Feb 14 the presentation is about: today's while
// Unlocked, Target otherwise. Target alone has already moved to next year
// on the day itself.
func (d RenderDecision) Occurrence() time.Time {
	if d.State != Unlocked {
		return d.Target
	}
	loc := d.Target.Location()
	return targetInstant(d.Now.In(loc).Year(), loc)
}

// Render decides what to present at now for the given target.
//
// The Unlocked check uses the civil date of now in loc and is independent of
// the arithmetic: on Feb 14 the resolved target is already next year's.
func Render(now, target time.Time, loc *time.Location) (RenderDecision, error) {
	if err := validateInstant(now, loc); err != nil {
		return RenderDecision{}, err
	}
	if target.IsZero() {
		return RenderDecision{}, fmt.Errorf("%w: %s", ErrInvalidInput, config.ErrZeroInstant)
	}
	if target.Before(now) {
		return RenderDecision{}, fmt.Errorf("%w: %s", ErrInvalidInput, config.ErrTargetPassed)
	}

	decision := RenderDecision{Now: now, Target: target}
	if Civil(now, loc).IsTargetDay() {
		decision.State = Unlocked
		return decision, nil
	}

	decision.State = Locked
	decision.Remaining = Decompose(target.Sub(now))
	return decision, nil
}

// Evaluate resolves the target for now and renders it.
func Evaluate(now time.Time, loc *time.Location) (RenderDecision, error) {
	target, err := ResolveTarget(now, loc)
	if err != nil {
		return RenderDecision{}, err
	}
	return Render(now, target, loc)
}

// Countdown binds a clock to a reference zone. It is shared by every
// presentation layer so they all agree on "now".
type Countdown struct {
	Clock    Clock
	Location *time.Location
}

// NewCountdown creates a Countdown. A nil clock selects RealClock.
func NewCountdown(clock Clock, loc *time.Location) *Countdown {
	if clock == nil {
		clock = RealClock{}
	}
	return &Countdown{Clock: clock, Location: loc}
}

// Current evaluates the countdown at Clock.Now().
func (c *Countdown) Current() (RenderDecision, error) {
	if c == nil || c.Clock == nil {
		return RenderDecision{}, errors.New(config.ErrCountdownMissing)
	}
	return Evaluate(c.Clock.Now(), c.Location)
}
