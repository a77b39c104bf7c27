// Package schedule maps a weekly commute schedule onto concrete future
// departure timestamps and their canonical slot labels.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrMalformedClockTime indicates a clock-time string that does not match
// "hh:mm AM/PM". The presentation layer only offers valid values, so hitting
// this means a caller contract violation.
var ErrMalformedClockTime = errors.New("malformed clock time, want \"hh:mm AM/PM\"")

// SlotLabelLayout is the time.Format layout for slot labels, e.g.
// "Mon 08:00 AM". A label is a pure function of weekday and clock time:
// resolving the same slot in a different calendar week yields the same label.
const SlotLabelLayout = "Mon 03:04 PM"

// clockTimeRegex validates "hh:mm AM/PM" with a 12-hour clock.
var clockTimeRegex = regexp.MustCompile(`^(0?[1-9]|1[0-2]):([0-5]\d) (AM|PM)$`)

// ParseClockTime parses a 12-hour clock time into 24-hour hour and minute.
// 12 AM maps to hour 0 and 12 PM to hour 12.
func ParseClockTime(clock string) (hour, minute int, err error) {
	m := clockTimeRegex.FindStringSubmatch(clock)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedClockTime, clock)
	}

	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])

	switch m[3] {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	}
	return hour, minute, nil
}

// NextDeparture resolves a (weekday, clock time) pair to its next occurrence
// strictly after now: at least one day and at most seven days ahead. Seconds
// and sub-second components are truncated.
//
// The weekday distance is (target - now.Weekday() + 7) mod 7, with 7
// substituted when the result is 0, so a slot on today's weekday resolves to
// next week rather than today.
func NextDeparture(now time.Time, day time.Weekday, clock string) (time.Time, error) {
	hour, minute, err := ParseClockTime(clock)
	if err != nil {
		return time.Time{}, err
	}

	daysAhead := (int(day) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}

	target := now.AddDate(0, 0, daysAhead)
	return time.Date(target.Year(), target.Month(), target.Day(), hour, minute, 0, 0, now.Location()), nil
}

// SlotLabel derives the canonical slot label for a resolved departure.
func SlotLabel(departAt time.Time) string {
	return departAt.Format(SlotLabelLayout)
}

// Resolver resolves schedule slots against an injectable clock so resolution
// is deterministic under test.
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a Resolver using the real clock.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverAt creates a Resolver with a fixed clock.
func NewResolverAt(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// Resolve returns the next departure for the given weekday and clock time.
func (r *Resolver) Resolve(day time.Weekday, clock string) (time.Time, error) {
	return NextDeparture(r.now(), day, clock)
}
