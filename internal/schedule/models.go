package schedule

import "time"

// Default departure times, used when a day is enabled without explicit times.
const (
	DefaultLeaveHome = "08:00 AM"
	DefaultLeaveWork = "05:30 PM"
)

// Day is one weekday's commute configuration: whether a commute happens and
// the two departure clock times.
type Day struct {
	Commute   bool
	LeaveHome string
	LeaveWork string
}

// Week is a full weekly commute schedule keyed by weekday.
type Week map[time.Weekday]Day

// DefaultWeek returns the conventional schedule: commute Monday through
// Friday, leave home 08:00 AM, leave work 05:30 PM.
func DefaultWeek() Week {
	week := make(Week, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		week[d] = Day{
			Commute:   d != time.Saturday && d != time.Sunday,
			LeaveHome: DefaultLeaveHome,
			LeaveWork: DefaultLeaveWork,
		}
	}
	return week
}

// Slot is one resolved commute leg: a weekday/clock-time pair bound to its
// next concrete departure timestamp and canonical label.
type Slot struct {
	Day      time.Weekday
	Clock    string
	DepartAt time.Time
	Label    string
}

// ActiveDays returns the number of weekdays with a commute enabled.
func (w Week) ActiveDays() int {
	n := 0
	for _, day := range w {
		if day.Commute {
			n++
		}
	}
	return n
}

// Slots resolves every active day's two departures (home then work) in
// weekday order, Sunday first. Days with Commute false contribute no slots.
func (r *Resolver) Slots(week Week) ([]Slot, error) {
	slots := make([]Slot, 0, 2*week.ActiveDays())
	for d := time.Sunday; d <= time.Saturday; d++ {
		day, ok := week[d]
		if !ok || !day.Commute {
			continue
		}
		for _, clock := range []string{day.LeaveHome, day.LeaveWork} {
			departAt, err := r.Resolve(d, clock)
			if err != nil {
				return nil, err
			}
			slots = append(slots, Slot{
				Day:      d,
				Clock:    clock,
				DepartAt: departAt,
				Label:    SlotLabel(departAt),
			})
		}
	}
	return slots, nil
}
