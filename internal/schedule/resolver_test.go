package schedule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/carboncycle/carboncycle/internal/schedule"
)

// fixedNow is a Wednesday at 14:23:45.123.
var fixedNow = time.Date(2024, time.March, 13, 14, 23, 45, 123000000, time.UTC)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		clock      string
		wantHour   int
		wantMinute int
	}{
		{"12:00 AM", 0, 0},
		{"12:30 AM", 0, 30},
		{"01:15 AM", 1, 15},
		{"11:45 AM", 11, 45},
		{"12:00 PM", 12, 0},
		{"01:00 PM", 13, 0},
		{"05:30 PM", 17, 30},
		{"11:59 PM", 23, 59},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			hour, minute, err := schedule.ParseClockTime(tt.clock)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if hour != tt.wantHour || minute != tt.wantMinute {
				t.Errorf("got %02d:%02d, want %02d:%02d", hour, minute, tt.wantHour, tt.wantMinute)
			}
		})
	}
}

func TestParseClockTime_Malformed(t *testing.T) {
	for _, clock := range []string{"", "08:00", "25:00 AM", "08:61 PM", "8:00am", "noon", "13:00 PM"} {
		if _, _, err := schedule.ParseClockTime(clock); !errors.Is(err, schedule.ErrMalformedClockTime) {
			t.Errorf("ParseClockTime(%q): expected ErrMalformedClockTime, got %v", clock, err)
		}
	}
}

func TestNextDeparture_AlwaysFutureAtMostSevenDays(t *testing.T) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		departAt, err := schedule.NextDeparture(fixedNow, day, "08:00 AM")
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", day, err)
		}

		if !departAt.After(fixedNow) {
			t.Errorf("%v: departure %v is not in the future of %v", day, departAt, fixedNow)
		}
		ahead := departAt.Sub(fixedNow)
		if ahead > 7*24*time.Hour {
			t.Errorf("%v: departure %v is %v ahead, want within (0, 7d]", day, departAt, ahead)
		}
		if departAt.Weekday() != day {
			t.Errorf("%v: resolved to weekday %v", day, departAt.Weekday())
		}
		if departAt.Second() != 0 || departAt.Nanosecond() != 0 {
			t.Errorf("%v: seconds not truncated: %v", day, departAt)
		}
	}
}

func TestNextDeparture_SameWeekdayResolvesNextWeek(t *testing.T) {
	// fixedNow is a Wednesday; a Wednesday slot must land 7 days out, never today.
	departAt, err := schedule.NextDeparture(fixedNow, time.Wednesday, "08:00 AM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2024, time.March, 20, 8, 0, 0, 0, time.UTC)
	if !departAt.Equal(want) {
		t.Errorf("got %v, want %v", departAt, want)
	}
}

func TestNextDeparture_Deterministic(t *testing.T) {
	first, err := schedule.NextDeparture(fixedNow, time.Friday, "05:30 PM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := schedule.NextDeparture(fixedNow, time.Friday, "05:30 PM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.Equal(second) {
		t.Errorf("resolution is not deterministic: %v vs %v", first, second)
	}
	if schedule.SlotLabel(first) != schedule.SlotLabel(second) {
		t.Errorf("labels differ: %q vs %q", schedule.SlotLabel(first), schedule.SlotLabel(second))
	}
}

func TestSlotLabel_IndependentOfCalendarWeek(t *testing.T) {
	departAt, err := schedule.NextDeparture(fixedNow, time.Monday, "08:00 AM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	laterWeek, err := schedule.NextDeparture(fixedNow.AddDate(0, 0, 14), time.Monday, "08:00 AM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := schedule.SlotLabel(departAt), "Mon 08:00 AM"; got != want {
		t.Errorf("label = %q, want %q", got, want)
	}
	if schedule.SlotLabel(departAt) != schedule.SlotLabel(laterWeek) {
		t.Errorf("labels differ across weeks: %q vs %q",
			schedule.SlotLabel(departAt), schedule.SlotLabel(laterWeek))
	}
}

func TestResolver_Slots(t *testing.T) {
	resolver := schedule.NewResolverAt(func() time.Time { return fixedNow })

	week := schedule.DefaultWeek()
	slots, err := resolver.Slots(week)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Five commute days, two legs each.
	if len(slots) != 10 {
		t.Fatalf("expected 10 slots, got %d", len(slots))
	}
	for i := 0; i < len(slots); i += 2 {
		if slots[i].Day != slots[i+1].Day {
			t.Errorf("slot pair %d spans weekdays %v and %v", i/2, slots[i].Day, slots[i+1].Day)
		}
		if slots[i].Clock != schedule.DefaultLeaveHome || slots[i+1].Clock != schedule.DefaultLeaveWork {
			t.Errorf("slot pair %d has clocks %q/%q", i/2, slots[i].Clock, slots[i+1].Clock)
		}
	}
}

func TestResolver_Slots_NoCommuteDaysYieldNoSlots(t *testing.T) {
	resolver := schedule.NewResolverAt(func() time.Time { return fixedNow })

	week := schedule.Week{
		time.Monday: {Commute: false, LeaveHome: "08:00 AM", LeaveWork: "05:30 PM"},
	}
	slots, err := resolver.Slots(week)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots, got %d", len(slots))
	}
}

func TestResolver_Slots_MalformedTimePropagates(t *testing.T) {
	resolver := schedule.NewResolverAt(func() time.Time { return fixedNow })

	week := schedule.Week{
		time.Monday: {Commute: true, LeaveHome: "late-ish", LeaveWork: "05:30 PM"},
	}
	if _, err := resolver.Slots(week); !errors.Is(err, schedule.ErrMalformedClockTime) {
		t.Errorf("expected ErrMalformedClockTime, got %v", err)
	}
}
