package scheduling

import (
	"fmt"
	"time"
)

const civilDateLayout = "2006-01-02"

// ParseCivilDate parses a date-only string like "2024-06-03". The result is
// midnight UTC; deriving the weekday from it never drifts with the process
// timezone, which is why callers must never go through a local time.Time.
func ParseCivilDate(s string) (time.Time, error) {
	t, err := time.Parse(civilDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%2d:%2d", &h, &m); err != nil || len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q is not a HH:MM time", ErrInvalidDate, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidDate, s)
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// CombineDateTime builds the UTC instant for a civil date plus an
// "HH:MM" slot start.
func CombineDateTime(dateCivil, clock string) (time.Time, error) {
	day, err := ParseCivilDate(dateCivil)
	if err != nil {
		return time.Time{}, err
	}
	min, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(min) * time.Minute), nil
}

// DayBounds returns the closed interval covering a civil day,
// [00:00:00.000, 23:59:59.999], both endpoints inclusive.
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := day.Truncate(24 * time.Hour)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// ClockOf formats an instant's time of day as "HH:MM" in UTC, the same
// reference clock the slot walk uses.
func ClockOf(t time.Time) string {
	return t.UTC().Format("15:04")
}

// AvailableSlots walks a doctor's weekly template for one civil day and
// returns the free slot start times in "HH:MM" form.
//
// Each work range is stepped from its own Start in SlotDuration increments
// while the step start is strictly before End; a trailing partial slot is
// still emitted. Starts present in booked are skipped. Ranges are emitted in
// declaration order and never re-sorted across ranges, so a template listing
// an afternoon range before a morning one yields the same order back.
func AvailableSlots(workingHours []WorkDay, day time.Time, booked map[string]struct{}) ([]string, error) {
	weekday := int(day.UTC().Weekday())

	var workDay *WorkDay
	for i := range workingHours {
		if workingHours[i].DayOfWeek == weekday {
			workDay = &workingHours[i]
			break
		}
	}
	// No template entry for this weekday is a normal empty day.
	if workDay == nil || len(workDay.Slots) == 0 {
		return []string{}, nil
	}

	step := int(SlotDuration / time.Minute)
	slots := []string{}
	for _, r := range workDay.Slots {
		start, err := ParseClock(r.Start)
		if err != nil {
			return nil, fmt.Errorf("work range start: %w", err)
		}
		end, err := ParseClock(r.End)
		if err != nil {
			return nil, fmt.Errorf("work range end: %w", err)
		}
		for cur := start; cur < end; cur += step {
			clock := formatClock(cur)
			if _, taken := booked[clock]; taken {
				continue
			}
			slots = append(slots, clock)
		}
	}
	return slots, nil
}

// BookedStarts reduces a day's live appointments to their "HH:MM" start
// times for the slot walk to subtract.
func BookedStarts(appointments []Appointment) map[string]struct{} {
	booked := make(map[string]struct{}, len(appointments))
	for _, a := range appointments {
		booked[ClockOf(a.AppointmentDate)] = struct{}{}
	}
	return booked
}
