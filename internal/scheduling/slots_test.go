package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseCivilDate(s)
	require.NoError(t, err)
	return d
}

// 2024-06-03 is a Monday, 2024-06-04 a Tuesday, 2024-06-02 a Sunday.
var mondayHours = []WorkDay{
	{DayOfWeek: 1, Slots: []TimeRange{{Start: "09:00", End: "10:00"}}},
}

func TestAvailableSlotsMondayMorning(t *testing.T) {
	slots, err := AvailableSlots(mondayHours, mustDate(t, "2024-06-03"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, slots)
}

func TestAvailableSlotsSkipsBookedStart(t *testing.T) {
	booked := map[string]struct{}{"09:30": {}}
	slots, err := AvailableSlots(mondayHours, mustDate(t, "2024-06-03"), booked)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, slots)
}

func TestAvailableSlotsNoTemplateForWeekday(t *testing.T) {
	slots, err := AvailableSlots(mondayHours, mustDate(t, "2024-06-04"), nil)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsNilTemplate(t *testing.T) {
	slots, err := AvailableSlots(nil, mustDate(t, "2024-06-03"), nil)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsFullyBookedDay(t *testing.T) {
	booked := map[string]struct{}{"09:00": {}, "09:30": {}}
	slots, err := AvailableSlots(mondayHours, mustDate(t, "2024-06-03"), booked)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsTrailingPartialSlot(t *testing.T) {
	// 10:00 starts before the 10:15 range end, so it is still emitted even
	// though the full half hour does not fit.
	hours := []WorkDay{
		{DayOfWeek: 1, Slots: []TimeRange{{Start: "09:00", End: "10:15"}}},
	}
	slots, err := AvailableSlots(hours, mustDate(t, "2024-06-03"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, slots)
}

func TestAvailableSlotsGridAnchoredPerRange(t *testing.T) {
	// A range starting off the half-hour keeps its own anchor.
	hours := []WorkDay{
		{DayOfWeek: 1, Slots: []TimeRange{{Start: "09:10", End: "10:10"}}},
	}
	slots, err := AvailableSlots(hours, mustDate(t, "2024-06-03"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:10", "09:40"}, slots)
}

func TestAvailableSlotsPreservesRangeDeclarationOrder(t *testing.T) {
	// Ranges declared afternoon-first come back afternoon-first. The output
	// is chronological within each range but never re-sorted across ranges.
	hours := []WorkDay{
		{DayOfWeek: 1, Slots: []TimeRange{
			{Start: "14:00", End: "15:00"},
			{Start: "09:00", End: "10:00"},
		}},
	}
	slots, err := AvailableSlots(hours, mustDate(t, "2024-06-03"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00", "14:30", "09:00", "09:30"}, slots)
}

func TestAvailableSlotsNoDuplicates(t *testing.T) {
	hours := []WorkDay{
		{DayOfWeek: 1, Slots: []TimeRange{
			{Start: "09:00", End: "12:00"},
			{Start: "14:00", End: "17:30"},
		}},
	}
	slots, err := AvailableSlots(hours, mustDate(t, "2024-06-03"), map[string]struct{}{"10:30": {}})
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, s := range slots {
		_, dup := seen[s]
		assert.False(t, dup, "duplicate slot %s", s)
		seen[s] = struct{}{}
	}
	assert.NotContains(t, slots, "10:30")
}

func TestAvailableSlotsDeterministic(t *testing.T) {
	hours := []WorkDay{
		{DayOfWeek: 1, Slots: []TimeRange{{Start: "09:00", End: "12:00"}}},
	}
	booked := map[string]struct{}{"11:00": {}}

	first, err := AvailableSlots(hours, mustDate(t, "2024-06-03"), booked)
	require.NoError(t, err)
	second, err := AvailableSlots(hours, mustDate(t, "2024-06-03"), booked)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAvailableSlotsWeekdayFromDateOnly(t *testing.T) {
	// Sunday maps to index 0 regardless of any process timezone.
	hours := []WorkDay{
		{DayOfWeek: 0, Slots: []TimeRange{{Start: "08:00", End: "09:00"}}},
	}
	slots, err := AvailableSlots(hours, mustDate(t, "2024-06-02"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "08:30"}, slots)
}

func TestAvailableSlotsBadRange(t *testing.T) {
	hours := []WorkDay{
		{DayOfWeek: 1, Slots: []TimeRange{{Start: "late", End: "10:00"}}},
	}
	_, err := AvailableSlots(hours, mustDate(t, "2024-06-03"), nil)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseCivilDate(t *testing.T) {
	d, err := ParseCivilDate("2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, time.UTC, d.Location())

	for _, bad := range []string{"", "03-06-2024", "2024-06-03T10:00", "yesterday"} {
		_, err := ParseCivilDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %q", bad)
	}
}

func TestParseClock(t *testing.T) {
	min, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, min)

	min, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Zero(t, min)

	min, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23*60+59, min)

	for _, bad := range []string{"", "9:30", "24:00", "12:60", "ab:cd", "12-30"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %q", bad)
	}
}

func TestCombineDateTime(t *testing.T) {
	at, err := CombineDateTime("2024-06-03", "09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC), at)
}

func TestDayBoundsClosedInterval(t *testing.T) {
	day := mustDate(t, "2024-06-03")
	from, to := DayBounds(day)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 6, 3, 23, 59, 59, 999000000, time.UTC), to)
}

func TestBookedStarts(t *testing.T) {
	appts := []Appointment{
		{AppointmentDate: time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)},
		{AppointmentDate: time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)},
	}
	booked := BookedStarts(appts)
	assert.Len(t, booked, 2)
	assert.Contains(t, booked, "09:30")
	assert.Contains(t, booked, "14:00")
}
