package sla

import "time"

const isoDate = "2006-01-02"

// DefaultHolidays lists the seeded non-working dates (Colombian public
// holidays 2025-2026). Deployments override the set via configuration; the
// list needs an annual refresh.
var DefaultHolidays = []string{
	"2025-01-01", "2025-01-06", "2025-03-24", "2025-04-17", "2025-04-18", "2025-05-01",
	"2025-06-02", "2025-06-23", "2025-06-30", "2025-07-20", "2025-08-07", "2025-08-18",
	"2025-10-13", "2025-11-03", "2025-11-17", "2025-12-08", "2025-12-25",
	"2026-01-01",
}

// Calendar issues day-is-workday judgments. Saturdays and Sundays are always
// non-working; the holiday set is optional and compared in UTC date terms.
type Calendar struct {
	holidays map[string]struct{}
}

// NewCalendar builds a calendar from ISO YYYY-MM-DD holiday dates. Malformed
// entries are ignored.
func NewCalendar(holidayDates []string) *Calendar {
	holidays := make(map[string]struct{}, len(holidayDates))
	for _, raw := range holidayDates {
		if _, err := time.Parse(isoDate, raw); err != nil {
			continue
		}
		holidays[raw] = struct{}{}
	}
	return &Calendar{holidays: holidays}
}

// NewWeekendCalendar builds a calendar with no holiday set.
func NewWeekendCalendar() *Calendar {
	return NewCalendar(nil)
}

// IsNonWorkingDay reports whether the date falls on a weekend or on a
// configured holiday. Pure function of the date and the static holiday set.
func (c *Calendar) IsNonWorkingDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	if len(c.holidays) == 0 {
		return false
	}
	_, holiday := c.holidays[date.UTC().Format(isoDate)]
	return holiday
}
