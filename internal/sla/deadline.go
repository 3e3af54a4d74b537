package sla

import (
	"fmt"
	"time"

	"github.com/ventanilla/servicedesk/internal/domain"
)

// businessDaysByPriority maps priority to the required business-day count.
var businessDaysByPriority = map[domain.TicketPriority]int{
	domain.TicketPriorityHigh:   1,
	domain.TicketPriorityMedium: 3,
	domain.TicketPriorityLow:    5,
}

// BusinessDaysFor returns the required business days for a priority.
// Unknown priorities fall back to the medium window.
func BusinessDaysFor(priority domain.TicketPriority) int {
	if days, ok := businessDaysByPriority[priority]; ok {
		return days
	}
	return businessDaysByPriority[domain.TicketPriorityMedium]
}

// AddBusinessDays advances base by count working days on the given calendar.
// Counting starts from the literal base timestamp: a base landing on a
// non-working day is not pre-advanced. The time of day is preserved; negative
// counts are clamped to zero. The result is never before base.
func AddBusinessDays(cal *Calendar, base time.Time, count int) time.Time {
	if count < 0 {
		count = 0
	}
	result := base
	for added := 0; added < count; {
		result = result.AddDate(0, 0, 1)
		if !cal.IsNonWorkingDay(result) {
			added++
		}
	}
	return result
}

// DeadlineForPriority computes the commitment deadline for a priority.
func DeadlineForPriority(cal *Calendar, base time.Time, priority domain.TicketPriority) time.Time {
	return AddBusinessDays(cal, base, BusinessDaysFor(priority))
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatDeadline renders a deadline in the long es-CO date form,
// e.g. "16 de enero de 2024".
func FormatDeadline(deadline time.Time) string {
	return fmt.Sprintf("%d de %s de %d", deadline.Day(), spanishMonths[deadline.Month()-1], deadline.Year())
}

// DaysUntil returns the whole-day difference between now and the deadline,
// comparing calendar dates in now's location. Same day yields 0, the next
// day 1; past deadlines go negative.
func DaysUntil(now, deadline time.Time) int {
	loc := now.Location()
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	d := deadline.In(loc)
	deadlineDate := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return int(deadlineDate.Sub(nowDate).Hours() / 24)
}

// UrgencyLabel frames a reminder message from the whole-day distance to the
// deadline.
func UrgencyLabel(now, deadline time.Time) string {
	switch days := DaysUntil(now, deadline); {
	case days <= 0:
		return "vence hoy"
	case days == 1:
		return "vence mañana"
	default:
		return fmt.Sprintf("vence en %d días", days)
	}
}
