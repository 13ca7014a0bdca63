package svk

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// swedishMonths is the order the date picker's month selector cycles through.
var swedishMonths = []string{
	"Januari", "Februari", "Mars", "April", "Maj", "Juni",
	"Juli", "Augusti", "September", "Oktober", "November", "December",
}

func monthIndex(name string) (int, bool) {
	name = strings.TrimSpace(name)
	for i, m := range swedishMonths {
		if strings.EqualFold(m, name) {
			return i, true
		}
	}
	return 0, false
}

// calendarMoves computes how many times to press the year-back button and
// how far to step the month selector (negative = backwards) to get from the
// picker's current view to target.
func calendarMoves(currentYear, currentMonth string, target time.Time) (yearsBack, monthDelta int, err error) {
	year, err := strconv.Atoi(strings.TrimSpace(currentYear))
	if err != nil {
		return 0, 0, fmt.Errorf("unreadable picker year %q", currentYear)
	}
	yearsBack = year - target.Year()
	if yearsBack < 0 {
		return 0, 0, fmt.Errorf("target year %d is after picker year %d", target.Year(), year)
	}

	cur, ok := monthIndex(currentMonth)
	if !ok {
		return 0, 0, fmt.Errorf("unreadable picker month %q", currentMonth)
	}
	monthDelta = int(target.Month()-1) - cur
	return yearsBack, monthDelta, nil
}

// dayButtonSelector matches the calendar's button for the given date.
func dayButtonSelector(target time.Time) string {
	return fmt.Sprintf("button[data-date='%s']", target.Format("2006-01-02"))
}
