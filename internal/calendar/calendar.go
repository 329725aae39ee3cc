package calendar

import "time"

// DaysIn returns the number of days in the given month (1-12)
func DaysIn(year, month int) int {
	// Day 0 of the following month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday of the first day of the month
func FirstWeekday(year, month int) time.Weekday {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// Grid lays out a month as Sunday-first calendar cells. Leading cells
// before the first of the month are zero.
func Grid(year, month int) []int {
	blanks := int(FirstWeekday(year, month))
	days := DaysIn(year, month)

	cells := make([]int, blanks, blanks+days)
	for day := 1; day <= days; day++ {
		cells = append(cells, day)
	}
	return cells
}

// ValidDate reports whether year/month/day names a real calendar day
func ValidDate(year, month, day int) bool {
	if year < 1 || month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= DaysIn(year, month)
}
