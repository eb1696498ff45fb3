package timeline

import (
	"fmt"
	"time"
)

var weekdaysRU = [...]string{
	time.Sunday:    "Воскресенье",
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
}

// genitive month names, as used after a day number.
var monthsRU = [...]string{
	time.January:   "января",
	time.February:  "февраля",
	time.March:     "марта",
	time.April:     "апреля",
	time.May:       "мая",
	time.June:      "июня",
	time.July:      "июля",
	time.August:    "августа",
	time.September: "сентября",
	time.October:   "октября",
	time.November:  "ноября",
	time.December:  "декабря",
}

// DayTitle renders the UTC day of t, e.g. "Понедельник, 5 октября 2026 г.".
func DayTitle(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s, %d %s %d г.", weekdaysRU[t.Weekday()], t.Day(), monthsRU[t.Month()], t.Year())
}
