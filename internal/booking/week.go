package booking

import "time"

// WeekStart returns midnight of the Monday of the week containing t,
// in t's location. Weekly quotas are counted over [WeekStart, +7d).
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
