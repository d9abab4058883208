package domain

import "time"

// EncodeYMD encodes a calendar day as the integer YYYYMMDD form the CleverTap
// counts API expects (year*10000 + month*100 + day).
func EncodeYMD(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// DayWindow is an inclusive calendar-day range.
type DayWindow struct {
	From time.Time
	To   time.Time
}

func (w DayWindow) FromYMD() int { return EncodeYMD(w.From) }
func (w DayWindow) ToYMD() int   { return EncodeYMD(w.To) }

// TruncateDay drops the time-of-day component in t's location.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SingleDayWindow is the window covering exactly one calendar day.
func SingleDayWindow(day time.Time) DayWindow {
	day = TruncateDay(day)
	return DayWindow{From: day, To: day}
}

// MonthToDateWindow spans the first of ref's month through ref, inclusive.
func MonthToDateWindow(ref time.Time) DayWindow {
	ref = TruncateDay(ref)
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return DayWindow{From: first, To: ref}
}
