package calendar

import (
	"fmt"
	"time"
)

var hijriMonths = [...]string{
	"Muharram", "Safar", "Rabi al-Awwal", "Rabi al-Thani",
	"Jumada al-Ula", "Jumada al-Akhirah", "Rajab", "Shaban",
	"Ramadan", "Shawwal", "Dhu al-Qadah", "Dhu al-Hijjah",
}

// HijriDate is a date in the tabular Islamic calendar
type HijriDate struct {
	Year  int
	Month int // 1-12
	Day   int
}

// MonthName returns the transliterated month name
func (h HijriDate) MonthName() string {
	if h.Month < 1 || h.Month > 12 {
		return ""
	}
	return hijriMonths[h.Month-1]
}

func (h HijriDate) String() string {
	return fmt.Sprintf("%d %s %d AH", h.Day, h.MonthName(), h.Year)
}

// ToHijri converts the civil date of t to the tabular (arithmetic) Islamic
// calendar. Observed dates can differ by a day from sighting-based calendars.
func ToHijri(t time.Time) HijriDate {
	jd := julianDayNumber(t.Year(), int(t.Month()), t.Day())

	l := jd - 1948440 + 10632
	n := (l - 1) / 10631
	l = l - 10631*n + 354
	j := ((10985-l)/5316)*((50*l)/17719) + (l/5670)*((43*l)/15238)
	l = l - ((30-j)/15)*((17719*j)/50) - (j/16)*((15238*j)/43) + 29
	month := (24 * l) / 709
	day := l - (709*month)/24
	year := 30*n + j - 30

	return HijriDate{Year: year, Month: month, Day: day}
}

func julianDayNumber(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

// CivilDate formats t as e.g. "Saturday, 17 October 2026"
func CivilDate(t time.Time) string {
	return t.Format("Monday, 2 January 2006")
}
