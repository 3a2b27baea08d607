package schedule

import (
	"time"

	"github.com/borgmon/adzan-reminder/pkg/models"
)

// FiredMarker remembers the most recently fired prayer for the current day.
// It is owned by the tick loop and is not safe for concurrent use.
type FiredMarker struct {
	name models.PrayerName
	day  time.Time
}

// Last returns the prayer fired today, clearing the marker once now is past
// the midnight after it was set
func (m *FiredMarker) Last(now time.Time) models.PrayerName {
	if m.name != "" && startOfDay(now).After(m.day) {
		m.name = ""
		m.day = time.Time{}
	}
	return m.name
}

// Mark records that name fired at now
func (m *FiredMarker) Mark(name models.PrayerName, now time.Time) {
	m.name = name
	m.day = startOfDay(now)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
