package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/rs/zerolog/log"
)

// ErrInvalidTime is returned for time strings that are not HH:MM
var ErrInvalidTime = errors.New("invalid time of day")

// Upcoming describes the next prayer relative to a point in time
type Upcoming struct {
	Prayer    models.PrayerTime
	Tomorrow  bool          // the schedule wrapped past its last prayer
	At        time.Time     // instant the prayer starts
	Countdown time.Duration // time left until At
}

// Label renders the upcoming prayer for display, e.g. "Asr 15:30" or "Fajr 05:00 (tomorrow)"
func (u Upcoming) Label() string {
	label := fmt.Sprintf("%s %s", u.Prayer.Name, u.Prayer.Time)
	if u.Tomorrow {
		label += " (tomorrow)"
	}
	return label
}

// ParseTimeOfDay parses an HH:MM string in 24h format
func ParseTimeOfDay(s string) (models.TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 || !allDigits(hh) || !allDigits(mm) {
		return models.TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return models.TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return models.TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	return models.TimeOfDay{Hour: hour, Minute: minute}, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// BuildSchedule turns raw time strings into a schedule sorted by time.
// Unknown prayers and unparseable times are left out. When two prayers share
// a minute only the earlier one in daily order is kept, so a minute never
// announces more than one prayer.
func BuildSchedule(raw map[models.PrayerName]string) models.DailySchedule {
	schedule := make(models.DailySchedule, 0, len(raw))
	taken := make(map[models.TimeOfDay]models.PrayerName, len(raw))

	for _, name := range models.AllPrayers {
		value, ok := raw[name]
		if !ok {
			continue
		}
		tod, err := ParseTimeOfDay(value)
		if err != nil {
			continue
		}
		if first, dup := taken[tod]; dup {
			log.Debug().Str("prayer", string(name)).Str("kept", string(first)).Str("time", tod.String()).
				Msg("Dropping prayer sharing a minute with another")
			continue
		}
		taken[tod] = name
		schedule = append(schedule, models.PrayerTime{Name: name, Time: tod})
	}

	sort.SliceStable(schedule, func(i, j int) bool {
		return schedule[i].Time.Minutes() < schedule[j].Time.Minutes()
	})

	return schedule
}

// NextPrayer returns the first prayer starting strictly after now. Once the
// last prayer of the day has passed it wraps to tomorrow's first prayer.
// It returns false only for an empty schedule.
func NextPrayer(schedule models.DailySchedule, now time.Time) (Upcoming, bool) {
	if len(schedule) == 0 {
		return Upcoming{}, false
	}

	for _, p := range schedule {
		at := p.Time.On(now)
		if at.After(now) {
			return Upcoming{Prayer: p, At: at, Countdown: at.Sub(now)}, true
		}
	}

	first := schedule[0]
	at := first.Time.On(now.AddDate(0, 0, 1))
	return Upcoming{Prayer: first, Tomorrow: true, At: at, Countdown: at.Sub(now)}, true
}

// DuePrayer returns the prayer scheduled for now's minute unless it is the
// one that fired last
func DuePrayer(schedule models.DailySchedule, now time.Time, lastFired models.PrayerName) (models.PrayerTime, bool) {
	current := models.TimeOfDayOf(now)

	for _, p := range schedule {
		if p.Time == current && p.Name != lastFired {
			return p, true
		}
	}

	return models.PrayerTime{}, false
}
