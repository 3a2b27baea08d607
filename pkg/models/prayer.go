package models

import (
	"fmt"
	"strings"
	"time"
)

// PrayerName identifies one of the five daily prayers
type PrayerName string

const (
	Fajr    PrayerName = "Fajr"
	Dhuhr   PrayerName = "Dhuhr"
	Asr     PrayerName = "Asr"
	Maghrib PrayerName = "Maghrib"
	Isha    PrayerName = "Isha"
)

// AllPrayers lists the prayers in their usual daily order
var AllPrayers = []PrayerName{Fajr, Dhuhr, Asr, Maghrib, Isha}

var settingsKeys = map[PrayerName]string{
	Fajr:    "shubuh",
	Dhuhr:   "dzuhur",
	Asr:     "ashar",
	Maghrib: "maghrib",
	Isha:    "isya",
}

// SettingsKey returns the key used for this prayer in the [adzan] section
func (p PrayerName) SettingsKey() string {
	return settingsKeys[p]
}

// MuteKey returns the key used for this prayer in the [audio] section
func (p PrayerName) MuteKey() string {
	return settingsKeys[p] + "_audio"
}

// Valid reports whether p is one of the five known prayers
func (p PrayerName) Valid() bool {
	_, ok := settingsKeys[p]
	return ok
}

// PrayerFromSettingsKey maps a settings key (e.g. "ashar") back to its prayer
func PrayerFromSettingsKey(key string) (PrayerName, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for name, k := range settingsKeys {
		if k == key {
			return name, true
		}
	}
	return "", false
}

// TimeOfDay is a wall-clock hour and minute, 24h
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String formats the time as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the number of minutes since midnight
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On returns the instant this time of day falls on for the given date
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// TimeOfDayOf extracts the hour and minute of t
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// PrayerTime is a single entry of a daily schedule
type PrayerTime struct {
	Name PrayerName
	Time TimeOfDay
}

// DailySchedule holds the day's prayers sorted by time ascending
type DailySchedule []PrayerTime

// Location is the place prayer times are resolved for
type Location struct {
	ID   string // identifier understood by the prayer time service
	Name string // display name
	GMT  string // signed offset, e.g. "+7"
}

// IsZero reports whether no location has been configured
func (l Location) IsZero() bool {
	return l.ID == "" && l.Name == ""
}

func (l Location) String() string {
	if l.IsZero() {
		return ""
	}
	if l.GMT == "" {
		return l.Name
	}
	gmt := l.GMT
	if !strings.HasPrefix(gmt, "+") && !strings.HasPrefix(gmt, "-") {
		gmt = "+" + gmt
	}
	return fmt.Sprintf("%s (GMT%s)", l.Name, gmt)
}

// MuteFlags maps a prayer to whether its adhan is muted. Absent means unmuted.
type MuteFlags map[PrayerName]bool
