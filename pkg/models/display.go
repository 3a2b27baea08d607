package models

import "time"

// DisplayState is everything the presentation layer shows, published once per tick
type DisplayState struct {
	Now        string // HH:MM:SS
	NextLabel  string
	Next       PrayerName
	Tomorrow   bool          // next prayer is tomorrow's first prayer
	Countdown  time.Duration // time left until Next
	Location   string
	Times      map[PrayerName]string // raw time strings as stored
	Muted      map[PrayerName]bool
	CivilDate  string
	HijriDate  string
	Configured bool // a settings file exists
}
