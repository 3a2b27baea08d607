package models

import "time"

const (
	DefaultResolverURL     = "https://api.myquran.com/v2"
	DefaultPlaybackSeconds = 240
	DefaultSettingsFile    = "settings.ini"
)

// Config holds application configuration
type Config struct {
	AutoStart                bool   `json:"auto_start"`
	SettingsPath             string `json:"settings_path"`                // path of the settings file
	ResolverURL              string `json:"resolver_url"`                 // prayer time service base URL
	AudioDir                 string `json:"audio_dir"`                    // optional directory overriding bundled adhan audio
	PlaybackSeconds          int    `json:"playback_seconds"`             // playback ceiling
	KeepMuteOnLocationChange bool   `json:"keep_mute_on_location_change"` // carry mute flags across location changes
	LogLevel                 string `json:"log_level"`
}

// NeedsConfiguration returns true if the config cannot locate a settings file
func (c *Config) NeedsConfiguration() bool {
	return c.SettingsPath == ""
}

// PlaybackCeiling returns the maximum length of one adhan playback
func (c *Config) PlaybackCeiling() time.Duration {
	if c.PlaybackSeconds <= 0 {
		return DefaultPlaybackSeconds * time.Second
	}
	return time.Duration(c.PlaybackSeconds) * time.Second
}
