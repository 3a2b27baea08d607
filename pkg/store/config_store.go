package store

import (
	"os"
	"path/filepath"
	"strconv"

	"fyne.io/fyne/v2"
	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/rs/zerolog/log"
)

// Environment variables overriding stored preferences
const (
	EnvSettingsPath    = "ADZAN_SETTINGS_PATH"
	EnvResolverURL     = "ADZAN_RESOLVER_URL"
	EnvAudioDir        = "ADZAN_AUDIO_DIR"
	EnvPlaybackSeconds = "ADZAN_PLAYBACK_SECONDS"
	EnvLogLevel        = "ADZAN_LOG_LEVEL"
)

// Preference keys
const (
	prefAutoStart       = "auto_start"
	prefSettingsPath    = "settings_path"
	prefResolverURL     = "resolver_url"
	prefAudioDir        = "audio_dir"
	prefPlaybackSeconds = "playback_seconds"
	prefKeepMute        = "keep_mute_on_location_change"
	prefLogLevel        = "log_level"
)

// ConfigStore handles configuration persistence using Fyne preferences.
// Values coming from the environment are never written back.
type ConfigStore struct {
	app fyne.App
	env map[string]bool // preference keys overridden by the environment on the last Load
}

// NewConfigStore creates a new ConfigStore instance
func NewConfigStore(app fyne.App) *ConfigStore {
	return &ConfigStore{app: app}
}

// Load loads configuration from preferences and applies environment overrides
func (cs *ConfigStore) Load() *models.Config {
	prefs := cs.app.Preferences()

	config := &models.Config{
		AutoStart:                prefs.BoolWithFallback(prefAutoStart, false),
		SettingsPath:             prefs.StringWithFallback(prefSettingsPath, cs.defaultSettingsPath()),
		ResolverURL:              prefs.StringWithFallback(prefResolverURL, models.DefaultResolverURL),
		AudioDir:                 prefs.String(prefAudioDir),
		PlaybackSeconds:          prefs.IntWithFallback(prefPlaybackSeconds, models.DefaultPlaybackSeconds),
		KeepMuteOnLocationChange: prefs.BoolWithFallback(prefKeepMute, true),
		LogLevel:                 prefs.StringWithFallback(prefLogLevel, "info"),
	}

	cs.env = ApplyEnv(config)

	return config
}

// Save saves configuration to preferences, skipping fields the environment
// overrode on the last Load
func (cs *ConfigStore) Save(config *models.Config) {
	prefs := cs.app.Preferences()

	prefs.SetBool(prefAutoStart, config.AutoStart)
	prefs.SetBool(prefKeepMute, config.KeepMuteOnLocationChange)

	setString := func(key, value string) {
		if !cs.env[key] {
			prefs.SetString(key, value)
		}
	}
	setString(prefSettingsPath, config.SettingsPath)
	setString(prefResolverURL, config.ResolverURL)
	setString(prefAudioDir, config.AudioDir)
	setString(prefLogLevel, config.LogLevel)

	if !cs.env[prefPlaybackSeconds] {
		prefs.SetInt(prefPlaybackSeconds, config.PlaybackSeconds)
	}
}

func (cs *ConfigStore) defaultSettingsPath() string {
	if storage := cs.app.Storage(); storage != nil && storage.RootURI() != nil {
		return filepath.Join(storage.RootURI().Path(), models.DefaultSettingsFile)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "adzan-reminder", models.DefaultSettingsFile)
	}
	return models.DefaultSettingsFile
}

// ApplyEnv overrides config fields with any ADZAN_* variables set in the
// environment and returns the preference keys it replaced
func ApplyEnv(config *models.Config) map[string]bool {
	overridden := make(map[string]bool)

	if v := os.Getenv(EnvSettingsPath); v != "" {
		config.SettingsPath = v
		overridden[prefSettingsPath] = true
	}
	if v := os.Getenv(EnvResolverURL); v != "" {
		config.ResolverURL = v
		overridden[prefResolverURL] = true
	}
	if v := os.Getenv(EnvAudioDir); v != "" {
		config.AudioDir = v
		overridden[prefAudioDir] = true
	}
	if v := os.Getenv(EnvPlaybackSeconds); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			config.PlaybackSeconds = seconds
			overridden[prefPlaybackSeconds] = true
		} else {
			log.Warn().Str("value", v).Msg("Ignoring invalid " + EnvPlaybackSeconds)
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
		overridden[prefLogLevel] = true
	}

	return overridden
}
