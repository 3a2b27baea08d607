package store

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/borgmon/adzan-reminder/pkg/schedule"
	"github.com/rs/zerolog/log"
)

// Section names of the settings file
const (
	SectionLocation = "location"
	SectionAdzan    = "adzan"
	SectionAudio    = "audio"
)

const (
	MuteOn  = "on"
	MuteOff = "off"
)

var (
	// ErrNotFound is returned when the settings file does not exist yet
	ErrNotFound = errors.New("settings not found")
	// ErrIO wraps read and write failures against the settings file
	ErrIO = errors.New("settings i/o failure")
)

var knownSections = map[string]bool{
	SectionLocation: true,
	SectionAdzan:    true,
	SectionAudio:    true,
}

// Settings is a snapshot of the settings file: section -> key -> raw value
type Settings struct {
	Values map[string]map[string]string
}

// Get returns the raw value of key in section
func (s *Settings) Get(section, key string) string {
	if s == nil || s.Values == nil {
		return ""
	}
	return s.Values[section][key]
}

// Location returns the configured location
func (s *Settings) Location() models.Location {
	return models.Location{
		ID:   s.Get(SectionLocation, "id"),
		Name: s.Get(SectionLocation, "name"),
		GMT:  s.Get(SectionLocation, "gmt"),
	}
}

// RawTimes returns the stored time strings of every prayer present in the file
func (s *Settings) RawTimes() map[models.PrayerName]string {
	times := make(map[models.PrayerName]string)
	for _, p := range models.AllPrayers {
		if v := s.Get(SectionAdzan, p.SettingsKey()); v != "" {
			times[p] = v
		}
	}
	return times
}

// Schedule parses the stored times, skipping entries that fail to parse
func (s *Settings) Schedule() models.DailySchedule {
	return schedule.BuildSchedule(s.RawTimes())
}

// MuteFlags returns the mute state of all five prayers
func (s *Settings) MuteFlags() models.MuteFlags {
	flags := make(models.MuteFlags, len(models.AllPrayers))
	for _, p := range models.AllPrayers {
		flags[p] = s.Get(SectionAudio, p.MuteKey()) == MuteOn
	}
	return flags
}

// ReadAll parses the settings file at path
func ReadAll(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}
	return Parse(data), nil
}

// Parse reads section-delimited key = value text. Unknown sections, comments
// and lines without a separator are skipped.
func Parse(data []byte) *Settings {
	settings := &Settings{Values: make(map[string]map[string]string)}
	section := ""
	skipped := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if name, ok := sectionName(line); ok {
			section = name
			continue
		}

		if !knownSections[section] {
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			skipped++
			continue
		}

		if settings.Values[section] == nil {
			settings.Values[section] = make(map[string]string)
		}
		settings.Values[section][key] = value
	}

	if skipped > 0 {
		log.Debug().Int("skipped", skipped).Msg("Skipped malformed settings lines")
	}

	return settings
}

// WriteFull replaces the settings file with the location and time sections.
// Mute flags already in the file are dropped.
func WriteFull(path string, loc models.Location, times map[models.PrayerName]string) error {
	return WriteFullWithFlags(path, loc, times, nil)
}

// WriteFullWithFlags replaces the settings file like WriteFull and also writes
// an [audio] section holding every muted prayer in flags
func WriteFullWithFlags(path string, loc models.Location, times map[models.PrayerName]string, flags models.MuteFlags) error {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s]\n", SectionLocation)
	fmt.Fprintf(&b, "id = %s\n", loc.ID)
	fmt.Fprintf(&b, "name = %s\n", loc.Name)
	fmt.Fprintf(&b, "gmt = %s\n", loc.GMT)

	fmt.Fprintf(&b, "\n[%s]\n", SectionAdzan)
	for _, p := range models.AllPrayers {
		fmt.Fprintf(&b, "%s = %s\n", p.SettingsKey(), times[p])
	}

	muted := []models.PrayerName{}
	for _, p := range models.AllPrayers {
		if flags[p] {
			muted = append(muted, p)
		}
	}
	if len(muted) > 0 {
		fmt.Fprintf(&b, "\n[%s]\n", SectionAudio)
		for _, p := range muted {
			fmt.Fprintf(&b, "%s = %s\n", p.MuteKey(), MuteOn)
		}
	}

	if err := writeAtomic(path, []byte(b.String())); err != nil {
		return err
	}

	log.Info().Str("path", path).Str("location", loc.Name).Int("muted", len(muted)).Msg("Settings written")
	return nil
}

// ToggleMute flips the mute flag of prayer in place and returns the new value.
// All other lines of the file are kept byte-identical.
func ToggleMute(path string, prayer models.PrayerName) (string, error) {
	if !prayer.Valid() {
		return "", fmt.Errorf("unknown prayer %q", prayer)
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}

	updated, value := toggleLines(string(data), prayer.MuteKey())

	if err := writeAtomic(path, []byte(updated)); err != nil {
		return "", err
	}

	log.Info().Str("prayer", string(prayer)).Str("value", value).Msg("Mute flag toggled")
	return value, nil
}

// toggleLines performs the line-level rewrite behind ToggleMute
func toggleLines(content, key string) (string, string) {
	lines := strings.Split(content, "\n")
	// A trailing newline leaves an empty final element which is not a line
	trailingNewline := strings.HasSuffix(content, "\n")
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}
	if content == "" {
		lines = nil
	}

	section := ""
	sectionFound := false
	lastInSection := -1 // index of the last non-blank line of the audio section

	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		if name, ok := sectionName(line); ok {
			section = name
			if name == SectionAudio {
				sectionFound = true
				lastInSection = i
			}
			continue
		}

		if section != SectionAudio {
			continue
		}
		if line != "" {
			lastInSection = i
		}

		k, v, ok := splitKeyValue(line)
		if !ok || k != key {
			continue
		}

		value := MuteOn
		if v == MuteOn {
			value = MuteOff
		}
		lines[i] = keepCarriageReturn(raw, fmt.Sprintf("%s = %s", key, value))
		return joinLines(lines, trailingNewline), value
	}

	entry := fmt.Sprintf("%s = %s", key, MuteOn)

	if sectionFound {
		lines = append(lines[:lastInSection+1], append([]string{entry}, lines[lastInSection+1:]...)...)
		return joinLines(lines, trailingNewline), MuteOn
	}

	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
		lines = append(lines, "")
	}
	lines = append(lines, "["+SectionAudio+"]", entry)
	return joinLines(lines, true), MuteOn
}

func joinLines(lines []string, trailingNewline bool) string {
	out := strings.Join(lines, "\n")
	if trailingNewline && len(lines) > 0 {
		out += "\n"
	}
	return out
}

func keepCarriageReturn(original, replacement string) string {
	if strings.HasSuffix(original, "\r") {
		return replacement + "\r"
	}
	return replacement
}

func sectionName(line string) (string, bool) {
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(line[1 : len(line)-1])), true
}

func splitKeyValue(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// writeAtomic writes data next to path and renames it over path
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrIO, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", ErrIO, path, err)
	}
	return nil
}
