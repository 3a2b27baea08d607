package audio

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/borgmon/adzan-reminder/pkg/models"
)

//go:embed assets/*.wav
var bundled embed.FS

const (
	fajrAsset    = "adhan_fajr.wav"
	defaultAsset = "adhan.wav"
)

// Assets resolves the adhan recording for a prayer. Fajr has its own
// recording, the other four share one.
type Assets struct {
	Dir string // optional directory overriding the bundled recordings
}

// AssetName returns the file name of the recording used for prayer
func AssetName(prayer models.PrayerName) string {
	if prayer == models.Fajr {
		return fajrAsset
	}
	return defaultAsset
}

// Lookup returns the WAV data for prayer
func (a Assets) Lookup(prayer models.PrayerName) ([]byte, error) {
	name := AssetName(prayer)

	if a.Dir != "" {
		data, err := os.ReadFile(filepath.Join(a.Dir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPlayback, err)
		}
		return data, nil
	}

	data, err := bundled.ReadFile("assets/" + name)
	if err != nil {
		return nil, fmt.Errorf("%w: bundled asset %s: %v", ErrPlayback, name, err)
	}
	return data, nil
}
