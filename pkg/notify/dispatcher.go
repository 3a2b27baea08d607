package notify

import (
	"context"
	"sync"
	"time"

	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AudioPlayer plays WAV data until it ends or ctx is done
type AudioPlayer interface {
	Play(ctx context.Context, wavData []byte) error
}

// AssetSource resolves the adhan recording for a prayer
type AssetSource interface {
	Lookup(prayer models.PrayerName) ([]byte, error)
}

// Dispatcher turns due prayers into bounded, independent playback sessions
type Dispatcher struct {
	player  AudioPlayer
	assets  AssetSource
	ceiling time.Duration

	mu       sync.Mutex
	sessions map[string]context.CancelFunc
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher whose sessions last at most ceiling
func NewDispatcher(player AudioPlayer, assets AssetSource, ceiling time.Duration) *Dispatcher {
	return &Dispatcher{
		player:   player,
		assets:   assets,
		ceiling:  ceiling,
		sessions: make(map[string]context.CancelFunc),
	}
}

// Dispatch announces prayer unless it is muted. Playback runs in its own
// goroutine; the return value reports whether a session was started.
func (d *Dispatcher) Dispatch(prayer models.PrayerName, muted bool) bool {
	if muted {
		log.Info().Str("prayer", string(prayer)).Msg("Prayer due, adhan muted")
		return false
	}

	sessionID := uuid.New().String()
	ctx, cancel := context.WithTimeout(context.Background(), d.ceiling)

	d.mu.Lock()
	d.sessions[sessionID] = cancel
	d.mu.Unlock()

	d.wg.Add(1)
	go d.play(ctx, sessionID, prayer)

	log.Info().Str("prayer", string(prayer)).Str("session", sessionID).Dur("ceiling", d.ceiling).Msg("Adhan started")
	return true
}

func (d *Dispatcher) play(ctx context.Context, sessionID string, prayer models.PrayerName) {
	defer d.wg.Done()
	defer d.release(sessionID)

	logger := log.With().Str("prayer", string(prayer)).Str("session", sessionID).Logger()

	data, err := d.assets.Lookup(prayer)
	if err != nil {
		logger.Error().Err(err).Msg("Adhan asset unavailable")
		return
	}

	started := time.Now()
	if err := d.player.Play(ctx, data); err != nil {
		logger.Error().Err(err).Msg("Adhan playback failed")
		return
	}

	logger.Info().Dur("elapsed", time.Since(started)).Msg("Adhan finished")
}

func (d *Dispatcher) release(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cancel, ok := d.sessions[sessionID]; ok {
		cancel()
		delete(d.sessions, sessionID)
	}
}

// Active returns the number of live playback sessions
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// StopAll cancels every live playback session
func (d *Dispatcher) StopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, cancel := range d.sessions {
		cancel()
	}
	if len(d.sessions) > 0 {
		log.Info().Int("sessions", len(d.sessions)).Msg("Adhan playback stopped")
	}
}

// Wait blocks until all playback sessions have ended
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
