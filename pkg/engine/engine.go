package engine

import (
	"context"
	"errors"
	"time"

	"github.com/borgmon/adzan-reminder/pkg/calendar"
	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/borgmon/adzan-reminder/pkg/schedule"
	"github.com/borgmon/adzan-reminder/pkg/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Publisher receives the display state once per tick
type Publisher interface {
	Publish(state models.DisplayState)
}

// Notifier announces a due prayer
type Notifier interface {
	Dispatch(prayer models.PrayerName, muted bool) bool
	StopAll()
}

// TimeResolver looks up the five prayer times of a location for a date
type TimeResolver interface {
	Resolve(ctx context.Context, locationID string, date time.Time) (map[models.PrayerName]string, error)
}

// Options configures an Engine
type Options struct {
	SettingsPath             string
	KeepMuteOnLocationChange bool
	DailyRefresh             bool          // re-resolve prayer times when the day changes
	Interval                 time.Duration // tick period, one second when zero
	Clock                    func() time.Time
}

// Engine drives the once-per-second tick and executes user commands
type Engine struct {
	opts      Options
	publisher Publisher
	notifier  Notifier
	resolver  TimeResolver

	// Owned by the tick loop
	marker       schedule.FiredMarker
	unconfigured bool
	day          time.Time
	civilDate    string
	hijriDate    string
	refresh      refreshState

	commands    chan command
	refreshDone chan refreshResult
}

// New creates an Engine. Run must be called for ticks and commands to be processed.
func New(opts Options, publisher Publisher, notifier Notifier, resolver TimeResolver) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	e := &Engine{
		opts:        opts,
		publisher:   publisher,
		notifier:    notifier,
		resolver:    resolver,
		commands:    make(chan command),
		refreshDone: make(chan refreshResult, 1),
	}
	e.updateDates(opts.Clock())

	return e
}

// Run processes ticks and commands until ctx is cancelled
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.tickLoop(ctx)
		return nil
	})
	g.Go(func() error {
		e.commandLoop(ctx)
		return nil
	})

	log.Info().Str("settings", e.opts.SettingsPath).Dur("interval", e.opts.Interval).Msg("Prayer engine started")
	err := g.Wait()
	log.Info().Msg("Prayer engine stopped")
	return err
}

func (e *Engine) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	e.step(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-e.refreshDone:
			e.refresh.finish(res)
		case <-ticker.C:
			e.step(ctx)
		}
	}
}

func (e *Engine) step(ctx context.Context) {
	now := e.opts.Clock()
	e.Tick(now)
	if e.opts.DailyRefresh {
		e.maybeRefresh(ctx, now)
	}
}

// Tick runs one scheduler cycle for now: read settings, compute the next and
// due prayers, publish display state, then dispatch a due prayer
func (e *Engine) Tick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic in tick")
		}
	}()

	if !sameDay(now, e.day) {
		e.updateDates(now)
	}

	settings, ok := e.readSettings()
	if !ok {
		return
	}

	daily := settings.Schedule()
	flags := settings.MuteFlags()

	next, hasNext := schedule.NextPrayer(daily, now)
	due, isDue := schedule.DuePrayer(daily, now, e.marker.Last(now))

	e.publisher.Publish(e.displayState(now, settings, flags, next, hasNext))

	if isDue {
		e.marker.Mark(due.Name, now)
		e.notifier.Dispatch(due.Name, flags[due.Name])
	}
}

// readSettings loads the settings file. A missing file yields an empty
// snapshot; any other failure skips the cycle.
func (e *Engine) readSettings() (*store.Settings, bool) {
	settings, err := store.ReadAll(e.opts.SettingsPath)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if !e.unconfigured {
			log.Warn().Str("path", e.opts.SettingsPath).Msg("No settings yet, select a location")
			e.unconfigured = true
		}
		return &store.Settings{}, true
	case err != nil:
		log.Error().Err(err).Msg("Failed to read settings, skipping tick")
		return nil, false
	}

	if e.unconfigured {
		log.Info().Str("path", e.opts.SettingsPath).Msg("Settings found")
		e.unconfigured = false
	}
	return settings, true
}

func (e *Engine) displayState(now time.Time, settings *store.Settings, flags models.MuteFlags, next schedule.Upcoming, hasNext bool) models.DisplayState {
	state := models.DisplayState{
		Now:        now.Format("15:04:05"),
		NextLabel:  "No prayer times",
		Location:   settings.Location().String(),
		Times:      settings.RawTimes(),
		Muted:      flags,
		CivilDate:  e.civilDate,
		HijriDate:  e.hijriDate,
		Configured: !e.unconfigured,
	}

	if hasNext {
		state.Next = next.Prayer.Name
		state.NextLabel = next.Label()
		state.Tomorrow = next.Tomorrow
		state.Countdown = next.Countdown
	}

	return state
}

func (e *Engine) updateDates(now time.Time) {
	e.day = now
	e.civilDate = calendar.CivilDate(now)
	e.hijriDate = calendar.ToHijri(now).String()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
