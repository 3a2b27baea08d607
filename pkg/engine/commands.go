package engine

import (
	"context"
	"errors"
	"time"

	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/borgmon/adzan-reminder/pkg/store"
	"github.com/rs/zerolog/log"
)

// command is a user action executed on the command loop, one at a time
type command struct {
	ctx   context.Context
	run   func(ctx context.Context) error
	reply chan error
}

func (e *Engine) commandLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-e.commands:
			cmd.reply <- cmd.run(cmd.ctx)
		}
	}
}

// submit hands fn to the command loop and waits for its result
func (e *Engine) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	cmd := command{ctx: ctx, run: fn, reply: make(chan error, 1)}

	select {
	case e.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SelectLocation resolves today's prayer times for loc and persists them.
// Mute flags are carried over when KeepMuteOnLocationChange is set.
func (e *Engine) SelectLocation(ctx context.Context, loc models.Location) error {
	return e.submit(ctx, func(ctx context.Context) error {
		return e.resolveAndStore(ctx, loc, e.opts.KeepMuteOnLocationChange)
	})
}

// ToggleMute flips the mute flag of prayer and returns whether it is now muted
func (e *Engine) ToggleMute(ctx context.Context, prayer models.PrayerName) (bool, error) {
	var muted bool
	err := e.submit(ctx, func(ctx context.Context) error {
		value, err := store.ToggleMute(e.opts.SettingsPath, prayer)
		if err != nil {
			return err
		}
		muted = value == store.MuteOn
		return nil
	})
	return muted, err
}

// StopPlayback silences every adhan currently playing
func (e *Engine) StopPlayback() {
	e.notifier.StopAll()
}

func (e *Engine) resolveAndStore(ctx context.Context, loc models.Location, keepFlags bool) error {
	times, err := e.resolver.Resolve(ctx, loc.ID, e.opts.Clock())
	if err != nil {
		log.Error().Err(err).Str("location", loc.Name).Msg("Failed to resolve prayer times")
		return err
	}

	var flags models.MuteFlags
	if keepFlags {
		current, err := store.ReadAll(e.opts.SettingsPath)
		switch {
		case err == nil:
			flags = current.MuteFlags()
		case !errors.Is(err, store.ErrNotFound):
			log.Warn().Err(err).Msg("Could not read current mute flags, resetting them")
		}
	}

	return store.WriteFullWithFlags(e.opts.SettingsPath, loc, times, flags)
}

const refreshRetry = 5 * time.Minute

var errNoLocation = errors.New("no location selected")

type refreshResult struct {
	day time.Time
	err error
}

// refreshState tracks the daily re-resolution of prayer times. Owned by the tick loop.
type refreshState struct {
	done        time.Time // day of the last successful refresh
	lastAttempt time.Time
	pending     bool
}

func (r *refreshState) finish(res refreshResult) {
	r.pending = false
	if res.err == nil {
		r.done = res.day
	}
}

// maybeRefresh re-resolves prayer times once per day for the stored location.
// The lookup runs on its own goroutine so the tick is never blocked.
func (e *Engine) maybeRefresh(ctx context.Context, now time.Time) {
	if e.refresh.pending || sameDay(now, e.refresh.done) {
		return
	}
	if !e.refresh.lastAttempt.IsZero() && now.Sub(e.refresh.lastAttempt) < refreshRetry {
		return
	}

	e.refresh.pending = true
	e.refresh.lastAttempt = now

	go func() {
		err := e.submit(ctx, e.refreshStored)
		select {
		case e.refreshDone <- refreshResult{day: now, err: err}:
		case <-ctx.Done():
		}
	}()
}

// refreshStored runs on the command loop, so it sees the location written by
// any selection queued ahead of it
func (e *Engine) refreshStored(ctx context.Context) error {
	settings, err := store.ReadAll(e.opts.SettingsPath)
	if err != nil {
		return err
	}
	loc := settings.Location()
	if loc.ID == "" {
		return errNoLocation
	}

	if err := e.resolveAndStore(ctx, loc, true); err != nil {
		return err
	}
	log.Info().Str("location", loc.Name).Msg("Prayer times refreshed for today")
	return nil
}
