package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/borgmon/adzan-reminder/pkg/resolver"
	"github.com/borgmon/adzan-reminder/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSettings = `[location]
id = 1301
name = KOTA JAKARTA
gmt = +7

[adzan]
shubuh = 05:00
dzuhur = 12:15
ashar = 15:30
maghrib = 18:10
isya = 19:30
`

type recorder struct {
	mu     sync.Mutex
	events []string
	states []models.DisplayState
	fired  []models.PrayerName
	muted  []bool
	stops  int
}

func (r *recorder) Publish(state models.DisplayState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "publish")
	r.states = append(r.states, state)
}

func (r *recorder) Dispatch(prayer models.PrayerName, muted bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "dispatch:"+string(prayer))
	r.fired = append(r.fired, prayer)
	r.muted = append(r.muted, muted)
	return !muted
}

func (r *recorder) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
}

type fakeResolver struct {
	mu    sync.Mutex
	times map[models.PrayerName]string
	err   error
	calls []string
}

func (f *fakeResolver) Resolve(ctx context.Context, locationID string, date time.Time) (map[models.PrayerName]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, locationID)
	if f.err != nil {
		return nil, f.err
	}
	return f.times, nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func at(hour, minute, second int) time.Time {
	return time.Date(2026, time.October, 17, hour, minute, second, 0, time.UTC)
}

func newEngine(t *testing.T, content string, opts Options) (*Engine, *recorder, *fakeResolver) {
	t.Helper()
	opts.SettingsPath = filepath.Join(t.TempDir(), "settings.ini")
	if content != "" {
		require.NoError(t, os.WriteFile(opts.SettingsPath, []byte(content), 0o644))
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return at(9, 0, 0) }
	}

	rec := &recorder{}
	res := &fakeResolver{times: map[models.PrayerName]string{
		models.Fajr:    "04:22",
		models.Dhuhr:   "11:40",
		models.Asr:     "14:52",
		models.Maghrib: "17:50",
		models.Isha:    "18:59",
	}}
	return New(opts, rec, rec, res), rec, res
}

func runEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestTickDispatchesOncePerMinute(t *testing.T) {
	e, rec, _ := newEngine(t, sampleSettings, Options{})

	e.Tick(at(12, 15, 30))
	for sec := 31; sec <= 59; sec++ {
		e.Tick(at(12, 15, sec))
	}
	e.Tick(at(12, 16, 0))

	assert.Equal(t, []models.PrayerName{models.Dhuhr}, rec.fired)
	assert.Equal(t, []bool{false}, rec.muted)
	require.Len(t, rec.states, 31)

	assert.Equal(t, []string{"publish", "dispatch:Dhuhr", "publish"}, rec.events[:3])

	last := rec.states[len(rec.states)-1]
	assert.Equal(t, models.Asr, last.Next)
	assert.Equal(t, "Asr 15:30", last.NextLabel)
	assert.Equal(t, "12:16:00", last.Now)
	assert.Equal(t, 3*time.Hour+14*time.Minute, last.Countdown)
}

func TestTickPublishesDisplayState(t *testing.T) {
	e, rec, _ := newEngine(t, sampleSettings+"\n[audio]\nashar_audio = on\n", Options{})

	e.Tick(at(20, 0, 0))

	require.Len(t, rec.states, 1)
	state := rec.states[0]
	assert.True(t, state.Configured)
	assert.Equal(t, "KOTA JAKARTA (GMT+7)", state.Location)
	assert.Equal(t, models.Fajr, state.Next)
	assert.True(t, state.Tomorrow)
	assert.Equal(t, "Fajr 05:00 (tomorrow)", state.NextLabel)
	assert.Equal(t, "15:30", state.Times[models.Asr])
	assert.True(t, state.Muted[models.Asr])
	assert.False(t, state.Muted[models.Isha])
	assert.Equal(t, "Saturday, 17 October 2026", state.CivilDate)
	assert.Equal(t, "5 Jumada al-Ula 1448 AH", state.HijriDate)
	assert.Empty(t, rec.fired)
}

func TestTickMutedPrayerStillMarksFired(t *testing.T) {
	e, rec, _ := newEngine(t, sampleSettings+"\n[audio]\nmaghrib_audio = on\n", Options{})

	e.Tick(at(18, 10, 0))
	e.Tick(at(18, 10, 1))
	e.Tick(at(18, 10, 59))

	assert.Equal(t, []models.PrayerName{models.Maghrib}, rec.fired)
	assert.Equal(t, []bool{true}, rec.muted)
}

func TestTickWithoutSettings(t *testing.T) {
	e, rec, _ := newEngine(t, "", Options{})

	e.Tick(at(12, 15, 0))

	require.Len(t, rec.states, 1)
	assert.False(t, rec.states[0].Configured)
	assert.Equal(t, "No prayer times", rec.states[0].NextLabel)
	assert.Empty(t, rec.fired)
}

func TestTickSkipsCycleOnReadFailure(t *testing.T) {
	e, rec, _ := newEngine(t, "", Options{})
	require.NoError(t, os.Mkdir(e.opts.SettingsPath, 0o755))

	e.Tick(at(12, 15, 0))

	assert.Empty(t, rec.states)
	assert.Empty(t, rec.fired)
}

func TestTickIgnoresUnparseableTimes(t *testing.T) {
	e, rec, _ := newEngine(t, "[adzan]\nshubuh = soon\ndzuhur = 12:15\n", Options{})

	e.Tick(at(5, 0, 0))
	e.Tick(at(12, 15, 0))

	assert.Equal(t, []models.PrayerName{models.Dhuhr}, rec.fired)
}

func TestMarkerResetsAtMidnight(t *testing.T) {
	e, rec, _ := newEngine(t, "[adzan]\nisya = 00:00\n", Options{})

	e.Tick(time.Date(2026, time.October, 17, 0, 0, 5, 0, time.UTC))
	e.Tick(time.Date(2026, time.October, 17, 0, 0, 6, 0, time.UTC))
	e.Tick(time.Date(2026, time.October, 18, 0, 0, 5, 0, time.UTC))

	assert.Equal(t, []models.PrayerName{models.Isha, models.Isha}, rec.fired)
}

func TestSelectLocationKeepsMuteFlags(t *testing.T) {
	e, _, res := newEngine(t, sampleSettings+"\n[audio]\nashar_audio = on\n", Options{KeepMuteOnLocationChange: true})
	runEngine(t, e)

	bandung := models.Location{ID: "1219", Name: "KOTA BANDUNG", GMT: "+7"}
	require.NoError(t, e.SelectLocation(context.Background(), bandung))

	settings, err := store.ReadAll(e.opts.SettingsPath)
	require.NoError(t, err)
	assert.Equal(t, bandung, settings.Location())
	assert.Equal(t, res.times, settings.RawTimes())
	assert.True(t, settings.MuteFlags()[models.Asr])
	assert.Equal(t, []string{"1219"}, res.calls)
}

func TestSelectLocationResetsMuteFlags(t *testing.T) {
	e, _, _ := newEngine(t, sampleSettings+"\n[audio]\nashar_audio = on\n", Options{KeepMuteOnLocationChange: false})
	runEngine(t, e)

	require.NoError(t, e.SelectLocation(context.Background(), models.Location{ID: "1219", Name: "KOTA BANDUNG"}))

	settings, err := store.ReadAll(e.opts.SettingsPath)
	require.NoError(t, err)
	assert.False(t, settings.MuteFlags()[models.Asr])
}

func TestSelectLocationNetworkFailure(t *testing.T) {
	e, _, res := newEngine(t, sampleSettings, Options{})
	res.err = errors.Join(resolver.ErrNetwork, errors.New("timeout"))
	runEngine(t, e)

	err := e.SelectLocation(context.Background(), models.Location{ID: "1219", Name: "KOTA BANDUNG"})
	assert.ErrorIs(t, err, resolver.ErrNetwork)

	data, readErr := os.ReadFile(e.opts.SettingsPath)
	require.NoError(t, readErr)
	assert.Equal(t, sampleSettings, string(data))
}

func TestToggleMuteCommand(t *testing.T) {
	e, _, _ := newEngine(t, sampleSettings, Options{})
	runEngine(t, e)

	muted, err := e.ToggleMute(context.Background(), models.Asr)
	require.NoError(t, err)
	assert.True(t, muted)

	settings, err := store.ReadAll(e.opts.SettingsPath)
	require.NoError(t, err)
	assert.True(t, settings.MuteFlags()[models.Asr])

	muted, err = e.ToggleMute(context.Background(), models.Asr)
	require.NoError(t, err)
	assert.False(t, muted)

	data, err := os.ReadFile(e.opts.SettingsPath)
	require.NoError(t, err)
	assert.Equal(t, sampleSettings+"\n[audio]\nashar_audio = off\n", string(data))
}

func TestCommandWithoutRunRespectsContext(t *testing.T) {
	e, _, _ := newEngine(t, sampleSettings, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.ToggleMute(ctx, models.Asr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStopPlayback(t *testing.T) {
	e, rec, _ := newEngine(t, sampleSettings, Options{})

	e.StopPlayback()
	assert.Equal(t, 1, rec.stops)
}

func TestRunTicksAndRefreshesDaily(t *testing.T) {
	e, rec, res := newEngine(t, sampleSettings, Options{DailyRefresh: true, Interval: 10 * time.Millisecond})
	runEngine(t, e)

	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.states) >= 3
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		settings, err := store.ReadAll(e.opts.SettingsPath)
		return err == nil && settings.RawTimes()[models.Fajr] == "04:22"
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, res.callCount())
}

func TestTickSharedMinuteFiresOnce(t *testing.T) {
	content := `[adzan]
shubuh = 05:00
dzuhur = 12:15
ashar = 12:15
`
	e, rec, _ := newEngine(t, content, Options{})

	for sec := 0; sec < 60; sec++ {
		e.Tick(at(12, 15, sec))
	}

	assert.Equal(t, []models.PrayerName{models.Dhuhr}, rec.fired)
}

// gatedResolver holds lookups for one location until release is closed
type gatedResolver struct {
	fakeResolver
	gateID  string
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedResolver) Resolve(ctx context.Context, locationID string, date time.Time) (map[models.PrayerName]string, error) {
	if locationID == g.gateID {
		g.once.Do(func() { close(g.started) })
		<-g.release
	}
	return g.fakeResolver.Resolve(ctx, locationID, date)
}

func TestRefreshQueuedBehindSelectionKeepsNewLocation(t *testing.T) {
	content := `[location]
id = A
name = OLD
gmt = +7

[adzan]
shubuh = 05:00
`
	e, _, base := newEngine(t, content, Options{DailyRefresh: true})
	res := &gatedResolver{
		fakeResolver: fakeResolver{times: base.times},
		gateID:       "B",
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	e.resolver = res

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.commandLoop(ctx)

	selected := make(chan error, 1)
	go func() {
		selected <- e.SelectLocation(ctx, models.Location{ID: "B", Name: "NEW", GMT: "+8"})
	}()
	<-res.started

	e.maybeRefresh(ctx, at(9, 0, 0))
	close(res.release)

	require.NoError(t, <-selected)
	select {
	case result := <-e.refreshDone:
		require.NoError(t, result.err)
	case <-time.After(time.Second):
		t.Fatal("refresh did not finish")
	}

	settings, err := store.ReadAll(e.opts.SettingsPath)
	require.NoError(t, err)
	assert.Equal(t, "B", settings.Location().ID)
	assert.Equal(t, "NEW", settings.Location().Name)
	assert.Equal(t, []string{"B", "B"}, res.calls)
}

func TestRefreshWithoutLocationRetriesLater(t *testing.T) {
	e, _, res := newEngine(t, "[adzan]\nshubuh = 05:00\n", Options{DailyRefresh: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.commandLoop(ctx)

	e.maybeRefresh(ctx, at(9, 0, 0))
	result := <-e.refreshDone
	assert.ErrorIs(t, result.err, errNoLocation)
	e.refresh.finish(result)

	e.maybeRefresh(ctx, at(9, 1, 0))
	assert.False(t, e.refresh.pending)
	assert.Equal(t, 0, res.callCount())
}
