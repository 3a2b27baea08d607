package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssets struct {
	missing map[models.PrayerName]bool
}

func (f fakeAssets) Lookup(prayer models.PrayerName) ([]byte, error) {
	if f.missing[prayer] {
		return nil, errors.New("asset missing")
	}
	return []byte(prayer), nil
}

type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	block   bool // wait for ctx instead of returning immediately
	err     error
	started chan struct{}
}

func (f *fakePlayer) Play(ctx context.Context, wavData []byte) error {
	f.mu.Lock()
	f.played = append(f.played, string(wavData))
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block {
		<-ctx.Done()
		return nil
	}
	return f.err
}

func (f *fakePlayer) plays() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.played...)
}

func TestDispatchMutedDoesNothing(t *testing.T) {
	player := &fakePlayer{}
	d := NewDispatcher(player, fakeAssets{}, time.Second)

	assert.False(t, d.Dispatch(models.Asr, true))
	d.Wait()

	assert.Empty(t, player.plays())
	assert.Equal(t, 0, d.Active())
}

func TestDispatchPlaysAsset(t *testing.T) {
	player := &fakePlayer{}
	d := NewDispatcher(player, fakeAssets{}, time.Second)

	assert.True(t, d.Dispatch(models.Fajr, false))
	assert.True(t, d.Dispatch(models.Dhuhr, false))
	d.Wait()

	assert.ElementsMatch(t, []string{"Fajr", "Dhuhr"}, player.plays())
	assert.Equal(t, 0, d.Active())
}

func TestDispatchDoesNotBlockAndStopsAtCeiling(t *testing.T) {
	player := &fakePlayer{block: true}
	d := NewDispatcher(player, fakeAssets{}, 50*time.Millisecond)

	start := time.Now()
	require.True(t, d.Dispatch(models.Maghrib, false))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	d.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 0, d.Active())
}

func TestStopAllCancelsSessions(t *testing.T) {
	player := &fakePlayer{block: true, started: make(chan struct{}, 2)}
	d := NewDispatcher(player, fakeAssets{}, time.Hour)

	d.Dispatch(models.Asr, false)
	d.Dispatch(models.Isha, false)
	<-player.started
	<-player.started
	assert.Equal(t, 2, d.Active())

	d.StopAll()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sessions did not stop")
	}
	assert.Equal(t, 0, d.Active())
}

func TestDispatchFailuresAreSwallowed(t *testing.T) {
	player := &fakePlayer{err: errors.New("device unavailable")}
	d := NewDispatcher(player, fakeAssets{missing: map[models.PrayerName]bool{models.Isha: true}}, time.Second)

	assert.True(t, d.Dispatch(models.Isha, false))
	assert.True(t, d.Dispatch(models.Asr, false))
	d.Wait()

	assert.Equal(t, []string{"Asr"}, player.plays())
	assert.Equal(t, 0, d.Active())
}
