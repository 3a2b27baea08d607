package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/borgmon/adzan-reminder/pkg/audio"
	"github.com/borgmon/adzan-reminder/pkg/calendar"
	"github.com/borgmon/adzan-reminder/pkg/engine"
	"github.com/borgmon/adzan-reminder/pkg/location"
	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/borgmon/adzan-reminder/pkg/notify"
	"github.com/borgmon/adzan-reminder/pkg/platform"
	"github.com/borgmon/adzan-reminder/pkg/resolver"
	"github.com/borgmon/adzan-reminder/pkg/store"
	"github.com/borgmon/adzan-reminder/pkg/ui"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type AdzanReminder struct {
	app         fyne.App
	config      *models.Config
	configStore *store.ConfigStore
	dispatcher  *notify.Dispatcher
	engine      *engine.Engine
	window      *ui.MainWindow
	cancel      context.CancelFunc
	done        chan struct{}
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	ar := &AdzanReminder{
		app:  app.NewWithID("io.github.borgmon.adzan-reminder"),
		done: make(chan struct{}),
	}

	if err := ar.initialize(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	ar.run()
}

func (ar *AdzanReminder) initialize() error {
	ar.configStore = store.NewConfigStore(ar.app)
	ar.config = ar.configStore.Load()
	setupLogging(ar.config.LogLevel)

	if ar.config.NeedsConfiguration() {
		return fmt.Errorf("no settings path configured, set %s", store.EnvSettingsPath)
	}

	// Sync autostart state with config on startup
	if err := platform.SetupAutostart(ar.config.AutoStart); err != nil {
		log.Warn().Err(err).Msg("Failed to setup autostart")
	}

	ar.configStore.Save(ar.config)

	ar.dispatcher = notify.NewDispatcher(
		audio.NewPlayer(),
		audio.Assets{Dir: ar.config.AudioDir},
		ar.config.PlaybackCeiling(),
	)

	ar.engine = engine.New(engine.Options{
		SettingsPath:             ar.config.SettingsPath,
		KeepMuteOnLocationChange: ar.config.KeepMuteOnLocationChange,
		DailyRefresh:             true,
	}, ar, ar.dispatcher, resolver.NewClient(ar.config.ResolverURL, nil))

	tray := ui.NewSystemTray(ar.app, ui.TrayActions{
		Show:   func() { ar.window.Show() },
		Stop:   ar.engine.StopPlayback,
		Export: ar.exportToday,
		Quit:   ar.quit,
	})
	ar.window = ui.NewMainWindow(ar.app, ar.engine, location.Default(), tray)

	log.Info().Str("settings", ar.config.SettingsPath).Str("resolver", ar.config.ResolverURL).Msg("Configuration loaded")
	return nil
}

// Publish forwards display state from the engine to the window
func (ar *AdzanReminder) Publish(state models.DisplayState) {
	ar.window.Publish(state)
}

func (ar *AdzanReminder) run() {
	ctx, cancel := context.WithCancel(context.Background())
	ar.cancel = cancel

	go func() {
		defer close(ar.done)
		if err := ar.engine.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Prayer engine exited")
		}
	}()

	ar.app.Lifecycle().SetOnStarted(func() {
		platform.SetActivationPolicy()
	})
	ar.window.Show()
	ar.app.Run()
}

// exportToday writes today's schedule as an .ics file into the app storage directory
func (ar *AdzanReminder) exportToday() {
	settings, err := store.ReadAll(ar.config.SettingsPath)
	if err != nil {
		log.Error().Err(err).Msg("Nothing to export")
		return
	}

	now := time.Now()
	path := filepath.Join(filepath.Dir(ar.config.SettingsPath), "adzan-"+now.Format("2006-01-02")+".ics")

	f, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to create export file")
		return
	}
	defer f.Close()

	if err := calendar.ExportSchedule(f, settings.Location(), settings.Schedule(), now); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to export schedule")
		return
	}

	log.Info().Str("path", path).Msg("Schedule exported")
	ar.app.SendNotification(fyne.NewNotification("Schedule exported", path))
}

func (ar *AdzanReminder) quit() {
	if ar.cancel != nil {
		ar.cancel()
		<-ar.done
	}
	ar.dispatcher.StopAll()
	ar.dispatcher.Wait()
	ar.app.Quit()
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
