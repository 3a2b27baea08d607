package ui

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/adzan-reminder/pkg/location"
	"github.com/borgmon/adzan-reminder/pkg/models"
	"github.com/borgmon/adzan-reminder/pkg/ui/components"
	"github.com/rs/zerolog/log"
)

const commandTimeout = 30 * time.Second

// Controller executes user actions against the prayer engine
type Controller interface {
	SelectLocation(ctx context.Context, loc models.Location) error
	ToggleMute(ctx context.Context, prayer models.PrayerName) (bool, error)
	StopPlayback()
}

// MainWindow shows the published display state and turns clicks into engine commands
type MainWindow struct {
	app        fyne.App
	window     fyne.Window
	controller Controller
	catalog    *location.Catalog
	tray       *SystemTray

	clock     binding.String
	next      binding.String
	place     binding.String
	civilDate binding.String
	hijriDate binding.String
	times     map[models.PrayerName]binding.String
	muted     map[models.PrayerName]binding.String
}

// NewMainWindow builds the main window. Call Publish to feed it display state.
func NewMainWindow(app fyne.App, controller Controller, catalog *location.Catalog, tray *SystemTray) *MainWindow {
	mw := &MainWindow{
		app:        app,
		controller: controller,
		catalog:    catalog,
		tray:       tray,
		clock:      binding.NewString(),
		next:       binding.NewString(),
		place:      binding.NewString(),
		civilDate:  binding.NewString(),
		hijriDate:  binding.NewString(),
		times:      make(map[models.PrayerName]binding.String),
		muted:      make(map[models.PrayerName]binding.String),
	}
	for _, p := range models.AllPrayers {
		mw.times[p] = binding.NewString()
		mw.muted[p] = binding.NewString()
	}

	mw.window = app.NewWindow("Adzan Reminder")
	mw.window.SetContent(mw.buildUI())
	mw.window.SetCloseIntercept(func() {
		mw.window.Hide()
	})

	return mw
}

// Show brings the window to front
func (mw *MainWindow) Show() {
	mw.window.Show()
	mw.window.RequestFocus()
}

func (mw *MainWindow) buildUI() fyne.CanvasObject {
	clockLabel := widget.NewLabelWithData(mw.clock)
	clockLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	clockLabel.Alignment = fyne.TextAlignCenter

	nextLabel := widget.NewLabelWithData(mw.next)
	nextLabel.Alignment = fyne.TextAlignCenter
	nextLabel.Importance = widget.HighImportance

	placeLabel := widget.NewLabelWithData(mw.place)
	placeLabel.Alignment = fyne.TextAlignCenter

	civilLabel := widget.NewLabelWithData(mw.civilDate)
	civilLabel.Alignment = fyne.TextAlignCenter
	hijriLabel := widget.NewLabelWithData(mw.hijriDate)
	hijriLabel.Alignment = fyne.TextAlignCenter

	rows := container.New(layout.NewGridLayout(4))
	for _, p := range models.AllPrayers {
		prayer := p
		rows.Add(widget.NewLabel(string(prayer)))
		rows.Add(widget.NewLabelWithData(mw.times[prayer]))
		rows.Add(widget.NewLabelWithData(mw.muted[prayer]))
		rows.Add(widget.NewButton("Mute / Unmute", func() {
			mw.toggleMute(prayer)
		}))
	}

	selectButton := widget.NewButton("Select Location", mw.showLocationDialog)
	stopButton := components.NewHoldButton("Hold to stop adhan", 2*time.Second, mw.controller.StopPlayback)

	return container.NewPadded(container.NewVBox(
		clockLabel,
		nextLabel,
		widget.NewSeparator(),
		placeLabel,
		civilLabel,
		hijriLabel,
		widget.NewSeparator(),
		rows,
		widget.NewSeparator(),
		container.NewGridWithColumns(2, selectButton, stopButton),
	))
}

// Publish implements engine.Publisher
func (mw *MainWindow) Publish(state models.DisplayState) {
	fyne.Do(func() {
		mw.clock.Set(state.Now)
		mw.next.Set(nextText(state))
		mw.civilDate.Set(state.CivilDate)
		mw.hijriDate.Set(state.HijriDate)

		if state.Location == "" {
			mw.place.Set("No location selected")
		} else {
			mw.place.Set(state.Location)
		}

		for _, p := range models.AllPrayers {
			text := state.Times[p]
			if text == "" {
				text = "--:--"
			}
			mw.times[p].Set(text)
			mw.muted[p].Set(muteText(state.Muted[p]))
		}

		if mw.tray != nil {
			mw.tray.Update(state.NextLabel)
		}
	})
}

func nextText(state models.DisplayState) string {
	if state.Next == "" {
		return state.NextLabel
	}
	return fmt.Sprintf("Next: %s, in %s", state.NextLabel, formatCountdown(state.Countdown))
}

func formatCountdown(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func muteText(muted bool) string {
	if muted {
		return "Muted"
	}
	return "Adhan on"
}

func (mw *MainWindow) toggleMute(prayer models.PrayerName) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		muted, err := mw.controller.ToggleMute(ctx, prayer)
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, mw.window)
				return
			}
			mw.muted[prayer].Set(muteText(muted))
		})
	}()
}

func (mw *MainWindow) showLocationDialog() {
	var d dialog.Dialog

	status := widget.NewLabel("")
	_, list := components.NewSearchList(components.SearchListConfig[models.Location]{
		Placeholder: "Search city",
		Search:      mw.catalog.Search,
		Render:      models.Location.String,
		OnSelected: func(loc models.Location) {
			status.SetText("Fetching prayer times for " + loc.Name + "...")
			go mw.selectLocation(loc, func(err error) {
				if err != nil {
					status.SetText("")
					dialog.ShowError(err, mw.window)
					return
				}
				d.Hide()
			})
		},
	})

	content := container.NewBorder(nil, status, nil, nil, list)
	d = dialog.NewCustom("Select Location", "Close", content, mw.window)
	d.Resize(fyne.NewSize(420, 420))
	d.Show()
}

// selectLocation runs off the UI thread; done is called back on it
func (mw *MainWindow) selectLocation(loc models.Location, done func(error)) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	err := mw.controller.SelectLocation(ctx, loc)
	if err != nil {
		log.Error().Err(err).Str("location", loc.Name).Msg("Location change failed")
	}
	fyne.Do(func() {
		done(err)
	})
}
