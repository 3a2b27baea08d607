package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
)

// SystemTray shows the next prayer and quick actions in the menu bar
type SystemTray struct {
	app       fyne.App
	label     string
	onShow    func()
	onStop    func()
	onExport  func()
	onQuit    func()
	installed bool
}

// TrayActions are the callbacks behind the tray menu items
type TrayActions struct {
	Show   func()
	Stop   func()
	Export func()
	Quit   func()
}

// NewSystemTray creates the tray. It is a no-op on drivers without tray support.
func NewSystemTray(app fyne.App, actions TrayActions) *SystemTray {
	return &SystemTray{
		app:      app,
		onShow:   actions.Show,
		onStop:   actions.Stop,
		onExport: actions.Export,
		onQuit:   actions.Quit,
	}
}

// Update rebuilds the tray menu when the next prayer label changes.
// Must be called on the UI thread.
func (st *SystemTray) Update(nextLabel string) {
	if st.installed && nextLabel == st.label {
		return
	}
	st.label = nextLabel

	desk, ok := st.app.(desktop.App)
	if !ok {
		return
	}

	header := fyne.NewMenuItem("Next: "+nextLabel, nil)
	header.Disabled = true

	menu := fyne.NewMenu("Adzan Reminder",
		header,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show", st.onShow),
		fyne.NewMenuItem("Stop Adhan", st.onStop),
		fyne.NewMenuItem("Export Today's Schedule", st.onExport),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", st.onQuit),
	)

	desk.SetSystemTrayMenu(menu)
	if !st.installed {
		icon := st.app.Icon()
		if icon == nil {
			icon = theme.InfoIcon()
		}
		desk.SetSystemTrayIcon(icon)
		st.installed = true
	}
}
