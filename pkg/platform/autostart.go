package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"
	"github.com/rs/zerolog/log"
)

const (
	loginItemName        = "adzan-reminder"
	loginItemDisplayName = "Adzan Reminder"
)

// loginItem describes the entry that starts the reminder at login, pointing
// at the resolved path of the running binary
func loginItem() (*autostart.App, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	return &autostart.App{
		Name:        loginItemName,
		DisplayName: loginItemDisplayName,
		Exec:        []string{execPath},
	}, nil
}

// SetupAutostart adds or removes the login item so it matches enable
func SetupAutostart(enable bool) error {
	item, err := loginItem()
	if err != nil {
		return err
	}

	logger := log.With().Str("login_item", item.Name).Str("exec", item.Exec[0]).Logger()
	enabled := item.IsEnabled()

	switch {
	case enable && !enabled:
		if err := item.Enable(); err != nil {
			return fmt.Errorf("enable login item: %w", err)
		}
		logger.Info().Msg("Reminder will start at login")
	case !enable && enabled:
		if err := item.Disable(); err != nil {
			return fmt.Errorf("disable login item: %w", err)
		}
		logger.Info().Msg("Reminder removed from login items")
	default:
		logger.Debug().Bool("enabled", enabled).Msg("Login item already up to date")
	}

	return nil
}
