package app

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// settingsWriter persists runtime setting changes to the config file.
type settingsWriter struct {
	v        *viper.Viper
	fallback string
}

// newSettingsWriter writes to the file viper loaded, or to fallback when no
// config file was found.
func newSettingsWriter(v *viper.Viper, fallback string) *settingsWriter {
	return &settingsWriter{v: v, fallback: fallback}
}

// SetArchivePassword stores the archive password ciphertext; "" removes it.
// Defaults and environment overrides held by the live config are not written.
func (w *settingsWriter) SetArchivePassword(ciphertext string) error {
	w.v.Set("archive.password", ciphertext)
	return w.update("archive.password", ciphertext)
}

func (w *settingsWriter) update(key string, value any) error {
	path := w.v.ConfigFileUsed()
	if path == "" {
		path = w.fallback
	}

	file := viper.New()
	file.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := file.ReadInConfig(); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	file.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	file.SetConfigPermissions(0600)
	return file.WriteConfigAs(path)
}
