package store

import (
	"database/sql"
	"errors"
	"strconv"
)

// Setting keys used by the application.
const (
	SettingMode         = "mode"
	SettingSkipInterval = "skip_interval"
	SettingCameraID     = "camera_id"
)

// SettingsRepository provides access to the persisted key-value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get retrieves a setting value. It returns ErrNotFound if the key has never
// been set.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// GetInt retrieves a setting value as an integer.
func (r *SettingsRepository) GetInt(key string) (int, error) {
	value, err := r.Get(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// Set stores a setting value, replacing any previous value for the key.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// SetInt stores an integer setting value.
func (r *SettingsRepository) SetInt(key string, value int) error {
	return r.Set(key, strconv.Itoa(value))
}
