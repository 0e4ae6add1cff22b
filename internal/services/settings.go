package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/HerbHall/showcase/pkg/models"
	"github.com/HerbHall/showcase/pkg/plugin"
)

// SettingsRepository stores the site settings. Writes go through
// models.NormalizeSetting, so only known keys with valid values are kept.
type SettingsRepository interface {
	// Get returns a single setting by key.
	Get(ctx context.Context, key string) (*models.Setting, error)

	// All returns every stored setting as key -> value.
	All(ctx context.Context) (map[string]string, error)

	// Set validates and stores one setting and returns it as stored.
	Set(ctx context.Context, key, value string) (*models.Setting, error)

	// SetMany validates every entry, then stores them in one transaction.
	SetMany(ctx context.Context, values map[string]string) error

	// Delete removes a setting by key.
	Delete(ctx context.Context, key string) error
}

// Compile-time interface guard.
var _ SettingsRepository = (*SQLiteSettingsRepository)(nil)

// SettingsOption configures a SQLiteSettingsRepository.
type SettingsOption func(*SQLiteSettingsRepository)

// WithSettingsClock sets the time source for updated_at.
func WithSettingsClock(now func() time.Time) SettingsOption {
	return func(r *SQLiteSettingsRepository) { r.now = now }
}

// SQLiteSettingsRepository implements SettingsRepository using SQLite.
type SQLiteSettingsRepository struct {
	store plugin.Store
	db    *sql.DB
	now   func() time.Time
}

// NewSQLiteSettingsRepository runs the site migrations and returns the
// repository.
func NewSQLiteSettingsRepository(ctx context.Context, store plugin.Store, opts ...SettingsOption) (*SQLiteSettingsRepository, error) {
	if err := store.Migrate(ctx, "site", settingsMigrations); err != nil {
		return nil, fmt.Errorf("site migrations: %w", err)
	}
	r := &SQLiteSettingsRepository{store: store, db: store.DB(), now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

func (r *SQLiteSettingsRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	var (
		s         models.Setting
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM site_settings WHERE key = ?`, key,
	).Scan(&s.Key, &s.Value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteSettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM site_settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *SQLiteSettingsRepository) Set(ctx context.Context, key, value string) (*models.Setting, error) {
	value, err := models.NormalizeSetting(key, value)
	if err != nil {
		return nil, err
	}
	s := &models.Setting{Key: key, Value: value, UpdatedAt: r.now().UTC()}
	if err := upsertSetting(ctx, r.db, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SQLiteSettingsRepository) SetMany(ctx context.Context, values map[string]string) error {
	now := r.now().UTC()
	batch := make([]models.Setting, 0, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		v, err := models.NormalizeSetting(key, values[key])
		if err != nil {
			return err
		}
		batch = append(batch, models.Setting{Key: key, Value: v, UpdatedAt: now})
	}
	if len(batch) == 0 {
		return nil
	}

	return r.store.Tx(ctx, func(tx *sql.Tx) error {
		for i := range batch {
			if err := upsertSetting(ctx, tx, &batch[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteSettingsRepository) Delete(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM site_settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSetting(ctx context.Context, db execer, s *models.Setting) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.Key, s.Value, formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", s.Key, err)
	}
	return nil
}

var settingsMigrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create site_settings table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE site_settings (
					key        TEXT PRIMARY KEY,
					value      TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`)
			return err
		},
	},
}
