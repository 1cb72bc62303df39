package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SettingsStore covers the small administrative tables: key/value site
// settings, the page registry and uploaded media assets.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) ListSettings(ctx context.Context) ([]*SiteSetting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []*SiteSetting
	for rows.Next() {
		var v SiteSetting
		if err := rows.Scan(&v.Key, &v.Value, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *SettingsStore) GetSetting(ctx context.Context, key string) (*SiteSetting, error) {
	var v SiteSetting
	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM site_settings WHERE key=$1`, key,
	).Scan(&v.Key, &v.Value, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &v, nil
}

// UpsertSetting writes a setting value by key, inserting or replacing.
func (s *SettingsStore) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
		key, []byte(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

func (s *SettingsStore) ListPages(ctx context.Context) ([]*Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, title, status, updated_at FROM pages ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var out []*Page
	for rows.Next() {
		var v Page
		if err := rows.Scan(&v.ID, &v.Slug, &v.Title, &v.Status, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *SettingsStore) CreatePage(ctx context.Context, v *Page) error {
	v.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (id, slug, title, status, updated_at)
		VALUES ($1,$2,$3,$4,$5)`,
		v.ID, v.Slug, v.Title, v.Status, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("create page: %w", err)
	}
	return nil
}

func (s *SettingsStore) UpdatePageStatus(ctx context.Context, id, status string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pages SET status=$2, updated_at=$3 WHERE id=$1`,
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("update page status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update page status rows: %w", err)
	}
	return affected > 0, nil
}

func (s *SettingsStore) DeletePage(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete page: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete page rows: %w", err)
	}
	return affected > 0, nil
}

func (s *SettingsStore) ListAssets(ctx context.Context, kind string) ([]*Asset, error) {
	query := `SELECT id, file_name, url, content_type, size_bytes, kind, created_at FROM assets`
	var args []any
	if kind != "" {
		query += ` WHERE kind=$1`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []*Asset
	for rows.Next() {
		var v Asset
		if err := rows.Scan(&v.ID, &v.FileName, &v.URL, &v.ContentType,
			&v.SizeBytes, &v.Kind, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *SettingsStore) CreateAsset(ctx context.Context, v *Asset) error {
	v.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (id, file_name, url, content_type, size_bytes, kind, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		v.ID, v.FileName, v.URL, v.ContentType, v.SizeBytes, v.Kind, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

func (s *SettingsStore) DeleteAsset(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete asset rows: %w", err)
	}
	return affected > 0, nil
}
