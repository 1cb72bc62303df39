package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"atelier/cms/internal/util"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// SectionDef describes how one content-section table maps onto its Go type.
// Columns, Values and Fields cover the payload columns only and must agree
// on order; the engine handles id, is_active and the timestamps itself
// through Meta.
type SectionDef[T any] struct {
	Table    string
	Columns  []string
	Values   func(v *T) []any
	Fields   func(v *T) []any
	Meta     func(v *T) *VersionMeta
	Validate func(v *T) error
}

// SectionStore is the version store for a single content section. Every
// section shares this implementation; only the SectionDef differs.
type SectionStore[T any] struct {
	db  *sql.DB
	def SectionDef[T]
}

func NewSectionStore[T any](db *sql.DB, def SectionDef[T]) *SectionStore[T] {
	return &SectionStore[T]{db: db, def: def}
}

func (s *SectionStore[T]) Name() string {
	return s.def.Table
}

func (s *SectionStore[T]) selectColumns() []string {
	cols := make([]string, 0, len(s.def.Columns)+4)
	cols = append(cols, "id")
	cols = append(cols, s.def.Columns...)
	cols = append(cols, "is_active", "created_at", "updated_at")
	return cols
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SectionStore[T]) scanRow(row rowScanner) (*T, error) {
	v := new(T)
	meta := s.def.Meta(v)
	dest := make([]any, 0, len(s.def.Columns)+4)
	dest = append(dest, &meta.ID)
	dest = append(dest, s.def.Fields(v)...)
	dest = append(dest, &meta.IsActive, &meta.CreatedAt, &meta.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return v, nil
}

// List returns every version of the section, newest first.
func (s *SectionStore[T]) List(ctx context.Context) ([]*T, error) {
	query, args, err := psql.Select(s.selectColumns()...).
		From(s.def.Table).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list %s: %w", s.def.Table, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.def.Table, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		v, err := s.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.def.Table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Get returns one version by id, nil when absent.
func (s *SectionStore[T]) Get(ctx context.Context, id string) (*T, error) {
	query, args, err := psql.Select(s.selectColumns()...).
		From(s.def.Table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get %s: %w", s.def.Table, err)
	}

	v, err := s.scanRow(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.def.Table, err)
	}
	return v, nil
}

// Active returns the active version, nil when no version is active.
func (s *SectionStore[T]) Active(ctx context.Context) (*T, error) {
	query, args, err := psql.Select(s.selectColumns()...).
		From(s.def.Table).
		Where(sq.Eq{"is_active": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active %s: %w", s.def.Table, err)
	}

	v, err := s.scanRow(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active %s: %w", s.def.Table, err)
	}
	return v, nil
}

// Insert stores a new version. A version saved with is_active=true goes
// through Activate afterwards so the single-active invariant holds.
func (s *SectionStore[T]) Insert(ctx context.Context, v *T) (*T, error) {
	if s.def.Validate != nil {
		if err := s.def.Validate(v); err != nil {
			return nil, err
		}
	}

	meta := s.def.Meta(v)
	wantActive := meta.IsActive
	if meta.ID == "" {
		meta.ID = util.NewID("ver")
	}
	now := time.Now().UTC()
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.IsActive = false

	cols := make([]string, 0, len(s.def.Columns)+4)
	cols = append(cols, "id")
	cols = append(cols, s.def.Columns...)
	cols = append(cols, "is_active", "created_at", "updated_at")

	vals := make([]any, 0, len(cols))
	vals = append(vals, meta.ID)
	vals = append(vals, s.def.Values(v)...)
	vals = append(vals, false, now, now)

	query, args, err := psql.Insert(s.def.Table).Columns(cols...).Values(vals...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert %s: %w", s.def.Table, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert %s: %w", s.def.Table, err)
	}

	if wantActive {
		if _, err := s.Activate(ctx, meta.ID); err != nil {
			return nil, err
		}
		meta.IsActive = true
	}
	return v, nil
}

// Update rewrites the payload of an existing version. The active flag is
// part of the save: is_active=true routes through Activate, is_active=false
// deactivates the row, which may leave the section with no active version.
func (s *SectionStore[T]) Update(ctx context.Context, id string, v *T) (*T, error) {
	if s.def.Validate != nil {
		if err := s.def.Validate(v); err != nil {
			return nil, err
		}
	}

	meta := s.def.Meta(v)
	wantActive := meta.IsActive
	now := time.Now().UTC()

	builder := psql.Update(s.def.Table)
	vals := s.def.Values(v)
	for i, col := range s.def.Columns {
		builder = builder.Set(col, vals[i])
	}
	query, args, err := builder.
		Set("is_active", false).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update %s: %w", s.def.Table, err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", s.def.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update %s rows: %w", s.def.Table, err)
	}
	if affected == 0 {
		return nil, nil
	}

	if wantActive {
		if _, err := s.Activate(ctx, id); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a version. Deleting the active version leaves the section
// with no active row; the public surface falls back to its default content.
func (s *SectionStore[T]) Delete(ctx context.Context, id string) (bool, error) {
	query, args, err := psql.Delete(s.def.Table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete %s: %w", s.def.Table, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", s.def.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s rows: %w", s.def.Table, err)
	}
	return affected > 0, nil
}

// Activate makes one version active and deactivates every sibling in a
// single transaction, so at most one row per section carries is_active.
func (s *SectionStore[T]) Activate(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin activate %s: %w", s.def.Table, err)
	}
	defer func() { _ = tx.Rollback() }()

	clearQ, clearArgs, err := psql.Update(s.def.Table).
		Set("is_active", false).
		Where(sq.Eq{"is_active": true}).
		Where(sq.NotEq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build deactivate %s: %w", s.def.Table, err)
	}
	if _, err := tx.ExecContext(ctx, clearQ, clearArgs...); err != nil {
		return false, fmt.Errorf("deactivate %s: %w", s.def.Table, err)
	}

	setQ, setArgs, err := psql.Update(s.def.Table).
		Set("is_active", true).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build activate %s: %w", s.def.Table, err)
	}
	res, err := tx.ExecContext(ctx, setQ, setArgs...)
	if err != nil {
		return false, fmt.Errorf("activate %s: %w", s.def.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("activate %s rows: %w", s.def.Table, err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit activate %s: %w", s.def.Table, err)
	}
	return true, nil
}

// SectionVersions is the type-erased face of a SectionStore, used where
// sections are addressed by name (the admin HTTP surface and search).
type SectionVersions interface {
	Name() string
	ListAny(ctx context.Context) (any, error)
	GetAny(ctx context.Context, id string) (any, error)
	ActiveAny(ctx context.Context) (any, error)
	CreateJSON(ctx context.Context, body []byte) (any, error)
	UpdateJSON(ctx context.Context, id string, body []byte) (any, error)
	Delete(ctx context.Context, id string) (bool, error)
	Activate(ctx context.Context, id string) (bool, error)
}

func (s *SectionStore[T]) ListAny(ctx context.Context) (any, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *SectionStore[T]) GetAny(ctx context.Context, id string) (any, error) {
	v, err := s.Get(ctx, id)
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}

func (s *SectionStore[T]) ActiveAny(ctx context.Context) (any, error) {
	v, err := s.Active(ctx)
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}

func (s *SectionStore[T]) CreateJSON(ctx context.Context, body []byte) (any, error) {
	v := new(T)
	if err := json.Unmarshal(body, v); err != nil {
		return nil, ErrBadPayload
	}
	created, err := s.Insert(ctx, v)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SectionStore[T]) UpdateJSON(ctx context.Context, id string, body []byte) (any, error) {
	v := new(T)
	if err := json.Unmarshal(body, v); err != nil {
		return nil, ErrBadPayload
	}
	updated, err := s.Update(ctx, id, v)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}
	return updated, nil
}

// ErrBadPayload marks a request body that does not decode into the
// section's payload shape.
var ErrBadPayload = errors.New("malformed section payload")
