package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PolicyStore persists company policies: ordered, individually activatable
// documents addressed publicly by slug.
type PolicyStore struct {
	db *sql.DB
}

func NewPolicyStore(db *sql.DB) *PolicyStore {
	return &PolicyStore{db: db}
}

// ErrDuplicateSlug marks a policy insert or update whose slug is taken.
var ErrDuplicateSlug = errors.New("slug already in use")

const policyColumns = `id, title, slug, description, icon_svg, purpose, scope,
	responsibility, order_index, is_active, created_at, updated_at`

func scanPolicy(row rowScanner) (*Policy, error) {
	var v Policy
	err := row.Scan(
		&v.ID, &v.Title, &v.Slug, &v.Description, &v.IconSVG, &v.Purpose,
		&v.Scope, &v.Responsibility, &v.OrderIndex, &v.IsActive,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns policies ordered by order_index. With activeOnly the result
// is what the public policy index renders.
func (s *PolicyStore) List(ctx context.Context, activeOnly bool) ([]*Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY order_index, created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []*Policy
	for rows.Next() {
		v, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PolicyStore) Get(ctx context.Context, id string) (*Policy, error) {
	v, err := scanPolicy(s.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}
	return v, nil
}

// GetBySlug resolves a policy by slug. With activeOnly an inactive policy
// resolves to nil, which the public detail endpoint treats as not found.
func (s *PolicyStore) GetBySlug(ctx context.Context, slug string, activeOnly bool) (*Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM policies WHERE slug=$1`
	if activeOnly {
		query += ` AND is_active`
	}
	v, err := scanPolicy(s.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get policy by slug: %w", err)
	}
	return v, nil
}

// Create inserts a policy at the end of the ordering.
func (s *PolicyStore) Create(ctx context.Context, v *Policy) error {
	var next int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(order_index), 0) + 1 FROM policies`,
	).Scan(&next); err != nil {
		return fmt.Errorf("next policy order: %w", err)
	}
	v.OrderIndex = next
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policies (id, title, slug, description, icon_svg, purpose,
			scope, responsibility, order_index, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		v.ID, v.Title, v.Slug, v.Description, v.IconSVG, v.Purpose,
		v.Scope, v.Responsibility, v.OrderIndex, v.IsActive,
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("create policy: %w", err)
	}
	return nil
}

func (s *PolicyStore) Update(ctx context.Context, v *Policy) (bool, error) {
	v.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE policies SET title=$2, slug=$3, description=$4, icon_svg=$5,
			purpose=$6, scope=$7, responsibility=$8, is_active=$9, updated_at=$10
		WHERE id=$1`,
		v.ID, v.Title, v.Slug, v.Description, v.IconSVG, v.Purpose,
		v.Scope, v.Responsibility, v.IsActive, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrDuplicateSlug
		}
		return false, fmt.Errorf("update policy: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update policy rows: %w", err)
	}
	return affected > 0, nil
}

// SetActive flips the is_active flag without touching the payload.
func (s *PolicyStore) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE policies SET is_active=$2, updated_at=$3 WHERE id=$1`,
		id, active, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("set policy active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set policy active rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PolicyStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM policies WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete policy: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete policy rows: %w", err)
	}
	return affected > 0, nil
}

// Reorder rewrites order_index = 1..N for the given ids in one transaction.
func (s *PolicyStore) Reorder(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder policies: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for i, id := range ids {
		res, err := tx.ExecContext(ctx,
			`UPDATE policies SET order_index=$2, updated_at=$3 WHERE id=$1`,
			id, i+1, now,
		)
		if err != nil {
			return fmt.Errorf("reorder policies: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reorder policies rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("reorder policies: %w: %s", ErrUnknownID, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder policies: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// failure (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
