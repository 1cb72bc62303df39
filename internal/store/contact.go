package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ContactStore persists contact-form submissions and their admin triage
// state (status + notes).
type ContactStore struct {
	db *sql.DB
}

func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

const submissionColumns = `id, name, email, service, message, status, notes, created_at, updated_at`

func scanSubmission(row rowScanner) (*ContactSubmission, error) {
	var v ContactSubmission
	err := row.Scan(
		&v.ID, &v.Name, &v.Email, &v.Service, &v.Message,
		&v.Status, &v.Notes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns submissions newest first, optionally filtered by status.
func (s *ContactStore) List(ctx context.Context, status string) ([]*ContactSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM contact_submissions`
	var args []any
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*ContactSubmission
	for rows.Next() {
		v, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *ContactStore) Get(ctx context.Context, id string) (*ContactSubmission, error) {
	v, err := scanSubmission(s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM contact_submissions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return v, nil
}

func (s *ContactStore) Create(ctx context.Context, v *ContactSubmission) error {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_submissions (id, name, email, service, message,
			status, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		v.ID, v.Name, v.Email, v.Service, v.Message, v.Status, v.Notes,
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// UpdateTriage sets the status and notes on a submission.
func (s *ContactStore) UpdateTriage(ctx context.Context, id, status, notes string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE contact_submissions SET status=$2, notes=$3, updated_at=$4
		WHERE id=$1`,
		id, status, notes, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("update submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update submission rows: %w", err)
	}
	return affected > 0, nil
}

func (s *ContactStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contact_submissions WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete submission rows: %w", err)
	}
	return affected > 0, nil
}
