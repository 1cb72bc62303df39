package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// CatalogStore holds the ordered item collections rendered on the public
// site: services, testimonials, brands, contact FAQs and process steps.
// Each collection carries a visible flag and an order_index; reordering
// rewrites the whole sequence in one transaction.
type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// reorder rewrites order_index = 1..N for the given ids inside one
// transaction. An id that does not exist aborts the whole reorder.
func (s *CatalogStore) reorder(ctx context.Context, table string, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder %s: %w", table, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for i, id := range ids {
		query, args, err := psql.Update(table).
			Set("order_index", i+1).
			Set("updated_at", now).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build reorder %s: %w", table, err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("reorder %s: %w", table, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reorder %s rows: %w", table, err)
		}
		if affected == 0 {
			return fmt.Errorf("reorder %s: %w: %s", table, ErrUnknownID, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder %s: %w", table, err)
	}
	return nil
}

// ErrUnknownID marks a reorder or update that names an id not in the table.
var ErrUnknownID = errors.New("unknown id")

func (s *CatalogStore) nextOrderIndex(ctx context.Context, table string) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COALESCE(MAX(order_index), 0) + 1 FROM %s`, table),
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next order index %s: %w", table, err)
	}
	return next, nil
}

const serviceColumns = `id, title, slug, short_description, full_description, icon_name,
	features, gradient, image_url, visible, order_index, created_at, updated_at`

func scanService(row rowScanner) (*Service, error) {
	var v Service
	err := row.Scan(
		&v.ID, &v.Title, &v.Slug, &v.ShortDescription, &v.FullDescription,
		&v.IconName, &v.Features, &v.Gradient, &v.ImageURL,
		&v.Visible, &v.OrderIndex, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListServices returns services ordered by order_index. With visibleOnly the
// hidden rows are filtered out, which is what the public surface renders.
func (s *CatalogStore) ListServices(ctx context.Context, visibleOnly bool) ([]*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if visibleOnly {
		query += ` WHERE visible`
	}
	query += ` ORDER BY order_index, created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		v, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *CatalogStore) GetService(ctx context.Context, id string) (*Service, error) {
	v, err := scanService(s.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return v, nil
}

func (s *CatalogStore) GetServiceBySlug(ctx context.Context, slug string) (*Service, error) {
	v, err := scanService(s.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE slug=$1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service by slug: %w", err)
	}
	return v, nil
}

func (s *CatalogStore) CreateService(ctx context.Context, v *Service) error {
	next, err := s.nextOrderIndex(ctx, "services")
	if err != nil {
		return err
	}
	v.OrderIndex = next
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO services (id, title, slug, short_description, full_description,
			icon_name, features, gradient, image_url, visible, order_index,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		v.ID, v.Title, v.Slug, v.ShortDescription, v.FullDescription,
		v.IconName, v.Features, v.Gradient, v.ImageURL, v.Visible,
		v.OrderIndex, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

func (s *CatalogStore) UpdateService(ctx context.Context, v *Service) (bool, error) {
	v.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE services SET title=$2, slug=$3, short_description=$4,
			full_description=$5, icon_name=$6, features=$7, gradient=$8,
			image_url=$9, visible=$10, updated_at=$11
		WHERE id=$1`,
		v.ID, v.Title, v.Slug, v.ShortDescription, v.FullDescription,
		v.IconName, v.Features, v.Gradient, v.ImageURL, v.Visible, v.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update service: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update service rows: %w", err)
	}
	return affected > 0, nil
}

func (s *CatalogStore) DeleteService(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "services", id)
}

func (s *CatalogStore) ReorderServices(ctx context.Context, ids []string) error {
	return s.reorder(ctx, "services", ids)
}

const testimonialColumns = `id, quote, author_name, author_role, company, avatar_url,
	rating, visible, order_index, created_at, updated_at`

func scanTestimonial(row rowScanner) (*Testimonial, error) {
	var v Testimonial
	err := row.Scan(
		&v.ID, &v.Quote, &v.AuthorName, &v.AuthorRole, &v.Company,
		&v.AvatarURL, &v.Rating, &v.Visible, &v.OrderIndex,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *CatalogStore) ListTestimonials(ctx context.Context, visibleOnly bool) ([]*Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials`
	if visibleOnly {
		query += ` WHERE visible`
	}
	query += ` ORDER BY order_index, created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	defer rows.Close()

	var out []*Testimonial
	for rows.Next() {
		v, err := scanTestimonial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan testimonial: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *CatalogStore) GetTestimonial(ctx context.Context, id string) (*Testimonial, error) {
	v, err := scanTestimonial(s.db.QueryRowContext(ctx,
		`SELECT `+testimonialColumns+` FROM testimonials WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get testimonial: %w", err)
	}
	return v, nil
}

func (s *CatalogStore) CreateTestimonial(ctx context.Context, v *Testimonial) error {
	next, err := s.nextOrderIndex(ctx, "testimonials")
	if err != nil {
		return err
	}
	v.OrderIndex = next
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO testimonials (id, quote, author_name, author_role, company,
			avatar_url, rating, visible, order_index, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		v.ID, v.Quote, v.AuthorName, v.AuthorRole, v.Company, v.AvatarURL,
		v.Rating, v.Visible, v.OrderIndex, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create testimonial: %w", err)
	}
	return nil
}

func (s *CatalogStore) UpdateTestimonial(ctx context.Context, v *Testimonial) (bool, error) {
	v.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE testimonials SET quote=$2, author_name=$3, author_role=$4,
			company=$5, avatar_url=$6, rating=$7, visible=$8, updated_at=$9
		WHERE id=$1`,
		v.ID, v.Quote, v.AuthorName, v.AuthorRole, v.Company, v.AvatarURL,
		v.Rating, v.Visible, v.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update testimonial: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update testimonial rows: %w", err)
	}
	return affected > 0, nil
}

func (s *CatalogStore) DeleteTestimonial(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "testimonials", id)
}

func (s *CatalogStore) ReorderTestimonials(ctx context.Context, ids []string) error {
	return s.reorder(ctx, "testimonials", ids)
}

const brandColumns = `id, name, logo_url, website_url, visible, order_index, created_at, updated_at`

func scanBrand(row rowScanner) (*Brand, error) {
	var v Brand
	err := row.Scan(
		&v.ID, &v.Name, &v.LogoURL, &v.WebsiteURL, &v.Visible,
		&v.OrderIndex, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *CatalogStore) ListBrands(ctx context.Context, visibleOnly bool) ([]*Brand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands`
	if visibleOnly {
		query += ` WHERE visible`
	}
	query += ` ORDER BY order_index, created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var out []*Brand
	for rows.Next() {
		v, err := scanBrand(rows)
		if err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *CatalogStore) GetBrand(ctx context.Context, id string) (*Brand, error) {
	v, err := scanBrand(s.db.QueryRowContext(ctx,
		`SELECT `+brandColumns+` FROM brands WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return v, nil
}

func (s *CatalogStore) CreateBrand(ctx context.Context, v *Brand) error {
	next, err := s.nextOrderIndex(ctx, "brands")
	if err != nil {
		return err
	}
	v.OrderIndex = next
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO brands (id, name, logo_url, website_url, visible,
			order_index, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.Name, v.LogoURL, v.WebsiteURL, v.Visible,
		v.OrderIndex, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create brand: %w", err)
	}
	return nil
}

func (s *CatalogStore) UpdateBrand(ctx context.Context, v *Brand) (bool, error) {
	v.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE brands SET name=$2, logo_url=$3, website_url=$4, visible=$5,
			updated_at=$6
		WHERE id=$1`,
		v.ID, v.Name, v.LogoURL, v.WebsiteURL, v.Visible, v.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update brand: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update brand rows: %w", err)
	}
	return affected > 0, nil
}

func (s *CatalogStore) DeleteBrand(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "brands", id)
}

func (s *CatalogStore) ReorderBrands(ctx context.Context, ids []string) error {
	return s.reorder(ctx, "brands", ids)
}

const faqColumns = `id, question, answer, visible, order_index, created_at, updated_at`

func scanFAQ(row rowScanner) (*ContactFAQ, error) {
	var v ContactFAQ
	err := row.Scan(
		&v.ID, &v.Question, &v.Answer, &v.Visible, &v.OrderIndex,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *CatalogStore) ListFAQs(ctx context.Context, visibleOnly bool) ([]*ContactFAQ, error) {
	query := `SELECT ` + faqColumns + ` FROM contact_faqs`
	if visibleOnly {
		query += ` WHERE visible`
	}
	query += ` ORDER BY order_index, created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	defer rows.Close()

	var out []*ContactFAQ
	for rows.Next() {
		v, err := scanFAQ(rows)
		if err != nil {
			return nil, fmt.Errorf("scan faq: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *CatalogStore) GetFAQ(ctx context.Context, id string) (*ContactFAQ, error) {
	v, err := scanFAQ(s.db.QueryRowContext(ctx,
		`SELECT `+faqColumns+` FROM contact_faqs WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get faq: %w", err)
	}
	return v, nil
}

func (s *CatalogStore) CreateFAQ(ctx context.Context, v *ContactFAQ) error {
	next, err := s.nextOrderIndex(ctx, "contact_faqs")
	if err != nil {
		return err
	}
	v.OrderIndex = next
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contact_faqs (id, question, answer, visible, order_index,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		v.ID, v.Question, v.Answer, v.Visible, v.OrderIndex, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create faq: %w", err)
	}
	return nil
}

func (s *CatalogStore) UpdateFAQ(ctx context.Context, v *ContactFAQ) (bool, error) {
	v.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE contact_faqs SET question=$2, answer=$3, visible=$4, updated_at=$5
		WHERE id=$1`,
		v.ID, v.Question, v.Answer, v.Visible, v.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update faq: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update faq rows: %w", err)
	}
	return affected > 0, nil
}

func (s *CatalogStore) DeleteFAQ(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "contact_faqs", id)
}

func (s *CatalogStore) ReorderFAQs(ctx context.Context, ids []string) error {
	return s.reorder(ctx, "contact_faqs", ids)
}

const processStepColumns = `id, step_number, title, description, visible, order_index, created_at, updated_at`

func scanProcessStep(row rowScanner) (*ProcessStep, error) {
	var v ProcessStep
	err := row.Scan(
		&v.ID, &v.StepNumber, &v.Title, &v.Description, &v.Visible,
		&v.OrderIndex, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *CatalogStore) ListProcessSteps(ctx context.Context, visibleOnly bool) ([]*ProcessStep, error) {
	query := `SELECT ` + processStepColumns + ` FROM process_steps`
	if visibleOnly {
		query += ` WHERE visible`
	}
	query += ` ORDER BY order_index, created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list process steps: %w", err)
	}
	defer rows.Close()

	var out []*ProcessStep
	for rows.Next() {
		v, err := scanProcessStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan process step: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *CatalogStore) GetProcessStep(ctx context.Context, id string) (*ProcessStep, error) {
	v, err := scanProcessStep(s.db.QueryRowContext(ctx,
		`SELECT `+processStepColumns+` FROM process_steps WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get process step: %w", err)
	}
	return v, nil
}

func (s *CatalogStore) CreateProcessStep(ctx context.Context, v *ProcessStep) error {
	next, err := s.nextOrderIndex(ctx, "process_steps")
	if err != nil {
		return err
	}
	v.OrderIndex = next
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO process_steps (id, step_number, title, description, visible,
			order_index, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.StepNumber, v.Title, v.Description, v.Visible,
		v.OrderIndex, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create process step: %w", err)
	}
	return nil
}

func (s *CatalogStore) UpdateProcessStep(ctx context.Context, v *ProcessStep) (bool, error) {
	v.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE process_steps SET step_number=$2, title=$3, description=$4,
			visible=$5, updated_at=$6
		WHERE id=$1`,
		v.ID, v.StepNumber, v.Title, v.Description, v.Visible, v.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update process step: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update process step rows: %w", err)
	}
	return affected > 0, nil
}

func (s *CatalogStore) DeleteProcessStep(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "process_steps", id)
}

func (s *CatalogStore) ReorderProcessSteps(ctx context.Context, ids []string) error {
	return s.reorder(ctx, "process_steps", ids)
}

func (s *CatalogStore) deleteByID(ctx context.Context, table, id string) (bool, error) {
	query, args, err := psql.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete %s: %w", table, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s rows: %w", table, err)
	}
	return affected > 0, nil
}
