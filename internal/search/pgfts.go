package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across policies, services, testimonials
// and contact_submissions using plainto_tsquery and ts_rank, with
// ts_headline for snippets.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	const tsQuery = "plainto_tsquery('english', $1)"
	args := []any{q.Text}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultPolicy {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'policy'::text AS type, p.id, p.title,
				ts_headline('english', p.description, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				p.slug, ''::text AS status,
				ts_rank(p.fts, %s) AS rank
			FROM policies p
			WHERE p.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultService {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'service'::text AS type, s.id, s.title,
				ts_headline('english', s.short_description, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				s.slug, ''::text AS status,
				ts_rank(s.fts, %s) AS rank
			FROM services s
			WHERE s.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultTestimonial {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'testimonial'::text AS type, t.id, t.author_name AS title,
				ts_headline('english', t.quote, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS slug, ''::text AS status,
				ts_rank(t.fts, %s) AS rank
			FROM testimonials t
			WHERE t.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultSubmission {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'submission'::text AS type, c.id, c.name AS title,
				ts_headline('english', c.message, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS slug, c.status,
				ts_rank(c.fts, %s) AS rank
			FROM contact_submissions c
			WHERE c.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, slug, status
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Slug, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]PolicyRecord, []ServiceRecord, []TestimonialRecord, []SubmissionRecord, error) {
	policyRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, slug, description, purpose
		FROM policies
	`)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load policies: %w", err)
	}
	defer policyRows.Close()

	policies := make([]PolicyRecord, 0)
	for policyRows.Next() {
		var r PolicyRecord
		if err := policyRows.Scan(&r.ID, &r.Title, &r.Slug, &r.Description, &r.Purpose); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("scan policy: %w", err)
		}
		policies = append(policies, r)
	}
	if err := policyRows.Err(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("iterate policies: %w", err)
	}

	serviceRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, slug, short_description
		FROM services
	`)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load services: %w", err)
	}
	defer serviceRows.Close()

	services := make([]ServiceRecord, 0)
	for serviceRows.Next() {
		var r ServiceRecord
		if err := serviceRows.Scan(&r.ID, &r.Title, &r.Slug, &r.ShortDescription); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, r)
	}
	if err := serviceRows.Err(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("iterate services: %w", err)
	}

	testimonialRows, err := p.db.QueryContext(ctx, `
		SELECT id, quote, author_name, company
		FROM testimonials
	`)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load testimonials: %w", err)
	}
	defer testimonialRows.Close()

	testimonials := make([]TestimonialRecord, 0)
	for testimonialRows.Next() {
		var r TestimonialRecord
		if err := testimonialRows.Scan(&r.ID, &r.Quote, &r.AuthorName, &r.Company); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("scan testimonial: %w", err)
		}
		testimonials = append(testimonials, r)
	}
	if err := testimonialRows.Err(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("iterate testimonials: %w", err)
	}

	submissionRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, email, message, status
		FROM contact_submissions
	`)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load submissions: %w", err)
	}
	defer submissionRows.Close()

	submissions := make([]SubmissionRecord, 0)
	for submissionRows.Next() {
		var r SubmissionRecord
		if err := submissionRows.Scan(&r.ID, &r.Name, &r.Email, &r.Message, &r.Status); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("scan submission: %w", err)
		}
		submissions = append(submissions, r)
	}
	if err := submissionRows.Err(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("iterate submissions: %w", err)
	}

	return policies, services, testimonials, submissions, nil
}
