package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(ctx, q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexPolicy indexes a policy (fire-and-forget to Meilisearch).
func (s *Service) IndexPolicy(p PolicyRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexPolicy(p); err != nil {
			log.Printf("search: index policy %s: %v", p.ID, err)
		}
	}()
}

// IndexService indexes a catalog service (fire-and-forget to Meilisearch).
func (s *Service) IndexService(rec ServiceRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexService(rec); err != nil {
			log.Printf("search: index service %s: %v", rec.ID, err)
		}
	}()
}

// IndexTestimonial indexes a testimonial (fire-and-forget to Meilisearch).
func (s *Service) IndexTestimonial(t TestimonialRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexTestimonial(t); err != nil {
			log.Printf("search: index testimonial %s: %v", t.ID, err)
		}
	}()
}

// IndexSubmission indexes a contact submission (fire-and-forget to Meilisearch).
func (s *Service) IndexSubmission(rec SubmissionRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexSubmission(rec); err != nil {
			log.Printf("search: index submission %s: %v", rec.ID, err)
		}
	}()
}

// DeletePolicy removes a policy from the search index (fire-and-forget).
func (s *Service) DeletePolicy(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeletePolicy(id); err != nil {
			log.Printf("search: delete policy %s: %v", id, err)
		}
	}()
}

// DeleteService removes a service from the search index (fire-and-forget).
func (s *Service) DeleteService(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteService(id); err != nil {
			log.Printf("search: delete service %s: %v", id, err)
		}
	}()
}

// DeleteTestimonial removes a testimonial from the search index (fire-and-forget).
func (s *Service) DeleteTestimonial(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteTestimonial(id); err != nil {
			log.Printf("search: delete testimonial %s: %v", id, err)
		}
	}()
}

// DeleteSubmission removes a contact submission from the search index (fire-and-forget).
func (s *Service) DeleteSubmission(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteSubmission(id); err != nil {
			log.Printf("search: delete submission %s: %v", id, err)
		}
	}()
}

// ReindexAll pushes pre-loaded records to Meilisearch. Called during
// Bootstrap when Meilisearch is healthy.
func (s *Service) ReindexAll(policies []PolicyRecord, services []ServiceRecord, testimonials []TestimonialRecord, submissions []SubmissionRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}

	if err := s.meili.IndexPolicies(policies); err != nil {
		log.Printf("search: reindex policies: %v", err)
	}
	if err := s.meili.IndexServices(services); err != nil {
		log.Printf("search: reindex services: %v", err)
	}
	if err := s.meili.IndexTestimonials(testimonials); err != nil {
		log.Printf("search: reindex testimonials: %v", err)
	}
	if err := s.meili.IndexSubmissions(submissions); err != nil {
		log.Printf("search: reindex submissions: %v", err)
	}
}

// ReindexAllFromPG reindexes every searchable entity from PostgreSQL into
// Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	policies, services, testimonials, submissions, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	s.ReindexAll(policies, services, testimonials, submissions)
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
