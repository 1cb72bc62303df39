package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxPolicies     = "atelier_policies"
	idxServices     = "atelier_services"
	idxTestimonials = "atelier_testimonials"
	idxSubmissions  = "atelier_submissions"
)

// Meili implements Searcher via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes. The caller
// proceeds without search acceleration when the initial connection fails;
// the health loop picks the instance up once it recovers.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		primaryKey string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxPolicies,
			primaryKey: "id",
			filterable: []string{"slug"},
			searchable: []string{"title", "description", "purpose"},
		},
		{
			uid:        idxServices,
			primaryKey: "id",
			filterable: []string{"slug"},
			searchable: []string{"title", "shortDescription"},
		},
		{
			uid:        idxTestimonials,
			primaryKey: "id",
			searchable: []string{"quote", "authorName", "company"},
		},
		{
			uid:        idxSubmissions,
			primaryKey: "id",
			filterable: []string{"status"},
			searchable: []string{"name", "email", "message"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: idx.primaryKey,
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		if len(idx.filterable) > 0 {
			filterableInterface := make([]interface{}, len(idx.filterable))
			for i, v := range idx.filterable {
				filterableInterface[i] = v
			}
			if _, err := index.UpdateFilterableAttributes(&filterableInterface); err != nil {
				log.Printf("search: update filterable attrs for %s: %v", idx.uid, err)
			}
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries all four indexes (or a filtered subset) and merges results.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	var queries []*meili.SearchRequest
	targetIndexes := []struct {
		uid  string
		rtyp ResultType
	}{
		{idxPolicies, ResultPolicy},
		{idxServices, ResultService},
		{idxTestimonials, ResultTestimonial},
		{idxSubmissions, ResultSubmission},
	}

	for _, ti := range targetIndexes {
		if q.FilterType != "" && q.FilterType != ti.rtyp {
			continue
		}
		queries = append(queries, &meili.SearchRequest{
			IndexUID:              ti.uid,
			Limit:                 limit,
			Offset:                int64(q.Offset),
			AttributesToHighlight: []string{"*"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
			ShowRankingScore:      true,
		})
	}

	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: queries,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}

	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxPolicies:
		return ResultPolicy
	case idxServices:
		return ResultService
	case idxTestimonials:
		return ResultTestimonial
	case idxSubmissions:
		return ResultSubmission
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp}
	r.ID = decodeString(hit, "id")
	r.Slug = decodeString(hit, "slug")
	r.Status = decodeString(hit, "status")

	switch rtyp {
	case ResultPolicy:
		r.Title = firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description"))
	case ResultService:
		r.Title = firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "shortDescription"), decodeString(hit, "shortDescription"))
	case ResultTestimonial:
		r.Title = firstNonBlank(decodeFormattedString(hit, "authorName"), decodeString(hit, "authorName"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "quote"), decodeString(hit, "quote"))
	case ResultSubmission:
		r.Title = firstNonBlank(decodeFormattedString(hit, "name"), decodeString(hit, "name"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "message"), decodeString(hit, "message"))
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexPolicy adds or updates a policy in the search index.
func (m *Meili) IndexPolicy(p PolicyRecord) error {
	_, err := m.client.Index(idxPolicies).AddDocuments([]PolicyRecord{p}, nil)
	return err
}

// IndexService adds or updates a service in the search index.
func (m *Meili) IndexService(s ServiceRecord) error {
	_, err := m.client.Index(idxServices).AddDocuments([]ServiceRecord{s}, nil)
	return err
}

// IndexTestimonial adds or updates a testimonial in the search index.
func (m *Meili) IndexTestimonial(t TestimonialRecord) error {
	_, err := m.client.Index(idxTestimonials).AddDocuments([]TestimonialRecord{t}, nil)
	return err
}

// IndexSubmission adds or updates a contact submission in the search index.
func (m *Meili) IndexSubmission(s SubmissionRecord) error {
	_, err := m.client.Index(idxSubmissions).AddDocuments([]SubmissionRecord{s}, nil)
	return err
}

// DeletePolicy removes a policy from the search index.
func (m *Meili) DeletePolicy(id string) error {
	_, err := m.client.Index(idxPolicies).DeleteDocument(id, nil)
	return err
}

// DeleteService removes a service from the search index.
func (m *Meili) DeleteService(id string) error {
	_, err := m.client.Index(idxServices).DeleteDocument(id, nil)
	return err
}

// DeleteTestimonial removes a testimonial from the search index.
func (m *Meili) DeleteTestimonial(id string) error {
	_, err := m.client.Index(idxTestimonials).DeleteDocument(id, nil)
	return err
}

// DeleteSubmission removes a contact submission from the search index.
func (m *Meili) DeleteSubmission(id string) error {
	_, err := m.client.Index(idxSubmissions).DeleteDocument(id, nil)
	return err
}

// IndexPolicies bulk-indexes policies.
func (m *Meili) IndexPolicies(policies []PolicyRecord) error {
	if len(policies) == 0 {
		return nil
	}
	_, err := m.client.Index(idxPolicies).AddDocuments(policies, nil)
	return err
}

// IndexServices bulk-indexes services.
func (m *Meili) IndexServices(services []ServiceRecord) error {
	if len(services) == 0 {
		return nil
	}
	_, err := m.client.Index(idxServices).AddDocuments(services, nil)
	return err
}

// IndexTestimonials bulk-indexes testimonials.
func (m *Meili) IndexTestimonials(testimonials []TestimonialRecord) error {
	if len(testimonials) == 0 {
		return nil
	}
	_, err := m.client.Index(idxTestimonials).AddDocuments(testimonials, nil)
	return err
}

// IndexSubmissions bulk-indexes contact submissions.
func (m *Meili) IndexSubmissions(submissions []SubmissionRecord) error {
	if len(submissions) == 0 {
		return nil
	}
	_, err := m.client.Index(idxSubmissions).AddDocuments(submissions, nil)
	return err
}
