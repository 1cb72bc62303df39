package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultPolicy      ResultType = "policy"
	ResultService     ResultType = "service"
	ResultTestimonial ResultType = "testimonial"
	ResultSubmission  ResultType = "submission"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	Slug    string     `json:"slug,omitempty"`
	Status  string     `json:"status,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// PolicyRecord is the data we index for a policy.
type PolicyRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Purpose     string `json:"purpose"`
}

// ServiceRecord is the data we index for a catalog service.
type ServiceRecord struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Slug             string `json:"slug"`
	ShortDescription string `json:"shortDescription"`
}

// TestimonialRecord is the data we index for a testimonial.
type TestimonialRecord struct {
	ID         string `json:"id"`
	Quote      string `json:"quote"`
	AuthorName string `json:"authorName"`
	Company    string `json:"company"`
}

// SubmissionRecord is the data we index for a contact submission.
type SubmissionRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
