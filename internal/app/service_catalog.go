package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"atelier/cms/internal/export"
	"atelier/cms/internal/media"
	"atelier/cms/internal/search"
	"atelier/cms/internal/store"
	"atelier/cms/internal/util"
)

// Services

func (s *Service) ListServices(ctx context.Context, visibleOnly bool) ([]*store.Service, error) {
	return s.catalog.ListServices(ctx, visibleOnly)
}

func (s *Service) GetService(ctx context.Context, id string) (*store.Service, error) {
	svc, err := s.catalog.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Service not found", nil)
	}
	return svc, nil
}

func (s *Service) CreateService(ctx context.Context, in *store.Service) (*store.Service, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if err := checkIconName(in.IconName); err != nil {
		return nil, err
	}
	in.ID = util.NewID("svc")
	in.Slug = slugify(firstNonBlank(in.Slug, in.Title))
	if in.Slug == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "slug cannot be empty", nil)
	}
	if err := s.catalog.CreateService(ctx, in); err != nil {
		return nil, mapSlugError(err)
	}
	s.indexService(in)
	return in, nil
}

func (s *Service) UpdateService(ctx context.Context, id string, in *store.Service) (*store.Service, error) {
	in.ID = id
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if err := checkIconName(in.IconName); err != nil {
		return nil, err
	}
	in.Slug = slugify(firstNonBlank(in.Slug, in.Title))
	ok, err := s.catalog.UpdateService(ctx, in)
	if err != nil {
		return nil, mapSlugError(err)
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Service not found", nil)
	}
	updated, err := s.catalog.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	s.indexService(updated)
	return updated, nil
}

func (s *Service) DeleteService(ctx context.Context, id string) error {
	ok, err := s.catalog.DeleteService(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Service not found", nil)
	}
	if s.search != nil {
		s.search.DeleteService(id)
	}
	return nil
}

func (s *Service) ReorderServices(ctx context.Context, ids []string) error {
	return mapReorderError(s.catalog.ReorderServices(ctx, ids))
}

func (s *Service) indexService(svc *store.Service) {
	if s.search == nil || svc == nil {
		return
	}
	s.search.IndexService(search.ServiceRecord{
		ID:               svc.ID,
		Title:            svc.Title,
		Slug:             svc.Slug,
		ShortDescription: svc.ShortDescription,
	})
}

// Testimonials

func (s *Service) ListTestimonials(ctx context.Context, visibleOnly bool) ([]*store.Testimonial, error) {
	return s.catalog.ListTestimonials(ctx, visibleOnly)
}

func (s *Service) GetTestimonial(ctx context.Context, id string) (*store.Testimonial, error) {
	v, err := s.catalog.GetTestimonial(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Testimonial not found", nil)
	}
	return v, nil
}

func (s *Service) CreateTestimonial(ctx context.Context, in *store.Testimonial) (*store.Testimonial, error) {
	in.Quote = strings.TrimSpace(in.Quote)
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	if in.Quote == "" || in.AuthorName == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "quote and author_name are required", nil)
	}
	if in.Rating < 1 || in.Rating > 5 {
		in.Rating = 5
	}
	in.ID = util.NewID("tst")
	if err := s.catalog.CreateTestimonial(ctx, in); err != nil {
		return nil, err
	}
	s.indexTestimonial(in)
	return in, nil
}

func (s *Service) UpdateTestimonial(ctx context.Context, id string, in *store.Testimonial) (*store.Testimonial, error) {
	in.ID = id
	in.Quote = strings.TrimSpace(in.Quote)
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	if in.Quote == "" || in.AuthorName == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "quote and author_name are required", nil)
	}
	ok, err := s.catalog.UpdateTestimonial(ctx, in)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Testimonial not found", nil)
	}
	updated, err := s.catalog.GetTestimonial(ctx, id)
	if err != nil {
		return nil, err
	}
	s.indexTestimonial(updated)
	return updated, nil
}

func (s *Service) DeleteTestimonial(ctx context.Context, id string) error {
	ok, err := s.catalog.DeleteTestimonial(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Testimonial not found", nil)
	}
	if s.search != nil {
		s.search.DeleteTestimonial(id)
	}
	return nil
}

func (s *Service) ReorderTestimonials(ctx context.Context, ids []string) error {
	return mapReorderError(s.catalog.ReorderTestimonials(ctx, ids))
}

func (s *Service) indexTestimonial(t *store.Testimonial) {
	if s.search == nil || t == nil {
		return
	}
	s.search.IndexTestimonial(search.TestimonialRecord{
		ID:         t.ID,
		Quote:      t.Quote,
		AuthorName: t.AuthorName,
		Company:    t.Company,
	})
}

// Brands

func (s *Service) ListBrands(ctx context.Context, visibleOnly bool) ([]*store.Brand, error) {
	return s.catalog.ListBrands(ctx, visibleOnly)
}

func (s *Service) GetBrand(ctx context.Context, id string) (*store.Brand, error) {
	v, err := s.catalog.GetBrand(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Brand not found", nil)
	}
	return v, nil
}

func (s *Service) CreateBrand(ctx context.Context, in *store.Brand) (*store.Brand, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	in.ID = util.NewID("brd")
	if err := s.catalog.CreateBrand(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Service) UpdateBrand(ctx context.Context, id string, in *store.Brand) (*store.Brand, error) {
	in.ID = id
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	ok, err := s.catalog.UpdateBrand(ctx, in)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Brand not found", nil)
	}
	return s.catalog.GetBrand(ctx, id)
}

func (s *Service) DeleteBrand(ctx context.Context, id string) error {
	ok, err := s.catalog.DeleteBrand(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Brand not found", nil)
	}
	return nil
}

func (s *Service) ReorderBrands(ctx context.Context, ids []string) error {
	return mapReorderError(s.catalog.ReorderBrands(ctx, ids))
}

// Contact FAQs

func (s *Service) ListFAQs(ctx context.Context, visibleOnly bool) ([]*store.ContactFAQ, error) {
	return s.catalog.ListFAQs(ctx, visibleOnly)
}

func (s *Service) GetFAQ(ctx context.Context, id string) (*store.ContactFAQ, error) {
	v, err := s.catalog.GetFAQ(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "FAQ not found", nil)
	}
	return v, nil
}

func (s *Service) CreateFAQ(ctx context.Context, in *store.ContactFAQ) (*store.ContactFAQ, error) {
	in.Question = strings.TrimSpace(in.Question)
	in.Answer = strings.TrimSpace(in.Answer)
	if in.Question == "" || in.Answer == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "question and answer are required", nil)
	}
	in.ID = util.NewID("faq")
	if err := s.catalog.CreateFAQ(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Service) UpdateFAQ(ctx context.Context, id string, in *store.ContactFAQ) (*store.ContactFAQ, error) {
	in.ID = id
	in.Question = strings.TrimSpace(in.Question)
	in.Answer = strings.TrimSpace(in.Answer)
	if in.Question == "" || in.Answer == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "question and answer are required", nil)
	}
	ok, err := s.catalog.UpdateFAQ(ctx, in)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "FAQ not found", nil)
	}
	return s.catalog.GetFAQ(ctx, id)
}

func (s *Service) DeleteFAQ(ctx context.Context, id string) error {
	ok, err := s.catalog.DeleteFAQ(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "FAQ not found", nil)
	}
	return nil
}

func (s *Service) ReorderFAQs(ctx context.Context, ids []string) error {
	return mapReorderError(s.catalog.ReorderFAQs(ctx, ids))
}

// Process steps

func (s *Service) ListProcessSteps(ctx context.Context, visibleOnly bool) ([]*store.ProcessStep, error) {
	return s.catalog.ListProcessSteps(ctx, visibleOnly)
}

func (s *Service) GetProcessStep(ctx context.Context, id string) (*store.ProcessStep, error) {
	v, err := s.catalog.GetProcessStep(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Process step not found", nil)
	}
	return v, nil
}

func (s *Service) CreateProcessStep(ctx context.Context, in *store.ProcessStep) (*store.ProcessStep, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	in.ID = util.NewID("stp")
	if err := s.catalog.CreateProcessStep(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Service) UpdateProcessStep(ctx context.Context, id string, in *store.ProcessStep) (*store.ProcessStep, error) {
	in.ID = id
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	ok, err := s.catalog.UpdateProcessStep(ctx, in)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Process step not found", nil)
	}
	return s.catalog.GetProcessStep(ctx, id)
}

func (s *Service) DeleteProcessStep(ctx context.Context, id string) error {
	ok, err := s.catalog.DeleteProcessStep(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Process step not found", nil)
	}
	return nil
}

func (s *Service) ReorderProcessSteps(ctx context.Context, ids []string) error {
	return mapReorderError(s.catalog.ReorderProcessSteps(ctx, ids))
}

// Policies

func (s *Service) ListPolicies(ctx context.Context, activeOnly bool) ([]*store.Policy, error) {
	return s.policies.List(ctx, activeOnly)
}

func (s *Service) GetPolicy(ctx context.Context, id string) (*store.Policy, error) {
	policy, err := s.policies.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Policy not found", nil)
	}
	return policy, nil
}

func (s *Service) CreatePolicy(ctx context.Context, in *store.Policy) (*store.Policy, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if err := validateIconSVG(in.IconSVG); err != nil {
		return nil, err
	}
	in.ID = util.NewID("pol")
	in.Slug = slugify(firstNonBlank(in.Slug, in.Title))
	if in.Slug == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "slug cannot be empty", nil)
	}
	if err := s.policies.Create(ctx, in); err != nil {
		return nil, mapSlugError(err)
	}
	s.indexPolicy(in)
	return in, nil
}

func (s *Service) UpdatePolicy(ctx context.Context, id string, in *store.Policy) (*store.Policy, error) {
	in.ID = id
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if err := validateIconSVG(in.IconSVG); err != nil {
		return nil, err
	}
	in.Slug = slugify(firstNonBlank(in.Slug, in.Title))
	ok, err := s.policies.Update(ctx, in)
	if err != nil {
		return nil, mapSlugError(err)
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Policy not found", nil)
	}
	updated, err := s.policies.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.indexPolicy(updated)
	return updated, nil
}

func (s *Service) SetPolicyActive(ctx context.Context, id string, active bool) (*store.Policy, error) {
	ok, err := s.policies.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Policy not found", nil)
	}
	return s.policies.Get(ctx, id)
}

func (s *Service) DeletePolicy(ctx context.Context, id string) error {
	ok, err := s.policies.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Policy not found", nil)
	}
	if s.search != nil {
		s.search.DeletePolicy(id)
	}
	return nil
}

func (s *Service) ReorderPolicies(ctx context.Context, ids []string) error {
	return mapReorderError(s.policies.Reorder(ctx, ids))
}

func (s *Service) ExportPolicy(ctx context.Context, id string, format string) (*export.Result, error) {
	if s.export == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export is not configured", nil)
	}
	policy, err := s.GetPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := s.export.ExportPolicy(ctx, export.Policy{
		Title:          policy.Title,
		Slug:           policy.Slug,
		Description:    policy.Description,
		Purpose:        policy.Purpose,
		Scope:          policy.Scope,
		Responsibility: policy.Responsibility,
		UpdatedAt:      policy.UpdatedAt,
	}, export.Format(format))
	if err != nil {
		switch {
		case errors.Is(err, export.ErrUnsupportedFormat):
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be pdf or docx", nil)
		case errors.Is(err, export.ErrPDFDependencyMissing), errors.Is(err, export.ErrDOCXDependencyMissing):
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", err.Error(), nil)
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) indexPolicy(p *store.Policy) {
	if s.search == nil || p == nil {
		return
	}
	s.search.IndexPolicy(search.PolicyRecord{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Description: p.Description,
		Purpose:     p.Purpose,
	})
}

// Settings, pages, assets

func (s *Service) ListSettings(ctx context.Context) ([]*store.SiteSetting, error) {
	return s.settings.ListSettings(ctx)
}

func (s *Service) GetSetting(ctx context.Context, key string) (*store.SiteSetting, error) {
	setting, err := s.settings.GetSetting(ctx, key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Setting not found", nil)
	}
	return setting, nil
}

func (s *Service) UpsertSetting(ctx context.Context, key string, value json.RawMessage) (*store.SiteSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "setting key is required", nil)
	}
	if len(value) == 0 || !json.Valid(value) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "setting value must be valid JSON", nil)
	}
	if err := s.settings.UpsertSetting(ctx, key, value); err != nil {
		return nil, err
	}
	return s.settings.GetSetting(ctx, key)
}

var allowedPageStatuses = map[string]struct{}{
	"published": {},
	"draft":     {},
}

func (s *Service) ListPages(ctx context.Context) ([]*store.Page, error) {
	return s.settings.ListPages(ctx)
}

func (s *Service) CreatePage(ctx context.Context, in *store.Page) (*store.Page, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	if in.Status == "" {
		in.Status = "published"
	}
	if _, ok := allowedPageStatuses[in.Status]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be published or draft", nil)
	}
	in.ID = util.NewID("pg")
	in.Slug = slugify(firstNonBlank(in.Slug, in.Title))
	if err := s.settings.CreatePage(ctx, in); err != nil {
		return nil, mapSlugError(err)
	}
	return in, nil
}

func (s *Service) UpdatePageStatus(ctx context.Context, id, status string) error {
	if _, ok := allowedPageStatuses[status]; !ok {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be published or draft", nil)
	}
	ok, err := s.settings.UpdatePageStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Page not found", nil)
	}
	return nil
}

func (s *Service) DeletePage(ctx context.Context, id string) error {
	ok, err := s.settings.DeletePage(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Page not found", nil)
	}
	return nil
}

func (s *Service) ListAssets(ctx context.Context, kind string) ([]*store.Asset, error) {
	return s.settings.ListAssets(ctx, kind)
}

func (s *Service) DeleteAsset(ctx context.Context, id string) error {
	ok, err := s.settings.DeleteAsset(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Asset not found", nil)
	}
	return nil
}

// UploadMedia validates and stores an image, then records it as an asset.
func (s *Service) UploadMedia(ctx context.Context, kind, fileName, contentType string, size int64, r io.Reader) (*store.Asset, error) {
	if s.media == nil {
		return nil, domainError(http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "Media storage is not configured", nil)
	}
	upload, err := s.media.Put(ctx, kind, fileName, contentType, size, r)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrNotConfigured):
			return nil, domainError(http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "Media storage is not configured", nil)
		case errors.Is(err, media.ErrUnknownKind):
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown upload kind", map[string]any{"kinds": media.Kinds()})
		case errors.Is(err, media.ErrNotImage):
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "only image uploads are accepted", nil)
		case errors.Is(err, media.ErrTooLarge):
			return nil, domainError(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error(), nil)
		}
		return nil, err
	}

	asset := &store.Asset{
		ID:          util.NewID("ast"),
		FileName:    upload.FileName,
		URL:         upload.URL,
		ContentType: upload.ContentType,
		SizeBytes:   upload.SizeBytes,
		Kind:        upload.Kind,
	}
	if err := s.settings.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// Shared validation helpers

func checkIconName(name string) error {
	if name == "" || store.IsAllowedIcon(name) {
		return nil
	}
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown icon name", map[string]any{"allowed": store.AllowedIcons()})
}

var (
	svgEventAttrRx = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
	svgJSURLRx     = regexp.MustCompile(`(?i)javascript\s*:`)
)

// validateIconSVG accepts an empty value or a single inline <svg> element with
// no scriptable content.
func validateIconSVG(svg string) error {
	trimmed := strings.TrimSpace(svg)
	if trimmed == "" {
		return nil
	}
	reject := func(reason string) error {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "icon_svg rejected: "+reason, nil)
	}
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "<svg") || !strings.HasSuffix(lower, "</svg>") {
		return reject("must be a single <svg> element")
	}
	if strings.Count(lower, "<svg") != 1 {
		return reject("must be a single <svg> element")
	}
	if strings.Contains(lower, "<script") || strings.Contains(lower, "<foreignobject") {
		return reject("scriptable content is not allowed")
	}
	if svgEventAttrRx.MatchString(trimmed) {
		return reject("event handler attributes are not allowed")
	}
	if svgJSURLRx.MatchString(trimmed) {
		return reject("javascript URLs are not allowed")
	}
	return nil
}

func mapSlugError(err error) error {
	if errors.Is(err, store.ErrDuplicateSlug) {
		return domainError(http.StatusConflict, "DUPLICATE_SLUG", "Slug already in use", nil)
	}
	return err
}

func mapReorderError(err error) error {
	if errors.Is(err, store.ErrUnknownID) {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "reorder list contains an unknown id", nil)
	}
	return err
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
