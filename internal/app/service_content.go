package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"atelier/cms/internal/store"
)

func (s *Service) sectionFor(name string) (store.SectionVersions, error) {
	section, ok := s.content.Section(name)
	if !ok {
		return nil, domainError(http.StatusNotFound, "UNKNOWN_SECTION", "Unknown section", map[string]any{"section": name})
	}
	return section, nil
}

func (s *Service) SectionNames() []string {
	return s.content.SectionNames()
}

// versionID pulls the id out of a typed section version.
func versionID(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var meta struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &meta)
	return meta.ID
}

// sectionEnvelope is the admin payload: all versions plus the edit focus
// (active version, or the newest one when nothing is active).
func (s *Service) sectionEnvelope(ctx context.Context, section store.SectionVersions) (map[string]any, error) {
	versions, err := section.ListAny(ctx)
	if err != nil {
		return nil, err
	}
	active, err := section.ActiveAny(ctx)
	if err != nil {
		return nil, err
	}

	focusID := ""
	if active != nil {
		focusID = versionID(active)
	} else if raw, err := json.Marshal(versions); err == nil {
		var metas []struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(raw, &metas) == nil && len(metas) > 0 {
			focusID = metas[0].ID
		}
	}

	return map[string]any{
		"section":  section.Name(),
		"versions": versions,
		"focusId":  focusID,
	}, nil
}

func (s *Service) ListSectionVersions(ctx context.Context, name string) (map[string]any, error) {
	section, err := s.sectionFor(name)
	if err != nil {
		return nil, err
	}
	return s.sectionEnvelope(ctx, section)
}

func (s *Service) GetSectionVersion(ctx context.Context, name, id string) (any, error) {
	section, err := s.sectionFor(name)
	if err != nil {
		return nil, err
	}
	v, err := section.GetAny(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Version not found", nil)
	}
	return v, nil
}

func (s *Service) CreateSectionVersion(ctx context.Context, name string, body []byte) (any, error) {
	section, err := s.sectionFor(name)
	if err != nil {
		return nil, err
	}
	created, err := section.CreateJSON(ctx, body)
	if err != nil {
		return nil, mapSectionError(err)
	}
	s.invalidateSectionCache(name)
	return created, nil
}

func (s *Service) UpdateSectionVersion(ctx context.Context, name, id string, body []byte) (any, error) {
	section, err := s.sectionFor(name)
	if err != nil {
		return nil, err
	}
	updated, err := section.UpdateJSON(ctx, id, body)
	if err != nil {
		return nil, mapSectionError(err)
	}
	if updated == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Version not found", nil)
	}
	s.invalidateSectionCache(name)
	return updated, nil
}

// DeleteSectionVersion removes a version and returns the remaining versions
// so the client can refocus on active ?? first.
func (s *Service) DeleteSectionVersion(ctx context.Context, name, id string) (map[string]any, error) {
	section, err := s.sectionFor(name)
	if err != nil {
		return nil, err
	}
	ok, err := section.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Version not found", nil)
	}
	s.invalidateSectionCache(name)

	envelope, err := s.sectionEnvelope(ctx, section)
	if err != nil {
		return nil, err
	}
	envelope["deleted"] = id
	return envelope, nil
}

func (s *Service) ActivateSectionVersion(ctx context.Context, name, id string) (map[string]any, error) {
	section, err := s.sectionFor(name)
	if err != nil {
		return nil, err
	}
	ok, err := section.Activate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Version not found", nil)
	}
	s.invalidateSectionCache(name)
	return s.sectionEnvelope(ctx, section)
}

func mapSectionError(err error) error {
	if errors.Is(err, store.ErrBadPayload) {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	return err
}

func (s *Service) invalidateSectionCache(name string) {
	if name == store.SectionNavbar || name == store.SectionFooter {
		s.settingsCache.Invalidate(name)
	}
}

// Public rendering

// activeOrDefault returns the active version of a section, or the hardcoded
// default literal when none is active.
func (s *Service) activeOrDefault(ctx context.Context, name string) (any, error) {
	section, ok := s.content.Section(name)
	if !ok {
		return nil, domainError(http.StatusInternalServerError, "SERVER_ERROR", "Unknown section", nil)
	}
	v, err := section.ActiveAny(ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return sectionDefault(name), nil
	}
	return v, nil
}

func (s *Service) Navbar(ctx context.Context) (any, error) {
	if v, ok := s.settingsCache.Get(store.SectionNavbar); ok {
		return v, nil
	}
	v, err := s.activeOrDefault(ctx, store.SectionNavbar)
	if err != nil {
		return nil, err
	}
	s.settingsCache.Set(store.SectionNavbar, v)
	return v, nil
}

func (s *Service) Footer(ctx context.Context) (any, error) {
	if v, ok := s.settingsCache.Get(store.SectionFooter); ok {
		return v, nil
	}
	v, err := s.activeOrDefault(ctx, store.SectionFooter)
	if err != nil {
		return nil, err
	}
	s.settingsCache.Set(store.SectionFooter, v)
	return v, nil
}

func (s *Service) HomePage(ctx context.Context) (map[string]any, error) {
	var (
		hero, features, cta any
		testimonialsHeading any
		brandsHeading       any
		testimonials        []*store.Testimonial
		brands              []*store.Brand
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { hero, err = s.activeOrDefault(ctx, store.SectionHero); return })
	g.Go(func() (err error) { features, err = s.activeOrDefault(ctx, store.SectionHomepageFeatures); return })
	g.Go(func() (err error) { cta, err = s.activeOrDefault(ctx, store.SectionHomepageCTA); return })
	g.Go(func() (err error) {
		testimonialsHeading, err = s.activeOrDefault(ctx, store.SectionTestimonialsHeading)
		return
	})
	g.Go(func() (err error) { brandsHeading, err = s.activeOrDefault(ctx, store.SectionBrandsHeading); return })
	g.Go(func() (err error) { testimonials, err = s.catalog.ListTestimonials(ctx, true); return })
	g.Go(func() (err error) { brands, err = s.catalog.ListBrands(ctx, true); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return map[string]any{
		"hero":                hero,
		"features":            features,
		"cta":                 cta,
		"testimonialsSection": testimonialsHeading,
		"testimonials":        testimonials,
		"brandsSection":       brandsHeading,
		"brands":              brands,
	}, nil
}

func (s *Service) AboutPage(ctx context.Context) (map[string]any, error) {
	var hero, mission, values, timeline any

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { hero, err = s.activeOrDefault(ctx, store.SectionAboutHero); return })
	g.Go(func() (err error) { mission, err = s.activeOrDefault(ctx, store.SectionAboutMission); return })
	g.Go(func() (err error) { values, err = s.activeOrDefault(ctx, store.SectionAboutValues); return })
	g.Go(func() (err error) { timeline, err = s.activeOrDefault(ctx, store.SectionAboutTimeline); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return map[string]any{
		"hero":     hero,
		"mission":  mission,
		"values":   values,
		"timeline": timeline,
	}, nil
}

func (s *Service) ServicesPage(ctx context.Context) (map[string]any, error) {
	var (
		cta      any
		services []*store.Service
		steps    []*store.ProcessStep
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { cta, err = s.activeOrDefault(ctx, store.SectionServicesCTA); return })
	g.Go(func() (err error) { services, err = s.catalog.ListServices(ctx, true); return })
	g.Go(func() (err error) { steps, err = s.catalog.ListProcessSteps(ctx, true); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return map[string]any{
		"services":     services,
		"processSteps": steps,
		"cta":          cta,
	}, nil
}

func (s *Service) ContactPage(ctx context.Context) (map[string]any, error) {
	var (
		hero, info any
		faqs       []*store.ContactFAQ
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { hero, err = s.activeOrDefault(ctx, store.SectionContactHero); return })
	g.Go(func() (err error) { info, err = s.activeOrDefault(ctx, store.SectionContactInfo); return })
	g.Go(func() (err error) { faqs, err = s.catalog.ListFAQs(ctx, true); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return map[string]any{
		"hero": hero,
		"info": info,
		"faqs": faqs,
	}, nil
}

func (s *Service) PoliciesPage(ctx context.Context) (map[string]any, error) {
	var (
		hero, heading any
		policies      []*store.Policy
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { hero, err = s.activeOrDefault(ctx, store.SectionPoliciesHero); return })
	g.Go(func() (err error) { heading, err = s.activeOrDefault(ctx, store.SectionPoliciesHeading); return })
	g.Go(func() (err error) { policies, err = s.policies.List(ctx, true); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return map[string]any{
		"hero":     hero,
		"section":  heading,
		"policies": policies,
	}, nil
}

func (s *Service) PublicPolicyBySlug(ctx context.Context, slug string) (*store.Policy, error) {
	policy, err := s.policies.GetBySlug(ctx, slug, true)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Policy not found", nil)
	}
	return policy, nil
}
