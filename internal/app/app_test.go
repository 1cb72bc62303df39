package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"atelier/cms/internal/config"
	"atelier/cms/internal/store"
)

var allSectionNames = []string{
	store.SectionHero,
	store.SectionNavbar,
	store.SectionFooter,
	store.SectionHomepageFeatures,
	store.SectionHomepageCTA,
	store.SectionTestimonialsHeading,
	store.SectionBrandsHeading,
	store.SectionAboutHero,
	store.SectionAboutMission,
	store.SectionAboutValues,
	store.SectionAboutTimeline,
	store.SectionServicesCTA,
	store.SectionPoliciesHero,
	store.SectionPoliciesHeading,
	store.SectionContactHero,
	store.SectionContactInfo,
}

// In-memory fakes for the store seams. Each one keeps just enough state for
// the behavior under test.

type fakeVersion struct {
	ID       string          `json:"id"`
	IsActive bool            `json:"is_active"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type fakeSection struct {
	name     string
	versions []*fakeVersion
	nextID   int
	err      error

	activeCalls int
}

func (f *fakeSection) Name() string { return f.name }

func (f *fakeSection) ListAny(ctx context.Context) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]fakeVersion, 0, len(f.versions))
	for _, v := range f.versions {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeSection) GetAny(ctx context.Context, id string) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.versions {
		if v.ID == id {
			return *v, nil
		}
	}
	return nil, nil
}

func (f *fakeSection) ActiveAny(ctx context.Context) (any, error) {
	f.activeCalls++
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.versions {
		if v.IsActive {
			return *v, nil
		}
	}
	return nil, nil
}

func (f *fakeSection) CreateJSON(ctx context.Context, body []byte) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	v := &fakeVersion{ID: fmt.Sprintf("v%d", f.nextID), Payload: append([]byte(nil), body...)}
	f.versions = append(f.versions, v)
	return *v, nil
}

func (f *fakeSection) UpdateJSON(ctx context.Context, id string, body []byte) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	var flags struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.Unmarshal(body, &flags); err != nil {
		return nil, store.ErrBadPayload
	}
	for _, v := range f.versions {
		if v.ID == id {
			v.Payload = append([]byte(nil), body...)
			if flags.IsActive {
				for _, o := range f.versions {
					o.IsActive = o.ID == id
				}
			} else {
				v.IsActive = false
			}
			return *v, nil
		}
	}
	return nil, nil
}

func (f *fakeSection) Delete(ctx context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for i, v := range f.versions {
		if v.ID == id {
			f.versions = append(f.versions[:i], f.versions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSection) Activate(ctx context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	found := false
	for _, v := range f.versions {
		if v.ID == id {
			found = true
		}
	}
	if !found {
		return false, nil
	}
	for _, v := range f.versions {
		v.IsActive = v.ID == id
	}
	return true, nil
}

type fakeContent struct {
	sections map[string]*fakeSection
}

func newFakeContent(names ...string) *fakeContent {
	f := &fakeContent{sections: make(map[string]*fakeSection)}
	for _, name := range names {
		f.sections[name] = &fakeSection{name: name}
	}
	return f
}

func (f *fakeContent) Section(name string) (store.SectionVersions, bool) {
	section, ok := f.sections[name]
	if !ok {
		return nil, false
	}
	return section, true
}

func (f *fakeContent) SectionNames() []string {
	names := make([]string, 0, len(f.sections))
	for name := range f.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fakeCatalog struct {
	services     []*store.Service
	testimonials []*store.Testimonial
	brands       []*store.Brand
	faqs         []*store.ContactFAQ
	steps        []*store.ProcessStep

	reorderErr   error
	reorderCalls [][]string
}

func (f *fakeCatalog) ListServices(ctx context.Context, visibleOnly bool) ([]*store.Service, error) {
	if !visibleOnly {
		return f.services, nil
	}
	var out []*store.Service
	for _, v := range f.services {
		if v.Visible {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetService(ctx context.Context, id string) (*store.Service, error) {
	for _, v := range f.services {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) GetServiceBySlug(ctx context.Context, slug string) (*store.Service, error) {
	for _, v := range f.services {
		if v.Slug == slug {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CreateService(ctx context.Context, v *store.Service) error {
	for _, existing := range f.services {
		if existing.Slug == v.Slug {
			return store.ErrDuplicateSlug
		}
	}
	f.services = append(f.services, v)
	return nil
}

func (f *fakeCatalog) UpdateService(ctx context.Context, v *store.Service) (bool, error) {
	for i, existing := range f.services {
		if existing.ID == v.ID {
			f.services[i] = v
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) DeleteService(ctx context.Context, id string) (bool, error) {
	for i, v := range f.services {
		if v.ID == id {
			f.services = append(f.services[:i], f.services[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) ReorderServices(ctx context.Context, ids []string) error {
	if f.reorderErr != nil {
		return f.reorderErr
	}
	f.reorderCalls = append(f.reorderCalls, append([]string(nil), ids...))
	byID := make(map[string]*store.Service, len(f.services))
	for _, v := range f.services {
		byID[v.ID] = v
	}
	ordered := make([]*store.Service, 0, len(ids))
	for i, id := range ids {
		v, ok := byID[id]
		if !ok {
			return store.ErrUnknownID
		}
		v.OrderIndex = i + 1
		ordered = append(ordered, v)
	}
	f.services = ordered
	return nil
}

func (f *fakeCatalog) ListTestimonials(ctx context.Context, visibleOnly bool) ([]*store.Testimonial, error) {
	if !visibleOnly {
		return f.testimonials, nil
	}
	var out []*store.Testimonial
	for _, v := range f.testimonials {
		if v.Visible {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetTestimonial(ctx context.Context, id string) (*store.Testimonial, error) {
	for _, v := range f.testimonials {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CreateTestimonial(ctx context.Context, v *store.Testimonial) error {
	f.testimonials = append(f.testimonials, v)
	return nil
}

func (f *fakeCatalog) UpdateTestimonial(ctx context.Context, v *store.Testimonial) (bool, error) {
	for i, existing := range f.testimonials {
		if existing.ID == v.ID {
			f.testimonials[i] = v
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) DeleteTestimonial(ctx context.Context, id string) (bool, error) {
	for i, v := range f.testimonials {
		if v.ID == id {
			f.testimonials = append(f.testimonials[:i], f.testimonials[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) ReorderTestimonials(ctx context.Context, ids []string) error {
	return f.reorderErr
}

func (f *fakeCatalog) ListBrands(ctx context.Context, visibleOnly bool) ([]*store.Brand, error) {
	if !visibleOnly {
		return f.brands, nil
	}
	var out []*store.Brand
	for _, v := range f.brands {
		if v.Visible {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetBrand(ctx context.Context, id string) (*store.Brand, error) {
	for _, v := range f.brands {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CreateBrand(ctx context.Context, v *store.Brand) error {
	f.brands = append(f.brands, v)
	return nil
}

func (f *fakeCatalog) UpdateBrand(ctx context.Context, v *store.Brand) (bool, error) {
	for i, existing := range f.brands {
		if existing.ID == v.ID {
			f.brands[i] = v
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) DeleteBrand(ctx context.Context, id string) (bool, error) {
	for i, v := range f.brands {
		if v.ID == id {
			f.brands = append(f.brands[:i], f.brands[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) ReorderBrands(ctx context.Context, ids []string) error {
	return f.reorderErr
}

func (f *fakeCatalog) ListFAQs(ctx context.Context, visibleOnly bool) ([]*store.ContactFAQ, error) {
	if !visibleOnly {
		return f.faqs, nil
	}
	var out []*store.ContactFAQ
	for _, v := range f.faqs {
		if v.Visible {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetFAQ(ctx context.Context, id string) (*store.ContactFAQ, error) {
	for _, v := range f.faqs {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CreateFAQ(ctx context.Context, v *store.ContactFAQ) error {
	f.faqs = append(f.faqs, v)
	return nil
}

func (f *fakeCatalog) UpdateFAQ(ctx context.Context, v *store.ContactFAQ) (bool, error) {
	for i, existing := range f.faqs {
		if existing.ID == v.ID {
			f.faqs[i] = v
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) DeleteFAQ(ctx context.Context, id string) (bool, error) {
	for i, v := range f.faqs {
		if v.ID == id {
			f.faqs = append(f.faqs[:i], f.faqs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) ReorderFAQs(ctx context.Context, ids []string) error {
	return f.reorderErr
}

func (f *fakeCatalog) ListProcessSteps(ctx context.Context, visibleOnly bool) ([]*store.ProcessStep, error) {
	if !visibleOnly {
		return f.steps, nil
	}
	var out []*store.ProcessStep
	for _, v := range f.steps {
		if v.Visible {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetProcessStep(ctx context.Context, id string) (*store.ProcessStep, error) {
	for _, v := range f.steps {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CreateProcessStep(ctx context.Context, v *store.ProcessStep) error {
	f.steps = append(f.steps, v)
	return nil
}

func (f *fakeCatalog) UpdateProcessStep(ctx context.Context, v *store.ProcessStep) (bool, error) {
	for i, existing := range f.steps {
		if existing.ID == v.ID {
			f.steps[i] = v
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) DeleteProcessStep(ctx context.Context, id string) (bool, error) {
	for i, v := range f.steps {
		if v.ID == id {
			f.steps = append(f.steps[:i], f.steps[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) ReorderProcessSteps(ctx context.Context, ids []string) error {
	return f.reorderErr
}

type fakePolicies struct {
	policies   []*store.Policy
	reorderErr error
}

func (f *fakePolicies) List(ctx context.Context, activeOnly bool) ([]*store.Policy, error) {
	if !activeOnly {
		return f.policies, nil
	}
	var out []*store.Policy
	for _, v := range f.policies {
		if v.IsActive {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakePolicies) Get(ctx context.Context, id string) (*store.Policy, error) {
	for _, v := range f.policies {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakePolicies) GetBySlug(ctx context.Context, slug string, activeOnly bool) (*store.Policy, error) {
	for _, v := range f.policies {
		if v.Slug == slug && (!activeOnly || v.IsActive) {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakePolicies) Create(ctx context.Context, v *store.Policy) error {
	for _, existing := range f.policies {
		if existing.Slug == v.Slug {
			return store.ErrDuplicateSlug
		}
	}
	f.policies = append(f.policies, v)
	return nil
}

func (f *fakePolicies) Update(ctx context.Context, v *store.Policy) (bool, error) {
	for i, existing := range f.policies {
		if existing.ID == v.ID {
			f.policies[i] = v
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePolicies) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	for _, v := range f.policies {
		if v.ID == id {
			v.IsActive = active
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePolicies) Delete(ctx context.Context, id string) (bool, error) {
	for i, v := range f.policies {
		if v.ID == id {
			f.policies = append(f.policies[:i], f.policies[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePolicies) Reorder(ctx context.Context, ids []string) error {
	return f.reorderErr
}

type fakeContacts struct {
	submissions []*store.ContactSubmission
}

func (f *fakeContacts) List(ctx context.Context, status string) ([]*store.ContactSubmission, error) {
	if status == "" {
		return f.submissions, nil
	}
	var out []*store.ContactSubmission
	for _, v := range f.submissions {
		if v.Status == status {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeContacts) Get(ctx context.Context, id string) (*store.ContactSubmission, error) {
	for _, v := range f.submissions {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakeContacts) Create(ctx context.Context, v *store.ContactSubmission) error {
	f.submissions = append(f.submissions, v)
	return nil
}

func (f *fakeContacts) UpdateTriage(ctx context.Context, id, status, notes string) (bool, error) {
	for _, v := range f.submissions {
		if v.ID == id {
			v.Status = status
			v.Notes = notes
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeContacts) Delete(ctx context.Context, id string) (bool, error) {
	for i, v := range f.submissions {
		if v.ID == id {
			f.submissions = append(f.submissions[:i], f.submissions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeSettings struct {
	settings map[string]*store.SiteSetting
	pages    []*store.Page
	assets   []*store.Asset
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{settings: make(map[string]*store.SiteSetting)}
}

func (f *fakeSettings) ListSettings(ctx context.Context) ([]*store.SiteSetting, error) {
	out := make([]*store.SiteSetting, 0, len(f.settings))
	for _, v := range f.settings {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeSettings) GetSetting(ctx context.Context, key string) (*store.SiteSetting, error) {
	return f.settings[key], nil
}

func (f *fakeSettings) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	f.settings[key] = &store.SiteSetting{Key: key, Value: value, UpdatedAt: time.Now()}
	return nil
}

func (f *fakeSettings) ListPages(ctx context.Context) ([]*store.Page, error) {
	return f.pages, nil
}

func (f *fakeSettings) CreatePage(ctx context.Context, v *store.Page) error {
	for _, existing := range f.pages {
		if existing.Slug == v.Slug {
			return store.ErrDuplicateSlug
		}
	}
	f.pages = append(f.pages, v)
	return nil
}

func (f *fakeSettings) UpdatePageStatus(ctx context.Context, id, status string) (bool, error) {
	for _, v := range f.pages {
		if v.ID == id {
			v.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSettings) DeletePage(ctx context.Context, id string) (bool, error) {
	for i, v := range f.pages {
		if v.ID == id {
			f.pages = append(f.pages[:i], f.pages[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSettings) ListAssets(ctx context.Context, kind string) ([]*store.Asset, error) {
	if kind == "" {
		return f.assets, nil
	}
	var out []*store.Asset
	for _, v := range f.assets {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeSettings) CreateAsset(ctx context.Context, v *store.Asset) error {
	f.assets = append(f.assets, v)
	return nil
}

func (f *fakeSettings) DeleteAsset(ctx context.Context, id string) (bool, error) {
	for i, v := range f.assets {
		if v.ID == id {
			f.assets = append(f.assets[:i], f.assets[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeUsers struct {
	users   map[string]store.User
	revoked map[string]bool
	refresh map[string]string
	pingErr error
}

func newFakeUsers(users ...store.User) *fakeUsers {
	f := &fakeUsers{
		users:   make(map[string]store.User),
		revoked: make(map[string]bool),
		refresh: make(map[string]string),
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (store.User, error) {
	u, ok := f.users[id]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) ListUsers(ctx context.Context) ([]store.User, error) {
	out := make([]store.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) CreateUser(ctx context.Context, user store.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) UpdateUserRole(ctx context.Context, userID, role string) (bool, error) {
	u, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	u.Role = role
	f.users[userID] = u
	return true, nil
}

func (f *fakeUsers) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	f.revoked[jti] = true
	return nil
}

func (f *fakeUsers) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func (f *fakeUsers) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeUsers) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	f.refresh[tokenHash] = userID
	return nil
}

func (f *fakeUsers) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	userID, ok := f.refresh[tokenHash]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return f.GetUserByID(ctx, userID)
}

func (f *fakeUsers) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	delete(f.refresh, tokenHash)
	return nil
}

type testEnv struct {
	content  *fakeContent
	catalog  *fakeCatalog
	policies *fakePolicies
	contacts *fakeContacts
	settings *fakeSettings
	users    *fakeUsers
	service  *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		content:  newFakeContent(allSectionNames...),
		catalog:  &fakeCatalog{},
		policies: &fakePolicies{},
		contacts: &fakeContacts{},
		settings: newFakeSettings(),
		users:    newFakeUsers(),
	}
	cfg := config.Config{
		JWTSecret:        "test-secret",
		AccessTTL:        time.Hour,
		RefreshTTL:       24 * time.Hour,
		SettingsCacheTTL: time.Minute,
	}
	env.service = New(cfg, Deps{
		Content:  env.content,
		Catalog:  env.catalog,
		Policies: env.policies,
		Contacts: env.contacts,
		Settings: env.settings,
		Users:    env.users,
	})
	return env
}
