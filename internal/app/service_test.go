package app

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"atelier/cms/internal/store"
)

func domainStatus(t *testing.T, err error) int {
	t.Helper()
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr.Status
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Brand Strategy", "brand-strategy"},
		{"  Web   Design!  ", "web-design"},
		{"Privacy & Cookies Policy", "privacy-cookies-policy"},
		{"UPPER-case", "upper-case"},
		{"---", ""},
		{"été 2024", "t-2024"},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateIconSVG(t *testing.T) {
	cases := []struct {
		name  string
		svg   string
		valid bool
	}{
		{"empty", "", true},
		{"plain icon", `<svg viewBox="0 0 24 24"><path d="M0 0h24v24"/></svg>`, true},
		{"not svg", `<div>hi</div>`, false},
		{"script element", `<svg><script>alert(1)</script></svg>`, false},
		{"foreign object", `<svg><foreignObject><body/></foreignObject></svg>`, false},
		{"event handler", `<svg onload="alert(1)"><path/></svg>`, false},
		{"javascript url", `<svg><a href="javascript:alert(1)"><path/></a></svg>`, false},
		{"nested svg", `<svg><svg></svg></svg>`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateIconSVG(tc.svg)
			if tc.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.valid {
				if err == nil {
					t.Fatal("expected rejection")
				}
				if got := domainStatus(t, err); got != http.StatusUnprocessableEntity {
					t.Errorf("status = %d, want 422", got)
				}
			}
		})
	}
}

func TestSubmitContactValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.service.SubmitContact(ctx, ContactInput{Name: "A", Email: "a@b.co"})
	if got := domainStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("missing message: status = %d, want 400", got)
	}

	_, err = env.service.SubmitContact(ctx, ContactInput{Name: "A", Email: "not-an-email", Message: "hi"})
	if got := domainStatus(t, err); got != http.StatusBadRequest {
		t.Errorf("bad email: status = %d, want 400", got)
	}

	if len(env.contacts.submissions) != 0 {
		t.Fatalf("expected no submissions stored, got %d", len(env.contacts.submissions))
	}
}

func TestSubmitContactDefaultsToNew(t *testing.T) {
	env := newTestEnv()
	sub, err := env.service.SubmitContact(context.Background(), ContactInput{
		Name:    "  Jordan Lane  ",
		Email:   "jordan@example.com",
		Service: "Brand Strategy",
		Message: "Tell me more.",
	})
	if err != nil {
		t.Fatalf("SubmitContact() error = %v", err)
	}
	if sub.Status != "new" {
		t.Errorf("Status = %q, want new", sub.Status)
	}
	if sub.Name != "Jordan Lane" {
		t.Errorf("Name = %q, want trimmed", sub.Name)
	}
	if sub.ID == "" {
		t.Error("expected generated id")
	}
	if len(env.contacts.submissions) != 1 {
		t.Fatalf("expected one stored submission, got %d", len(env.contacts.submissions))
	}
}

func TestTriageSubmissionRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv()
	env.contacts.submissions = []*store.ContactSubmission{{ID: "sub_1", Status: "new"}}

	_, err := env.service.TriageSubmission(context.Background(), "sub_1", "spam", "")
	if got := domainStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", got)
	}

	got, err := env.service.TriageSubmission(context.Background(), "sub_1", "archived", "done")
	if err != nil {
		t.Fatalf("TriageSubmission() error = %v", err)
	}
	if got.Status != "archived" || got.Notes != "done" {
		t.Errorf("triage not applied: %+v", got)
	}
}

func TestListSubmissionsRejectsUnknownFilter(t *testing.T) {
	env := newTestEnv()
	_, err := env.service.ListSubmissions(context.Background(), "bogus")
	if got := domainStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", got)
	}
}

func TestSearchUnavailableWithoutBackend(t *testing.T) {
	env := newTestEnv()
	_, err := env.service.Search(context.Background(), "hero", "", 10, 0)
	if got := domainStatus(t, err); got != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", got)
	}
}

func TestCreateServiceValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.service.CreateService(ctx, &store.Service{Title: "  "})
	if got := domainStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Errorf("blank title: status = %d, want 422", got)
	}

	_, err = env.service.CreateService(ctx, &store.Service{Title: "Web", IconName: "definitely-not-an-icon"})
	if got := domainStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Errorf("bad icon: status = %d, want 422", got)
	}

	created, err := env.service.CreateService(ctx, &store.Service{Title: "Brand Strategy"})
	if err != nil {
		t.Fatalf("CreateService() error = %v", err)
	}
	if created.Slug != "brand-strategy" {
		t.Errorf("Slug = %q, want brand-strategy", created.Slug)
	}

	_, err = env.service.CreateService(ctx, &store.Service{Title: "Brand Strategy"})
	if got := domainStatus(t, err); got != http.StatusConflict {
		t.Errorf("duplicate slug: status = %d, want 409", got)
	}
}

func TestReorderServicesNormalizesOrder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.catalog.services = []*store.Service{
		{ID: "svc_a", OrderIndex: 1},
		{ID: "svc_b", OrderIndex: 2},
		{ID: "svc_c", OrderIndex: 3},
	}

	want := []string{"svc_c", "svc_a", "svc_b"}
	if err := env.service.ReorderServices(ctx, want); err != nil {
		t.Fatalf("ReorderServices() error = %v", err)
	}
	// Repeat with the same list: still accepted, still the same sequence.
	if err := env.service.ReorderServices(ctx, want); err != nil {
		t.Fatalf("ReorderServices() repeat error = %v", err)
	}

	if len(env.catalog.reorderCalls) != 2 {
		t.Fatalf("reorder calls = %d, want 2", len(env.catalog.reorderCalls))
	}
	for pass, call := range env.catalog.reorderCalls {
		if !reflect.DeepEqual(call, want) {
			t.Errorf("pass %d: written order = %v, want %v", pass+1, call, want)
		}
	}
	for i, svc := range env.catalog.services {
		if svc.ID != want[i] || svc.OrderIndex != i+1 {
			t.Errorf("services[%d] = %s (order %d), want %s (order %d)",
				i, svc.ID, svc.OrderIndex, want[i], i+1)
		}
	}
}

func TestReorderMapsUnknownID(t *testing.T) {
	env := newTestEnv()
	env.catalog.reorderErr = store.ErrUnknownID

	err := env.service.ReorderServices(context.Background(), []string{"svc_missing"})
	if got := domainStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", got)
	}
}

func TestCreatePolicySlugAndActivation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.service.CreatePolicy(ctx, &store.Policy{Title: "Privacy Policy", IsActive: true})
	if err != nil {
		t.Fatalf("CreatePolicy() error = %v", err)
	}
	if created.Slug != "privacy-policy" {
		t.Errorf("Slug = %q, want privacy-policy", created.Slug)
	}

	updated, err := env.service.SetPolicyActive(ctx, created.ID, false)
	if err != nil {
		t.Fatalf("SetPolicyActive() error = %v", err)
	}
	if updated.IsActive {
		t.Error("expected policy deactivated")
	}

	if _, err := env.service.PublicPolicyBySlug(ctx, "privacy-policy"); err == nil {
		t.Error("expected inactive policy hidden from public lookup")
	}
}

func TestUpdateUserRoleValidation(t *testing.T) {
	env := newTestEnv()
	env.users.users["usr_1"] = store.User{ID: "usr_1", Role: "editor"}

	err := env.service.UpdateUserRole(context.Background(), "usr_1", "superuser")
	if got := domainStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", got)
	}

	if err := env.service.UpdateUserRole(context.Background(), "usr_1", "admin"); err != nil {
		t.Fatalf("UpdateUserRole() error = %v", err)
	}
	if env.users.users["usr_1"].Role != "admin" {
		t.Error("role not persisted")
	}

	err = env.service.UpdateUserRole(context.Background(), "usr_missing", "admin")
	if got := domainStatus(t, err); got != http.StatusNotFound {
		t.Errorf("status = %d, want 404", got)
	}
}

func TestUpsertSettingValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.service.UpsertSetting(ctx, "  ", []byte(`{}`))
	if got := domainStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Errorf("blank key: status = %d, want 422", got)
	}

	_, err = env.service.UpsertSetting(ctx, "theme", []byte(`{not json`))
	if got := domainStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Errorf("invalid JSON: status = %d, want 422", got)
	}

	setting, err := env.service.UpsertSetting(ctx, "theme", []byte(`{"mode":"dark"}`))
	if err != nil {
		t.Fatalf("UpsertSetting() error = %v", err)
	}
	if setting.Key != "theme" {
		t.Errorf("Key = %q, want theme", setting.Key)
	}
}

func TestCreatePageStatusValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.service.CreatePage(ctx, &store.Page{Title: "About", Status: "hidden"})
	if got := domainStatus(t, err); got != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", got)
	}

	page, err := env.service.CreatePage(ctx, &store.Page{Title: "About Us"})
	if err != nil {
		t.Fatalf("CreatePage() error = %v", err)
	}
	if page.Status != "published" {
		t.Errorf("Status = %q, want published default", page.Status)
	}
	if page.Slug != "about-us" {
		t.Errorf("Slug = %q, want about-us", page.Slug)
	}
}

func TestUploadMediaUnavailableWithoutStorage(t *testing.T) {
	env := newTestEnv()
	_, err := env.service.UploadMedia(context.Background(), "hero", "a.png", "image/png", 10, nil)
	if got := domainStatus(t, err); got != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", got)
	}
}
