package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"atelier/cms/internal/store"
)

// newMultipart writes a single-file form into buf and returns the content
// type header value.
func newMultipart(buf *bytes.Buffer, kind, filename string, data []byte) string {
	w := multipart.NewWriter(buf)
	_ = w.WriteField("kind", kind)
	fw, _ := w.CreateFormFile("file", filename)
	_, _ = fw.Write(data)
	_ = w.Close()
	return w.FormDataContentType()
}

func testToken(t *testing.T, env *testEnv, role string) string {
	t.Helper()
	user := store.User{ID: "usr_" + role, DisplayName: "Test " + role, Email: role + "@atelier.test", Role: role}
	env.users.users[user.ID] = user
	session, err := env.service.CreateSession(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return session.Token
}

func doRequest(env *testEnv, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	NewHTTPServer(env.service, "*").Handler().ServeHTTP(rr, req)
	return rr
}

func TestPreflightHasEmptyBody(t *testing.T) {
	env := newTestEnv()
	rr := doRequest(env, http.MethodOptions, "/api/admin/services", "", nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rr.Body.String())
	}
	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin == "" {
		t.Error("missing Access-Control-Allow-Origin header")
	}
}

func TestCatalogSingleItemGet(t *testing.T) {
	env := newTestEnv()
	env.catalog.testimonials = []*store.Testimonial{
		{ID: "tst_1", AuthorName: "Ada", Quote: "Superb"},
	}
	token := testToken(t, env, "viewer")

	rr := doRequest(env, http.MethodGet, "/api/admin/testimonials/tst_1", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var got store.Testimonial
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if got.ID != "tst_1" || got.AuthorName != "Ada" {
		t.Errorf("testimonial = %+v", got)
	}

	rr = doRequest(env, http.MethodGet, "/api/admin/testimonials/tst_missing", token, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing id: status = %d, want 404", rr.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv()
	rr := doRequest(env, http.MethodGet, "/api/health", "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if ok, exists := response["ok"]; !exists || ok != true {
		t.Errorf("expected ok=true, got %v", ok)
	}
}

func TestReadyReportsDatabaseFailure(t *testing.T) {
	env := newTestEnv()
	env.users.pingErr = context.DeadlineExceeded

	rr := doRequest(env, http.MethodGet, "/api/ready", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestPublicHomeServesDefaults(t *testing.T) {
	env := newTestEnv()
	rr := doRequest(env, http.MethodGet, "/api/public/home", "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var page map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	for _, key := range []string{"hero", "features", "cta", "testimonialsSection", "testimonials", "brandsSection", "brands"} {
		if _, ok := page[key]; !ok {
			t.Errorf("home page missing %q", key)
		}
	}
}

func TestPublicPolicyBySlug(t *testing.T) {
	env := newTestEnv()
	env.policies.policies = []*store.Policy{
		{ID: "pol_1", Slug: "privacy", Title: "Privacy Policy", IsActive: true},
		{ID: "pol_2", Slug: "draft", Title: "Draft", IsActive: false},
	}

	rr := doRequest(env, http.MethodGet, "/api/public/policies/privacy", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	rr = doRequest(env, http.MethodGet, "/api/public/policies/draft", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("inactive policy: status = %d, want 404", rr.Code)
	}
}

func TestContactEndpoint(t *testing.T) {
	env := newTestEnv()

	rr := doRequest(env, http.MethodPost, "/api/contact", "", map[string]string{
		"name":    "Jordan Lane",
		"email":   "jordan@example.com",
		"message": "Hello there",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response["success"] != true {
		t.Errorf("success = %v, want true", response["success"])
	}

	rr = doRequest(env, http.MethodPost, "/api/contact", "", map[string]string{
		"name":  "Jordan Lane",
		"email": "not-an-email",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid body: status = %d, want 400", rr.Code)
	}
}

func TestAdminRequiresSession(t *testing.T) {
	env := newTestEnv()
	rr := doRequest(env, http.MethodGet, "/api/admin/sections", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}

	rr = doRequest(env, http.MethodGet, "/api/admin/sections", "not-a-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d, want 401", rr.Code)
	}
}

func TestAdminRoleEnforcement(t *testing.T) {
	env := newTestEnv()
	viewer := testToken(t, env, "viewer")
	editor := testToken(t, env, "editor")
	admin := testToken(t, env, "admin")

	// Viewers read but cannot write.
	rr := doRequest(env, http.MethodGet, "/api/admin/services", viewer, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("viewer read: status = %d, want 200", rr.Code)
	}
	rr = doRequest(env, http.MethodPost, "/api/admin/services", viewer, map[string]string{"title": "X"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("viewer write: status = %d, want 403", rr.Code)
	}

	// Editors write content but cannot manage users or settings.
	rr = doRequest(env, http.MethodPost, "/api/admin/services", editor, map[string]string{"title": "Brand"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("editor write: status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
	rr = doRequest(env, http.MethodGet, "/api/admin/users", editor, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("editor users: status = %d, want 403", rr.Code)
	}

	rr = doRequest(env, http.MethodGet, "/api/admin/users", admin, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin users: status = %d, want 200", rr.Code)
	}
}

func TestSectionVersionLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv()
	token := testToken(t, env, "editor")

	rr := doRequest(env, http.MethodPost, "/api/admin/sections/hero_content/versions", token, map[string]string{"title": "Launch"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("create response missing id: %s", rr.Body.String())
	}

	rr = doRequest(env, http.MethodPost, "/api/admin/sections/hero_content/versions/"+created.ID+"/activate", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("activate: status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var envelope map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to parse envelope: %v", err)
	}
	if envelope["focusId"] != created.ID {
		t.Errorf("focusId = %v, want %s", envelope["focusId"], created.ID)
	}

	rr = doRequest(env, http.MethodGet, "/api/admin/sections/nope/versions", token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown section: status = %d, want 404", rr.Code)
	}
}

func TestSessionRefreshRotatesToken(t *testing.T) {
	env := newTestEnv()
	user := store.User{ID: "usr_r", DisplayName: "Rotate", Email: "r@atelier.test", Role: "editor"}
	env.users.users[user.ID] = user
	session, err := env.service.CreateSession(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	rr := doRequest(env, http.MethodPost, "/api/session/refresh", "", map[string]string{"refreshToken": session.RefreshToken})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	next, _ := response["refreshToken"].(string)
	if next == "" || next == session.RefreshToken {
		t.Error("expected a rotated refresh token")
	}

	// The old token is single use.
	rr = doRequest(env, http.MethodPost, "/api/session/refresh", "", map[string]string{"refreshToken": session.RefreshToken})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("reused token: status = %d, want 401", rr.Code)
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	env := newTestEnv()
	token := testToken(t, env, "editor")

	rr := doRequest(env, http.MethodGet, "/api/session", token, nil)
	var before map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &before)
	if before["authenticated"] != true {
		t.Fatalf("expected authenticated before logout: %s", rr.Body.String())
	}

	rr = doRequest(env, http.MethodPost, "/api/session/logout", token, map[string]string{})
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: status = %d, want 200", rr.Code)
	}

	rr = doRequest(env, http.MethodGet, "/api/session", token, nil)
	var after map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &after)
	if after["authenticated"] != false {
		t.Errorf("expected authenticated=false after logout: %s", rr.Body.String())
	}
}

func TestMediaUploadWithoutStorage(t *testing.T) {
	env := newTestEnv()
	token := testToken(t, env, "editor")

	var buf bytes.Buffer
	writer := newMultipart(&buf, "hero", "a.png", []byte{0x89, 'P', 'N', 'G'})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/media", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer)
	rr := httptest.NewRecorder()
	NewHTTPServer(env.service, "*").Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503: %s", rr.Code, rr.Body.String())
	}
}

func TestPolicyExportWithoutExporter(t *testing.T) {
	env := newTestEnv()
	token := testToken(t, env, "editor")
	env.policies.policies = []*store.Policy{{ID: "pol_1", Slug: "privacy", Title: "Privacy", IsActive: true}}

	rr := doRequest(env, http.MethodGet, "/api/admin/policies/pol_1/export?format=pdf", token, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503: %s", rr.Code, rr.Body.String())
	}
}

func TestSearchEndpointUnavailable(t *testing.T) {
	env := newTestEnv()
	token := testToken(t, env, "viewer")

	rr := doRequest(env, http.MethodGet, "/api/admin/search?q=hero", token, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "SEARCH_UNAVAILABLE") {
		t.Errorf("expected SEARCH_UNAVAILABLE code: %s", rr.Body.String())
	}
}
