package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"atelier/cms/internal/rbac"
	"atelier/cms/internal/store"
)

// routeAdmin dispatches /api/admin/* requests. parts holds the path segments
// after the prefix.
func (s *HTTPServer) routeAdmin(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	action := rbac.ActionWrite
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		action = rbac.ActionRead
	}
	if parts[0] == "users" || parts[0] == "settings" {
		action = rbac.ActionAdmin
	}
	if !s.service.Can(session.Role, action) {
		s.forbid(w)
		return
	}

	switch parts[0] {
	case "sections":
		s.routeSections(w, r, parts[1:])
	case "services":
		s.routeServices(w, r, parts[1:])
	case "testimonials":
		s.routeTestimonials(w, r, parts[1:])
	case "brands":
		s.routeBrands(w, r, parts[1:])
	case "faqs":
		s.routeFAQs(w, r, parts[1:])
	case "process-steps":
		s.routeProcessSteps(w, r, parts[1:])
	case "policies":
		s.routePolicies(w, r, parts[1:])
	case "submissions":
		s.routeSubmissions(w, r, parts[1:])
	case "settings":
		s.routeSettings(w, r, parts[1:])
	case "pages":
		s.routePages(w, r, parts[1:])
	case "assets":
		s.routeAssets(w, r, parts[1:])
	case "media":
		s.routeMedia(w, r, parts[1:])
	case "search":
		s.routeSearch(w, r, parts[1:])
	case "users":
		s.routeUsers(w, r, parts[1:])
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// respond writes payload with the given status, or maps err to an error
// response.
func (s *HTTPServer) respond(w http.ResponseWriter, status int, payload any, err error) {
	if err != nil {
		st, code, message, details := mapError(err)
		writeError(w, st, code, message, details)
		return
	}
	writeJSON(w, status, payload)
}

func (s *HTTPServer) respondOK(w http.ResponseWriter, err error) {
	if err != nil {
		st, code, message, details := mapError(err)
		writeError(w, st, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Sections: /sections, /sections/{name}/versions[/{id}[/activate]]

func (s *HTTPServer) routeSections(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sections": s.service.SectionNames()})
		return
	}

	name := parts[0]
	if len(parts) < 2 || parts[1] != "versions" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		payload, err := s.service.ListSectionVersions(r.Context(), name)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 2 && r.Method == http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not read body", nil)
			return
		}
		payload, err := s.service.CreateSectionVersion(r.Context(), name, body)
		s.respond(w, http.StatusCreated, payload, err)
	case len(parts) == 3 && r.Method == http.MethodGet:
		payload, err := s.service.GetSectionVersion(r.Context(), name, parts[2])
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 3 && r.Method == http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not read body", nil)
			return
		}
		payload, err := s.service.UpdateSectionVersion(r.Context(), name, parts[2], body)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 3 && r.Method == http.MethodDelete:
		payload, err := s.service.DeleteSectionVersion(r.Context(), name, parts[2])
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 4 && parts[3] == "activate" && r.Method == http.MethodPost:
		payload, err := s.service.ActivateSectionVersion(r.Context(), name, parts[2])
		s.respond(w, http.StatusOK, payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// decodeReorder reads {"ids": [...]} bodies shared by the ordered resources.
func decodeReorder(r *http.Request) ([]string, error) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeBody(r, &body); err != nil {
		return nil, err
	}
	return body.IDs, nil
}

func (s *HTTPServer) routeServices(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListServices(r.Context(), false)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var in store.Service
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateService(r.Context(), &in)
		s.respond(w, http.StatusCreated, payload, err)
	case len(parts) == 1 && parts[0] == "reorder" && r.Method == http.MethodPut:
		ids, err := decodeReorder(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respondOK(w, s.service.ReorderServices(r.Context(), ids))
	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetService(r.Context(), parts[0])
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodPut:
		var in store.Service
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateService(r.Context(), parts[0], &in)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.respondOK(w, s.service.DeleteService(r.Context(), parts[0]))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) routeTestimonials(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListTestimonials(r.Context(), false)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var in store.Testimonial
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateTestimonial(r.Context(), &in)
		s.respond(w, http.StatusCreated, payload, err)
	case len(parts) == 1 && parts[0] == "reorder" && r.Method == http.MethodPut:
		ids, err := decodeReorder(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respondOK(w, s.service.ReorderTestimonials(r.Context(), ids))
	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetTestimonial(r.Context(), parts[0])
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodPut:
		var in store.Testimonial
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateTestimonial(r.Context(), parts[0], &in)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.respondOK(w, s.service.DeleteTestimonial(r.Context(), parts[0]))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) routeBrands(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListBrands(r.Context(), false)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var in store.Brand
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateBrand(r.Context(), &in)
		s.respond(w, http.StatusCreated, payload, err)
	case len(parts) == 1 && parts[0] == "reorder" && r.Method == http.MethodPut:
		ids, err := decodeReorder(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respondOK(w, s.service.ReorderBrands(r.Context(), ids))
	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetBrand(r.Context(), parts[0])
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodPut:
		var in store.Brand
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateBrand(r.Context(), parts[0], &in)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.respondOK(w, s.service.DeleteBrand(r.Context(), parts[0]))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) routeFAQs(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListFAQs(r.Context(), false)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var in store.ContactFAQ
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateFAQ(r.Context(), &in)
		s.respond(w, http.StatusCreated, payload, err)
	case len(parts) == 1 && parts[0] == "reorder" && r.Method == http.MethodPut:
		ids, err := decodeReorder(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respondOK(w, s.service.ReorderFAQs(r.Context(), ids))
	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetFAQ(r.Context(), parts[0])
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodPut:
		var in store.ContactFAQ
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateFAQ(r.Context(), parts[0], &in)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.respondOK(w, s.service.DeleteFAQ(r.Context(), parts[0]))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) routeProcessSteps(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListProcessSteps(r.Context(), false)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var in store.ProcessStep
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateProcessStep(r.Context(), &in)
		s.respond(w, http.StatusCreated, payload, err)
	case len(parts) == 1 && parts[0] == "reorder" && r.Method == http.MethodPut:
		ids, err := decodeReorder(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respondOK(w, s.service.ReorderProcessSteps(r.Context(), ids))
	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetProcessStep(r.Context(), parts[0])
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodPut:
		var in store.ProcessStep
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateProcessStep(r.Context(), parts[0], &in)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.respondOK(w, s.service.DeleteProcessStep(r.Context(), parts[0]))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// Policies: CRUD plus /reorder, /{id}/activate and /{id}/export.

func (s *HTTPServer) routePolicies(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListPolicies(r.Context(), false)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var in store.Policy
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreatePolicy(r.Context(), &in)
		s.respond(w, http.StatusCreated, payload, err)
	case len(parts) == 1 && parts[0] == "reorder" && r.Method == http.MethodPut:
		ids, err := decodeReorder(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respondOK(w, s.service.ReorderPolicies(r.Context(), ids))
	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetPolicy(r.Context(), parts[0])
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodPut:
		var in store.Policy
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdatePolicy(r.Context(), parts[0], &in)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.respondOK(w, s.service.DeletePolicy(r.Context(), parts[0]))
	case len(parts) == 2 && parts[1] == "activate" && r.Method == http.MethodPost:
		var body struct {
			Active *bool `json:"active"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		active := true
		if body.Active != nil {
			active = *body.Active
		}
		payload, err := s.service.SetPolicyActive(r.Context(), parts[0], active)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 2 && parts[1] == "export" && r.Method == http.MethodGet:
		format := strings.TrimSpace(r.URL.Query().Get("format"))
		if format == "" {
			format = "pdf"
		}
		result, err := s.service.ExportPolicy(r.Context(), parts[0], format)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		w.Header().Set("Content-Type", result.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// Contact submissions: list with ?status=, get, triage, delete.

func (s *HTTPServer) routeSubmissions(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		payload, err := s.service.ListSubmissions(r.Context(), status)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetSubmission(r.Context(), parts[0])
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodPut:
		var body struct {
			Status string `json:"status"`
			Notes  string `json:"notes"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.TriageSubmission(r.Context(), parts[0], body.Status, body.Notes)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.respondOK(w, s.service.DeleteSubmission(r.Context(), parts[0]))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// Site settings: list, get one, upsert by key.

func (s *HTTPServer) routeSettings(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListSettings(r.Context())
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetSetting(r.Context(), parts[0])
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodPut:
		var body struct {
			Value json.RawMessage `json:"value"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpsertSetting(r.Context(), parts[0], body.Value)
		s.respond(w, http.StatusOK, payload, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) routePages(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListPages(r.Context())
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 0 && r.Method == http.MethodPost:
		var in store.Page
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreatePage(r.Context(), &in)
		s.respond(w, http.StatusCreated, payload, err)
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPut:
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respondOK(w, s.service.UpdatePageStatus(r.Context(), parts[0], body.Status))
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.respondOK(w, s.service.DeletePage(r.Context(), parts[0]))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) routeAssets(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		kind := strings.TrimSpace(r.URL.Query().Get("kind"))
		payload, err := s.service.ListAssets(r.Context(), kind)
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.respondOK(w, s.service.DeleteAsset(r.Context(), parts[0]))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// maxUploadBytes caps the multipart form we are willing to parse. Per-kind
// ceilings are enforced downstream before any object storage I/O.
const maxUploadBytes = 16 << 20

func (s *HTTPServer) routeMedia(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) != 0 || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "expected multipart form upload", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "file field is required", nil)
		return
	}
	defer file.Close()

	kind := strings.TrimSpace(r.FormValue("kind"))
	asset, err := s.service.UploadMedia(r.Context(), kind, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	s.respond(w, http.StatusCreated, asset, err)
}

func (s *HTTPServer) routeSearch(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) != 0 || r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	filterType := strings.TrimSpace(r.URL.Query().Get("type"))
	limit := intQuery(r, "limit", 20)
	offset := intQuery(r, "offset", 0)
	payload, err := s.service.Search(r.Context(), q, filterType, limit, offset)
	s.respond(w, http.StatusOK, payload, err)
}

func (s *HTTPServer) routeUsers(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListUsers(r.Context())
		s.respond(w, http.StatusOK, payload, err)
	case len(parts) == 2 && parts[1] == "role" && r.Method == http.MethodPut:
		var body struct {
			Role string `json:"role"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respondOK(w, s.service.UpdateUserRole(r.Context(), parts[0], body.Role))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
