package app

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"atelier/cms/internal/auth"
	"atelier/cms/internal/authpw"
	"atelier/cms/internal/cache"
	"atelier/cms/internal/config"
	"atelier/cms/internal/email"
	"atelier/cms/internal/export"
	"atelier/cms/internal/media"
	"atelier/cms/internal/rbac"
	"atelier/cms/internal/search"
	"atelier/cms/internal/store"
	"atelier/cms/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

// contentStore is the name-addressed face of the section version stores.
type contentStore interface {
	Section(name string) (store.SectionVersions, bool)
	SectionNames() []string
}

type catalogStore interface {
	ListServices(ctx context.Context, visibleOnly bool) ([]*store.Service, error)
	GetService(ctx context.Context, id string) (*store.Service, error)
	GetServiceBySlug(ctx context.Context, slug string) (*store.Service, error)
	CreateService(ctx context.Context, v *store.Service) error
	UpdateService(ctx context.Context, v *store.Service) (bool, error)
	DeleteService(ctx context.Context, id string) (bool, error)
	ReorderServices(ctx context.Context, ids []string) error

	ListTestimonials(ctx context.Context, visibleOnly bool) ([]*store.Testimonial, error)
	GetTestimonial(ctx context.Context, id string) (*store.Testimonial, error)
	CreateTestimonial(ctx context.Context, v *store.Testimonial) error
	UpdateTestimonial(ctx context.Context, v *store.Testimonial) (bool, error)
	DeleteTestimonial(ctx context.Context, id string) (bool, error)
	ReorderTestimonials(ctx context.Context, ids []string) error

	ListBrands(ctx context.Context, visibleOnly bool) ([]*store.Brand, error)
	GetBrand(ctx context.Context, id string) (*store.Brand, error)
	CreateBrand(ctx context.Context, v *store.Brand) error
	UpdateBrand(ctx context.Context, v *store.Brand) (bool, error)
	DeleteBrand(ctx context.Context, id string) (bool, error)
	ReorderBrands(ctx context.Context, ids []string) error

	ListFAQs(ctx context.Context, visibleOnly bool) ([]*store.ContactFAQ, error)
	GetFAQ(ctx context.Context, id string) (*store.ContactFAQ, error)
	CreateFAQ(ctx context.Context, v *store.ContactFAQ) error
	UpdateFAQ(ctx context.Context, v *store.ContactFAQ) (bool, error)
	DeleteFAQ(ctx context.Context, id string) (bool, error)
	ReorderFAQs(ctx context.Context, ids []string) error

	ListProcessSteps(ctx context.Context, visibleOnly bool) ([]*store.ProcessStep, error)
	GetProcessStep(ctx context.Context, id string) (*store.ProcessStep, error)
	CreateProcessStep(ctx context.Context, v *store.ProcessStep) error
	UpdateProcessStep(ctx context.Context, v *store.ProcessStep) (bool, error)
	DeleteProcessStep(ctx context.Context, id string) (bool, error)
	ReorderProcessSteps(ctx context.Context, ids []string) error
}

type policyStore interface {
	List(ctx context.Context, activeOnly bool) ([]*store.Policy, error)
	Get(ctx context.Context, id string) (*store.Policy, error)
	GetBySlug(ctx context.Context, slug string, activeOnly bool) (*store.Policy, error)
	Create(ctx context.Context, v *store.Policy) error
	Update(ctx context.Context, v *store.Policy) (bool, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	Reorder(ctx context.Context, ids []string) error
}

type contactStore interface {
	List(ctx context.Context, status string) ([]*store.ContactSubmission, error)
	Get(ctx context.Context, id string) (*store.ContactSubmission, error)
	Create(ctx context.Context, v *store.ContactSubmission) error
	UpdateTriage(ctx context.Context, id, status, notes string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type settingsStore interface {
	ListSettings(ctx context.Context) ([]*store.SiteSetting, error)
	GetSetting(ctx context.Context, key string) (*store.SiteSetting, error)
	UpsertSetting(ctx context.Context, key string, value json.RawMessage) error

	ListPages(ctx context.Context) ([]*store.Page, error)
	CreatePage(ctx context.Context, v *store.Page) error
	UpdatePageStatus(ctx context.Context, id, status string) (bool, error)
	DeletePage(ctx context.Context, id string) (bool, error)

	ListAssets(ctx context.Context, kind string) ([]*store.Asset, error)
	CreateAsset(ctx context.Context, v *store.Asset) error
	DeleteAsset(ctx context.Context, id string) (bool, error)
}

type userStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	CreateUser(ctx context.Context, user store.User) error
	UpdateUserRole(ctx context.Context, userID, role string) (bool, error)
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
	Ping(ctx context.Context) error
}

// refreshSessions is implemented by the Redis store and, as fallback, by the
// Postgres user store.
type refreshSessions interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// Deps bundles everything the service needs. Search, Email, Media and Export
// are optional; the matching endpoints degrade when absent.
type Deps struct {
	Content  contentStore
	Catalog  catalogStore
	Policies policyStore
	Contacts contactStore
	Settings settingsStore
	Users    userStore
	Refresh  refreshSessions
	Auth     *authpw.Service
	Search   *search.Service
	Email    *email.Service
	Media    *media.Service
	Export   *export.Service
}

type Service struct {
	cfg      config.Config
	content  contentStore
	catalog  catalogStore
	policies policyStore
	contacts contactStore
	settings settingsStore
	users    userStore
	refresh  refreshSessions
	authpw   *authpw.Service
	search   *search.Service
	email    *email.Service
	media    *media.Service
	export   *export.Service

	settingsCache *cache.TTL[string, any]
}

func New(cfg config.Config, deps Deps) *Service {
	refresh := deps.Refresh
	if refresh == nil {
		if fallback, ok := deps.Users.(refreshSessions); ok {
			refresh = fallback
		}
	}
	return &Service{
		cfg:           cfg,
		content:       deps.Content,
		catalog:       deps.Catalog,
		policies:      deps.Policies,
		contacts:      deps.Contacts,
		settings:      deps.Settings,
		users:         deps.Users,
		refresh:       refresh,
		authpw:        deps.Auth,
		search:        deps.Search,
		email:         deps.Email,
		media:         deps.Media,
		export:        deps.Export,
		settingsCache: cache.NewTTL[string, any](cfg.SettingsCacheTTL),
	}
}

// Bootstrap seeds the admin account when configured and no matching user
// exists, then warms the search index in the background.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.cfg.AdminPassword != "" {
		if _, err := s.users.GetUserByEmail(ctx, s.cfg.AdminEmail); store.IsUserNotFound(err) {
			hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			if err := s.users.CreateUser(ctx, store.User{
				ID:              util.NewID("usr"),
				DisplayName:     s.cfg.AdminName,
				Email:           strings.ToLower(s.cfg.AdminEmail),
				PasswordHash:    string(hash),
				Role:            string(rbac.RoleAdmin),
				IsEmailVerified: true,
			}); err != nil {
				return err
			}
			log.Printf("seeded admin account %s", s.cfg.AdminEmail)
		} else if err != nil {
			return err
		}
	}

	if s.search != nil {
		go s.search.ReindexAllFromPG(context.Background())
	}
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.users.Ping(ctx)
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// Sessions

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	found, err := s.refresh.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	// Redis entries only carry the user id; re-read the canonical record.
	user, err := s.users.GetUserByID(ctx, found.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.refresh.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.DisplayName,
		Email: user.Email,
		Role:  user.Role,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.refresh.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.users.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		Role:      user.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.users.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.refresh.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Account emails, fire-and-forget. Send failures are logged, never returned.

func (s *Service) NotifyVerification(to, userName, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := s.cfg.SiteURL + "/admin/verify?token=" + token
	go func() {
		if err := s.email.SendVerificationEmail(to, userName, url); err != nil {
			log.Printf("send verification email: %v", err)
		}
	}()
}

func (s *Service) NotifyPasswordReset(to, userName, token string) {
	if !s.SMTPConfigured() || token == "" {
		return
	}
	url := s.cfg.SiteURL + "/admin/reset-password?token=" + token
	go func() {
		if err := s.email.SendPasswordResetEmail(to, userName, url); err != nil {
			log.Printf("send password reset email: %v", err)
		}
	}()
}

// Admin accounts

func (s *Service) ListUsers(ctx context.Context) ([]map[string]any, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(users))
	for _, u := range users {
		items = append(items, map[string]any{
			"id":          u.ID,
			"displayName": u.DisplayName,
			"email":       u.Email,
			"role":        u.Role,
			"verified":    u.IsEmailVerified,
			"createdAt":   u.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) UpdateUserRole(ctx context.Context, userID, role string) error {
	switch rbac.Role(role) {
	case rbac.RoleAdmin, rbac.RoleEditor, rbac.RoleViewer:
	default:
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown role", nil)
	}
	ok, err := s.users.UpdateUserRole(ctx, userID, role)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	}
	return nil
}

// Contact intake

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Message string `json:"message"`
}

func (s *Service) SubmitContact(ctx context.Context, in ContactInput) (*store.ContactSubmission, error) {
	name := strings.TrimSpace(in.Name)
	mail := strings.TrimSpace(in.Email)
	message := strings.TrimSpace(in.Message)

	if name == "" || mail == "" || message == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "name, email and message are required", nil)
	}
	if !emailRx.MatchString(mail) {
		return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "email address is not valid", nil)
	}

	submission := &store.ContactSubmission{
		ID:      util.NewID("sub"),
		Name:    name,
		Email:   mail,
		Service: strings.TrimSpace(in.Service),
		Message: message,
		Status:  "new",
	}
	if err := s.contacts.Create(ctx, submission); err != nil {
		return nil, err
	}

	if s.search != nil {
		s.search.IndexSubmission(submissionRecord(submission))
	}

	// Notification is best effort; intake never fails on it.
	if s.SMTPConfigured() && s.cfg.ContactEmail != "" {
		go func(sub store.ContactSubmission) {
			err := s.email.SendContactNotification(s.cfg.ContactEmail, email.ContactNotificationData{
				Name:    sub.Name,
				Email:   sub.Email,
				Service: sub.Service,
				Message: sub.Message,
			})
			if err != nil {
				log.Printf("send contact notification: %v", err)
			}
		}(*submission)
	}

	return submission, nil
}

var allowedSubmissionStatuses = map[string]struct{}{
	"new":      {},
	"read":     {},
	"replied":  {},
	"archived": {},
}

func (s *Service) ListSubmissions(ctx context.Context, status string) ([]*store.ContactSubmission, error) {
	if status != "" {
		if _, ok := allowedSubmissionStatuses[status]; !ok {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status filter", nil)
		}
	}
	return s.contacts.List(ctx, status)
}

func (s *Service) GetSubmission(ctx context.Context, id string) (*store.ContactSubmission, error) {
	submission, err := s.contacts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Submission not found", nil)
	}
	return submission, nil
}

func (s *Service) TriageSubmission(ctx context.Context, id, status, notes string) (*store.ContactSubmission, error) {
	if _, ok := allowedSubmissionStatuses[status]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status", nil)
	}
	ok, err := s.contacts.UpdateTriage(ctx, id, status, notes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Submission not found", nil)
	}
	submission, err := s.contacts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.search != nil && submission != nil {
		s.search.IndexSubmission(submissionRecord(submission))
	}
	return submission, nil
}

func (s *Service) DeleteSubmission(ctx context.Context, id string) error {
	ok, err := s.contacts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "Submission not found", nil)
	}
	if s.search != nil {
		s.search.DeleteSubmission(id)
	}
	return nil
}

// Search

func (s *Service) Search(ctx context.Context, q, filterType string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search is not configured", nil)
	}
	return s.search.Search(ctx, search.Query{
		Text:       q,
		FilterType: search.ResultType(filterType),
		Limit:      limit,
		Offset:     offset,
	}), nil
}

func submissionRecord(sub *store.ContactSubmission) search.SubmissionRecord {
	return search.SubmissionRecord{
		ID:      sub.ID,
		Name:    sub.Name,
		Email:   sub.Email,
		Message: sub.Message,
		Status:  sub.Status,
	}
}

// slugify lowercases, collapses non-alphanumeric runs to one hyphen and trims
// leading/trailing hyphens.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
