package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONColumn maps a Go value onto a single JSONB column. It round-trips
// through database/sql as marshalled JSON and is transparent to
// encoding/json, so API payloads see the inner value directly.
type JSONColumn[T any] struct {
	V T
}

func (c JSONColumn[T]) Value() (driver.Value, error) {
	return json.Marshal(c.V)
}

func (c *JSONColumn[T]) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		var zero T
		c.V = zero
		return nil
	case []byte:
		return json.Unmarshal(s, &c.V)
	case string:
		return json.Unmarshal([]byte(s), &c.V)
	default:
		return fmt.Errorf("scan jsonb: unsupported type %T", src)
	}
}

func (c JSONColumn[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.V)
}

func (c *JSONColumn[T]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &c.V)
}

// VersionMeta is the common envelope of every content-section version row.
// Section structs embed it; the section engine reads and writes it through
// the embedded pointer.
type VersionMeta struct {
	ID        string    `json:"id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NavLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
}

type FeatureItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type IconCard struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Milestone struct {
	Year        string `json:"year"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type HeroContent struct {
	VersionMeta
	Title                    string  `json:"title"`
	Subtitle                 string  `json:"subtitle"`
	Description              string  `json:"description"`
	BadgeText                string  `json:"badge_text"`
	BackgroundImageURL       string  `json:"background_image_url"`
	BackgroundOverlayOpacity float64 `json:"background_overlay_opacity"`
	PrimaryCTAText           string  `json:"primary_cta_text"`
	PrimaryCTALink           string  `json:"primary_cta_link"`
	SecondaryCTAText         string  `json:"secondary_cta_text"`
	SecondaryCTALink         string  `json:"secondary_cta_link"`
}

type NavbarSettings struct {
	VersionMeta
	LogoURL         string                `json:"logo_url"`
	LogoText        string                `json:"logo_text"`
	ShowLogoText    bool                  `json:"show_logo_text"`
	NavigationLinks JSONColumn[[]NavLink] `json:"navigation_links"`
	CTAButtonText   string                `json:"cta_button_text"`
	CTAButtonLink   string                `json:"cta_button_link"`
	ShowCTAButton   bool                  `json:"show_cta_button"`
}

type FooterSettings struct {
	VersionMeta
	LogoURL       string                   `json:"logo_url"`
	LogoText      string                   `json:"logo_text"`
	ShowLogoText  bool                     `json:"show_logo_text"`
	CopyrightText string                   `json:"copyright_text"`
	SocialLinks   JSONColumn[[]SocialLink] `json:"social_links"`
}

type HomepageFeatures struct {
	VersionMeta
	SectionTitle       string                    `json:"section_title"`
	SectionDescription string                    `json:"section_description"`
	Features           JSONColumn[[]FeatureItem] `json:"features"`
}

// CTASection backs both the homepage and services-page call-to-action blocks.
type CTASection struct {
	VersionMeta
	Title       string `json:"title"`
	Description string `json:"description"`
	ButtonText  string `json:"button_text"`
	ButtonLink  string `json:"button_link"`
}

// SectionHeading backs the testimonials, brands and policies section intros.
type SectionHeading struct {
	VersionMeta
	SectionTitle string `json:"section_title"`
	SectionIntro string `json:"section_intro"`
}

type AboutHero struct {
	VersionMeta
	Badge       string `json:"badge"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
}

type AboutMission struct {
	VersionMeta
	SectionTitle string                 `json:"section_title"`
	MissionCards JSONColumn[[]IconCard] `json:"mission_cards"`
}

type AboutValues struct {
	VersionMeta
	SectionTitle string                 `json:"section_title"`
	SectionIntro string                 `json:"section_intro"`
	Values       JSONColumn[[]IconCard] `json:"values"`
}

type AboutTimeline struct {
	VersionMeta
	SectionTitle string                  `json:"section_title"`
	SectionIntro string                  `json:"section_intro"`
	Milestones   JSONColumn[[]Milestone] `json:"milestones"`
}

// PageHero backs the policies and contact page hero blocks.
type PageHero struct {
	VersionMeta
	Title              string `json:"title"`
	Subtitle           string `json:"subtitle"`
	Description        string `json:"description"`
	BackgroundImageURL string `json:"background_image_url"`
}

type ContactInfo struct {
	VersionMeta
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	WorkingHours string `json:"working_hours"`
}

type Service struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Slug             string               `json:"slug"`
	ShortDescription string               `json:"short_description"`
	FullDescription  string               `json:"full_description"`
	IconName         string               `json:"icon_name"`
	Features         JSONColumn[[]string] `json:"features"`
	Gradient         string               `json:"gradient"`
	ImageURL         string               `json:"image_url"`
	Visible          bool                 `json:"visible"`
	OrderIndex       int                  `json:"order_index"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

type Testimonial struct {
	ID         string    `json:"id"`
	Quote      string    `json:"quote"`
	AuthorName string    `json:"author_name"`
	AuthorRole string    `json:"author_role"`
	Company    string    `json:"company"`
	AvatarURL  string    `json:"avatar_url"`
	Rating     int       `json:"rating"`
	Visible    bool      `json:"visible"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Brand struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LogoURL    string    `json:"logo_url"`
	WebsiteURL string    `json:"website_url"`
	Visible    bool      `json:"visible"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ContactFAQ struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Visible    bool      `json:"visible"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ProcessStep struct {
	ID          string    `json:"id"`
	StepNumber  int       `json:"step_number"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Visible     bool      `json:"visible"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Policy struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	IconSVG        string    `json:"icon_svg"`
	Purpose        string    `json:"purpose"`
	Scope          string    `json:"scope"`
	Responsibility string    `json:"responsibility"`
	OrderIndex     int       `json:"order_index"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ContactSubmission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Service   string    `json:"service"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SiteSetting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Page struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Asset struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
}

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	Role                  string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type PasswordReset struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

type RefreshSession struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
