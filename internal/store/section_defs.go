package store

import (
	"database/sql"
	"fmt"
	"sort"
)

// allowedIcons is the closed set of icon names the site front-end ships.
// Icon fields on sections and catalog items must name one of these.
var allowedIcons = map[string]bool{
	"award":          true,
	"bar-chart":      true,
	"briefcase":      true,
	"calendar":       true,
	"camera":         true,
	"check-circle":   true,
	"clock":          true,
	"code":           true,
	"compass":        true,
	"globe":          true,
	"heart":          true,
	"layers":         true,
	"lightbulb":      true,
	"mail":           true,
	"map-pin":        true,
	"megaphone":      true,
	"message-circle": true,
	"monitor":        true,
	"pen-tool":       true,
	"phone":          true,
	"rocket":         true,
	"search":         true,
	"settings":       true,
	"shield":         true,
	"smartphone":     true,
	"star":           true,
	"target":         true,
	"trending-up":    true,
	"users":          true,
	"zap":            true,
}

func IsAllowedIcon(name string) bool {
	return allowedIcons[name]
}

func AllowedIcons() []string {
	names := make([]string, 0, len(allowedIcons))
	for name := range allowedIcons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkIcon(field, name string) error {
	if name == "" || allowedIcons[name] {
		return nil
	}
	return fmt.Errorf("%w: unknown icon %q in %s", ErrBadPayload, name, field)
}

const (
	SectionHero                 = "hero_content"
	SectionNavbar               = "navbar_settings"
	SectionFooter               = "footer_settings"
	SectionHomepageFeatures     = "homepage_features"
	SectionHomepageCTA          = "homepage_cta"
	SectionTestimonialsHeading  = "homepage_testimonials_section"
	SectionBrandsHeading        = "brands_section"
	SectionAboutHero            = "about_hero"
	SectionAboutMission         = "about_mission"
	SectionAboutValues          = "about_values"
	SectionAboutTimeline        = "about_timeline"
	SectionServicesCTA          = "services_page_cta"
	SectionPoliciesHero         = "policies_hero"
	SectionPoliciesHeading      = "policies_section"
	SectionContactHero          = "contact_page_hero"
	SectionContactInfo          = "contact_info"
)

// ContentStore bundles the version stores of every content section. Typed
// fields serve the public renderer; the name registry serves the admin
// surface, where sections arrive as path segments.
type ContentStore struct {
	Hero                *SectionStore[HeroContent]
	Navbar              *SectionStore[NavbarSettings]
	Footer              *SectionStore[FooterSettings]
	HomepageFeatures    *SectionStore[HomepageFeatures]
	HomepageCTA         *SectionStore[CTASection]
	TestimonialsHeading *SectionStore[SectionHeading]
	BrandsHeading       *SectionStore[SectionHeading]
	AboutHero           *SectionStore[AboutHero]
	AboutMission        *SectionStore[AboutMission]
	AboutValues         *SectionStore[AboutValues]
	AboutTimeline       *SectionStore[AboutTimeline]
	ServicesCTA         *SectionStore[CTASection]
	PoliciesHero        *SectionStore[PageHero]
	PoliciesHeading     *SectionStore[SectionHeading]
	ContactHero         *SectionStore[PageHero]
	ContactInfo         *SectionStore[ContactInfo]

	byName map[string]SectionVersions
}

func NewContentStore(db *sql.DB) *ContentStore {
	c := &ContentStore{
		Hero: NewSectionStore(db, SectionDef[HeroContent]{
			Table: SectionHero,
			Columns: []string{
				"title", "subtitle", "description", "badge_text",
				"background_image_url", "background_overlay_opacity",
				"primary_cta_text", "primary_cta_link",
				"secondary_cta_text", "secondary_cta_link",
			},
			Values: func(v *HeroContent) []any {
				return []any{
					v.Title, v.Subtitle, v.Description, v.BadgeText,
					v.BackgroundImageURL, v.BackgroundOverlayOpacity,
					v.PrimaryCTAText, v.PrimaryCTALink,
					v.SecondaryCTAText, v.SecondaryCTALink,
				}
			},
			Fields: func(v *HeroContent) []any {
				return []any{
					&v.Title, &v.Subtitle, &v.Description, &v.BadgeText,
					&v.BackgroundImageURL, &v.BackgroundOverlayOpacity,
					&v.PrimaryCTAText, &v.PrimaryCTALink,
					&v.SecondaryCTAText, &v.SecondaryCTALink,
				}
			},
			Meta: func(v *HeroContent) *VersionMeta { return &v.VersionMeta },
		}),
		Navbar: NewSectionStore(db, SectionDef[NavbarSettings]{
			Table: SectionNavbar,
			Columns: []string{
				"logo_url", "logo_text", "show_logo_text", "navigation_links",
				"cta_button_text", "cta_button_link", "show_cta_button",
			},
			Values: func(v *NavbarSettings) []any {
				return []any{
					v.LogoURL, v.LogoText, v.ShowLogoText, v.NavigationLinks,
					v.CTAButtonText, v.CTAButtonLink, v.ShowCTAButton,
				}
			},
			Fields: func(v *NavbarSettings) []any {
				return []any{
					&v.LogoURL, &v.LogoText, &v.ShowLogoText, &v.NavigationLinks,
					&v.CTAButtonText, &v.CTAButtonLink, &v.ShowCTAButton,
				}
			},
			Meta: func(v *NavbarSettings) *VersionMeta { return &v.VersionMeta },
		}),
		Footer: NewSectionStore(db, SectionDef[FooterSettings]{
			Table: SectionFooter,
			Columns: []string{
				"logo_url", "logo_text", "show_logo_text", "copyright_text",
				"social_links",
			},
			Values: func(v *FooterSettings) []any {
				return []any{
					v.LogoURL, v.LogoText, v.ShowLogoText, v.CopyrightText,
					v.SocialLinks,
				}
			},
			Fields: func(v *FooterSettings) []any {
				return []any{
					&v.LogoURL, &v.LogoText, &v.ShowLogoText, &v.CopyrightText,
					&v.SocialLinks,
				}
			},
			Meta: func(v *FooterSettings) *VersionMeta { return &v.VersionMeta },
			Validate: func(v *FooterSettings) error {
				if v.CopyrightText == "" {
					return fmt.Errorf("%w: copyright_text is required", ErrBadPayload)
				}
				return nil
			},
		}),
		HomepageFeatures: NewSectionStore(db, SectionDef[HomepageFeatures]{
			Table:   SectionHomepageFeatures,
			Columns: []string{"section_title", "section_description", "features"},
			Values: func(v *HomepageFeatures) []any {
				return []any{v.SectionTitle, v.SectionDescription, v.Features}
			},
			Fields: func(v *HomepageFeatures) []any {
				return []any{&v.SectionTitle, &v.SectionDescription, &v.Features}
			},
			Meta: func(v *HomepageFeatures) *VersionMeta { return &v.VersionMeta },
			Validate: func(v *HomepageFeatures) error {
				for _, f := range v.Features.V {
					if err := checkIcon("features", f.Icon); err != nil {
						return err
					}
				}
				return nil
			},
		}),
		HomepageCTA:         newCTASectionStore(db, SectionHomepageCTA),
		ServicesCTA:         newCTASectionStore(db, SectionServicesCTA),
		TestimonialsHeading: newHeadingStore(db, SectionTestimonialsHeading),
		BrandsHeading:       newHeadingStore(db, SectionBrandsHeading),
		PoliciesHeading:     newHeadingStore(db, SectionPoliciesHeading),
		AboutHero: NewSectionStore(db, SectionDef[AboutHero]{
			Table:   SectionAboutHero,
			Columns: []string{"badge", "title", "subtitle", "description"},
			Values: func(v *AboutHero) []any {
				return []any{v.Badge, v.Title, v.Subtitle, v.Description}
			},
			Fields: func(v *AboutHero) []any {
				return []any{&v.Badge, &v.Title, &v.Subtitle, &v.Description}
			},
			Meta: func(v *AboutHero) *VersionMeta { return &v.VersionMeta },
		}),
		AboutMission: NewSectionStore(db, SectionDef[AboutMission]{
			Table:   SectionAboutMission,
			Columns: []string{"section_title", "mission_cards"},
			Values: func(v *AboutMission) []any {
				return []any{v.SectionTitle, v.MissionCards}
			},
			Fields: func(v *AboutMission) []any {
				return []any{&v.SectionTitle, &v.MissionCards}
			},
			Meta: func(v *AboutMission) *VersionMeta { return &v.VersionMeta },
			Validate: func(v *AboutMission) error {
				for _, c := range v.MissionCards.V {
					if err := checkIcon("mission_cards", c.Icon); err != nil {
						return err
					}
				}
				return nil
			},
		}),
		AboutValues: NewSectionStore(db, SectionDef[AboutValues]{
			Table:   SectionAboutValues,
			Columns: []string{"section_title", "section_intro", "values"},
			Values: func(v *AboutValues) []any {
				return []any{v.SectionTitle, v.SectionIntro, v.Values}
			},
			Fields: func(v *AboutValues) []any {
				return []any{&v.SectionTitle, &v.SectionIntro, &v.Values}
			},
			Meta: func(v *AboutValues) *VersionMeta { return &v.VersionMeta },
			Validate: func(v *AboutValues) error {
				for _, c := range v.Values.V {
					if err := checkIcon("values", c.Icon); err != nil {
						return err
					}
				}
				return nil
			},
		}),
		AboutTimeline: NewSectionStore(db, SectionDef[AboutTimeline]{
			Table:   SectionAboutTimeline,
			Columns: []string{"section_title", "section_intro", "milestones"},
			Values: func(v *AboutTimeline) []any {
				return []any{v.SectionTitle, v.SectionIntro, v.Milestones}
			},
			Fields: func(v *AboutTimeline) []any {
				return []any{&v.SectionTitle, &v.SectionIntro, &v.Milestones}
			},
			Meta: func(v *AboutTimeline) *VersionMeta { return &v.VersionMeta },
		}),
		PoliciesHero: newPageHeroStore(db, SectionPoliciesHero),
		ContactHero:  newPageHeroStore(db, SectionContactHero),
		ContactInfo: NewSectionStore(db, SectionDef[ContactInfo]{
			Table:   SectionContactInfo,
			Columns: []string{"email", "phone", "address", "working_hours"},
			Values: func(v *ContactInfo) []any {
				return []any{v.Email, v.Phone, v.Address, v.WorkingHours}
			},
			Fields: func(v *ContactInfo) []any {
				return []any{&v.Email, &v.Phone, &v.Address, &v.WorkingHours}
			},
			Meta: func(v *ContactInfo) *VersionMeta { return &v.VersionMeta },
		}),
	}

	c.byName = map[string]SectionVersions{}
	for _, s := range []SectionVersions{
		c.Hero, c.Navbar, c.Footer, c.HomepageFeatures, c.HomepageCTA,
		c.TestimonialsHeading, c.BrandsHeading, c.AboutHero, c.AboutMission,
		c.AboutValues, c.AboutTimeline, c.ServicesCTA, c.PoliciesHero,
		c.PoliciesHeading, c.ContactHero, c.ContactInfo,
	} {
		c.byName[s.Name()] = s
	}
	return c
}

func newCTASectionStore(db *sql.DB, table string) *SectionStore[CTASection] {
	return NewSectionStore(db, SectionDef[CTASection]{
		Table:   table,
		Columns: []string{"title", "description", "button_text", "button_link"},
		Values: func(v *CTASection) []any {
			return []any{v.Title, v.Description, v.ButtonText, v.ButtonLink}
		},
		Fields: func(v *CTASection) []any {
			return []any{&v.Title, &v.Description, &v.ButtonText, &v.ButtonLink}
		},
		Meta: func(v *CTASection) *VersionMeta { return &v.VersionMeta },
	})
}

func newHeadingStore(db *sql.DB, table string) *SectionStore[SectionHeading] {
	return NewSectionStore(db, SectionDef[SectionHeading]{
		Table:   table,
		Columns: []string{"section_title", "section_intro"},
		Values: func(v *SectionHeading) []any {
			return []any{v.SectionTitle, v.SectionIntro}
		},
		Fields: func(v *SectionHeading) []any {
			return []any{&v.SectionTitle, &v.SectionIntro}
		},
		Meta: func(v *SectionHeading) *VersionMeta { return &v.VersionMeta },
	})
}

func newPageHeroStore(db *sql.DB, table string) *SectionStore[PageHero] {
	return NewSectionStore(db, SectionDef[PageHero]{
		Table:   table,
		Columns: []string{"title", "subtitle", "description", "background_image_url"},
		Values: func(v *PageHero) []any {
			return []any{v.Title, v.Subtitle, v.Description, v.BackgroundImageURL}
		},
		Fields: func(v *PageHero) []any {
			return []any{&v.Title, &v.Subtitle, &v.Description, &v.BackgroundImageURL}
		},
		Meta: func(v *PageHero) *VersionMeta { return &v.VersionMeta },
	})
}

// Section resolves a section store by table name.
func (c *ContentStore) Section(name string) (SectionVersions, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// SectionNames returns the known section names in sorted order.
func (c *ContentStore) SectionNames() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
