package app

import (
	"encoding/json"

	"atelier/cms/internal/store"
)

// sectionDefaults holds the content served for a section when no version is
// active. Public pages never surface an arbitrary draft.
var sectionDefaults = map[string]json.RawMessage{
	store.SectionHero: json.RawMessage(`{
		"title": "Design that moves brands forward",
		"subtitle": "A studio for ambitious companies",
		"description": "We partner with teams to craft identities, products and campaigns that earn attention.",
		"badge_text": "Atelier Studio",
		"background_image_url": "",
		"background_overlay_opacity": 0.5,
		"primary_cta_text": "Start a project",
		"primary_cta_link": "/contact",
		"secondary_cta_text": "See our work",
		"secondary_cta_link": "/services"
	}`),
	store.SectionNavbar: json.RawMessage(`{
		"logo_url": "",
		"logo_text": "Atelier",
		"show_logo_text": true,
		"navigation_links": [
			{"label": "Home", "href": "/"},
			{"label": "Services", "href": "/services"},
			{"label": "About", "href": "/about"},
			{"label": "Policies", "href": "/policies"},
			{"label": "Contact", "href": "/contact"}
		],
		"cta_button_text": "Get in touch",
		"cta_button_link": "/contact",
		"show_cta_button": true
	}`),
	store.SectionFooter: json.RawMessage(`{
		"logo_url": "",
		"logo_text": "Atelier",
		"show_logo_text": true,
		"copyright_text": "© Atelier Studio. All rights reserved.",
		"social_links": []
	}`),
	store.SectionHomepageFeatures: json.RawMessage(`{
		"section_title": "What we do",
		"section_description": "Strategy, identity and digital product design under one roof.",
		"features": []
	}`),
	store.SectionHomepageCTA: json.RawMessage(`{
		"title": "Ready to build something?",
		"description": "Tell us about your project and we will get back within two working days.",
		"button_text": "Start a project",
		"button_link": "/contact"
	}`),
	store.SectionTestimonialsHeading: json.RawMessage(`{
		"section_title": "What clients say",
		"section_intro": ""
	}`),
	store.SectionBrandsHeading: json.RawMessage(`{
		"section_title": "Brands we have worked with",
		"section_intro": ""
	}`),
	store.SectionAboutHero: json.RawMessage(`{
		"badge": "About us",
		"title": "A studio built on craft",
		"subtitle": "",
		"description": "Atelier is a small team of designers and engineers who care about the details."
	}`),
	store.SectionAboutMission: json.RawMessage(`{
		"section_title": "Our mission",
		"mission_cards": []
	}`),
	store.SectionAboutValues: json.RawMessage(`{
		"section_title": "What we value",
		"section_intro": "",
		"values": []
	}`),
	store.SectionAboutTimeline: json.RawMessage(`{
		"section_title": "How we got here",
		"section_intro": "",
		"milestones": []
	}`),
	store.SectionServicesCTA: json.RawMessage(`{
		"title": "Not sure where to start?",
		"description": "Book a call and we will scope it together.",
		"button_text": "Book a call",
		"button_link": "/contact"
	}`),
	store.SectionPoliciesHero: json.RawMessage(`{
		"title": "Our policies",
		"subtitle": "",
		"description": "How we work, in writing.",
		"background_image_url": ""
	}`),
	store.SectionPoliciesHeading: json.RawMessage(`{
		"section_title": "Policies",
		"section_intro": ""
	}`),
	store.SectionContactHero: json.RawMessage(`{
		"title": "Get in touch",
		"subtitle": "",
		"description": "Tell us what you are working on.",
		"background_image_url": ""
	}`),
	store.SectionContactInfo: json.RawMessage(`{
		"email": "hello@atelier.studio",
		"phone": "",
		"address": "",
		"working_hours": "Mon–Fri, 9:00–18:00"
	}`),
}

func sectionDefault(name string) json.RawMessage {
	if v, ok := sectionDefaults[name]; ok {
		return v
	}
	return json.RawMessage(`{}`)
}
