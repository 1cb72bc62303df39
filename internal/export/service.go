package export

import (
	"context"
	"fmt"
)

// Service turns policies into downloadable documents.
type Service struct {
	siteName string
}

// NewService creates an export service. siteName appears in the rendered
// document header.
func NewService(siteName string) *Service {
	if siteName == "" {
		siteName = "Atelier"
	}
	return &Service{siteName: siteName}
}

// ExportPolicy renders the policy and converts it to the requested format.
func (s *Service) ExportPolicy(ctx context.Context, p Policy, format Format) (*Result, error) {
	data := TemplateData{
		Title:          p.Title,
		Description:    p.Description,
		Purpose:        p.Purpose,
		Scope:          p.Scope,
		Responsibility: p.Responsibility,
		SiteName:       s.siteName,
		UpdatedAt:      p.UpdatedAt,
	}

	html, err := RenderPolicyHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render policy template: %w", err)
	}

	name := p.Slug
	if name == "" {
		name = p.Title
	}

	switch format {
	case FormatPDF:
		return exportPDF(ctx, html, name)
	case FormatDOCX:
		return exportDOCX(html, name)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
