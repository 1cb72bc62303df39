// Package export renders policies as downloadable PDF and DOCX documents.
package export

import (
	"errors"
	"time"
)

// Format selects the export output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Policy carries the fields a rendered policy document needs.
type Policy struct {
	Title          string
	Slug           string
	Description    string
	Purpose        string
	Scope          string
	Responsibility string
	UpdatedAt      time.Time
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
	// ErrUnsupportedFormat indicates the requested format is not one of pdf or docx.
	ErrUnsupportedFormat = errors.New("export format not supported")
)
