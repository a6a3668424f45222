package models

import (
	"time"
)

// Documentation sources
const (
	SourceBuiltin = "builtin"
	SourceFile    = "file"
	SourceUpload  = "upload"
	SourceOpenAPI = "openapi"
)

// StoredDoc is a documentation set registered in the catalog
type StoredDoc struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Source        string         `json:"source"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	Documentation *Documentation `json:"documentation"`
}

// DocSummary is a lightweight version for listings
type DocSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Title         string    `json:"title"`
	Version       string    `json:"version"`
	BaseURL       string    `json:"baseUrl"`
	Source        string    `json:"source"`
	SectionCount  int       `json:"sectionCount"`
	EndpointCount int       `json:"endpointCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DocInput is the payload for registering a documentation set
type DocInput struct {
	Name    string `json:"name"`
	Format  string `json:"format"` // yaml, json or openapi
	Content string `json:"content"`
}

// Summary returns the listing form of a stored doc
func (d *StoredDoc) Summary() DocSummary {
	s := DocSummary{
		ID:        d.ID,
		Name:      d.Name,
		Source:    d.Source,
		CreatedAt: d.CreatedAt,
	}
	if d.Documentation != nil {
		s.Title = d.Documentation.Title
		s.Version = d.Documentation.Version
		s.BaseURL = d.Documentation.BaseURL
		s.SectionCount = len(d.Documentation.Sections)
		s.EndpointCount = d.Documentation.EndpointCount()
	}
	return s
}
