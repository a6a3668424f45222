// Package navigator resolves sections and endpoints of a documentation set
// by name, and holds per-consumer selection state.
package navigator

import (
	"github.com/prasenjit/go-apidocs/internal/models"
)

// Navigator indexes a read-only documentation set
type Navigator struct {
	doc    *models.Documentation
	byName map[string]int
}

// New indexes doc by section name. The first section with a given name wins.
func New(doc *models.Documentation) *Navigator {
	n := &Navigator{
		doc:    doc,
		byName: make(map[string]int),
	}
	if doc == nil {
		return n
	}
	for i, s := range doc.Sections {
		if _, exists := n.byName[s.Name]; !exists {
			n.byName[s.Name] = i
		}
	}
	return n
}

// Documentation returns the indexed documentation
func (n *Navigator) Documentation() *models.Documentation {
	return n.doc
}

// Default returns the first section's name, or "" when there are no sections
func (n *Navigator) Default() string {
	if n.doc == nil || len(n.doc.Sections) == 0 {
		return ""
	}
	return n.doc.Sections[0].Name
}

// Sections returns all sections in document order
func (n *Navigator) Sections() []models.Section {
	if n.doc == nil {
		return nil
	}
	return n.doc.Sections
}

// Select returns the named section. An empty name selects the default
// section. Unknown names report false and never fall back to another section.
func (n *Navigator) Select(name string) (*models.Section, bool) {
	if name == "" {
		name = n.Default()
		if name == "" {
			return nil, false
		}
	}
	i, ok := n.byName[name]
	if !ok {
		return nil, false
	}
	return &n.doc.Sections[i], true
}

// Endpoint returns the endpoint at index within the named section
func (n *Navigator) Endpoint(section string, index int) (*models.Endpoint, bool) {
	s, ok := n.Select(section)
	if !ok || index < 0 || index >= len(s.Endpoints) {
		return nil, false
	}
	return &s.Endpoints[index], true
}

// Location identifies an endpoint inside a documentation set
type Location struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
}

// FindEndpoint looks an endpoint up by method and path template across all
// sections, in document order
func (n *Navigator) FindEndpoint(method models.Method, path string) (*models.Endpoint, Location, bool) {
	if n.doc == nil {
		return nil, Location{}, false
	}
	for si := range n.doc.Sections {
		s := &n.doc.Sections[si]
		for ei := range s.Endpoints {
			ep := &s.Endpoints[ei]
			if ep.Method == method && ep.Path == path {
				return ep, Location{Section: s.Name, Index: ei}, true
			}
		}
	}
	return nil, Location{}, false
}
