package navigator

import (
	"sync"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// Selection is the selected section and endpoint of one consumer. Each
// viewer owns its own Selection; nothing is shared between them.
type Selection struct {
	nav *Navigator

	mu       sync.RWMutex
	section  string
	endpoint int // -1 when no endpoint is selected
}

// NewSelection starts on the default section with no endpoint selected
func NewSelection(nav *Navigator) *Selection {
	return &Selection{
		nav:      nav,
		section:  nav.Default(),
		endpoint: -1,
	}
}

// SetSection changes the selected section and clears the endpoint. The
// name is kept even when unknown so the consumer can show an empty state.
func (s *Selection) SetSection(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		name = s.nav.Default()
	}
	s.section = name
	s.endpoint = -1
}

// SetEndpoint selects an endpoint of the current section by index
func (s *Selection) SetEndpoint(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nav.Endpoint(s.section, index); !ok {
		return false
	}
	s.endpoint = index
	return true
}

// SectionName returns the selected section name
func (s *Selection) SectionName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.section
}

// Section returns the selected section, or false for the "not found" state
func (s *Selection) Section() (*models.Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nav.Select(s.section)
}

// EndpointIndex returns the selected endpoint index, or -1
func (s *Selection) EndpointIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoint
}

// Current returns the section name and endpoint index as one consistent pair
func (s *Selection) Current() (string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.section, s.endpoint
}

// Endpoint returns the selected endpoint, if any
func (s *Selection) Endpoint() (*models.Endpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.endpoint < 0 {
		return nil, false
	}
	return s.nav.Endpoint(s.section, s.endpoint)
}
