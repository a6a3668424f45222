// Package history keeps a bounded in-memory log of tester executions and
// fans new entries out to live subscribers.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// DefaultMaxEntries is used when a service is created with a non-positive limit
const DefaultMaxEntries = 1000

// Service records tester executions
type Service struct {
	mu          sync.RWMutex
	entries     []*models.Execution
	maxEntries  int
	subscribers map[string]chan *models.Execution
}

// NewService creates a new history service
func NewService(maxEntries int) *Service {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &Service{
		entries:     make([]*models.Execution, 0),
		maxEntries:  maxEntries,
		subscribers: make(map[string]chan *models.Execution),
	}
}

// Record stores an execution and notifies subscribers. Oldest entries are
// dropped once the limit is reached.
func (s *Service) Record(exec *models.Execution) {
	s.mu.Lock()

	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	if exec.Timestamp.IsZero() {
		exec.Timestamp = time.Now()
	}

	s.entries = append(s.entries, exec)
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
	}

	// Slow subscribers miss entries rather than block recording
	for _, ch := range s.subscribers {
		select {
		case ch <- exec:
		default:
		}
	}

	s.mu.Unlock()
}

// List returns executions matching the filter, newest first
func (s *Service) List(filter *models.ExecutionFilter) []*models.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Execution, 0)

	for i := len(s.entries) - 1; i >= 0; i-- {
		exec := s.entries[i]
		if !matches(exec, filter) {
			continue
		}

		result = append(result, exec)
		if filter != nil && filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}

	return result
}

func matches(exec *models.Execution, filter *models.ExecutionFilter) bool {
	if filter == nil {
		return true
	}
	r := exec.Result
	switch {
	case filter.DocID != "" && exec.DocID != filter.DocID:
		return false
	case filter.SessionID != "" && exec.SessionID != filter.SessionID:
		return false
	case filter.Section != "" && exec.Section != filter.Section:
		return false
	case filter.Method != "" && (r == nil || string(r.Method) != filter.Method):
		return false
	case filter.Outcome != "" && (r == nil || r.Outcome != filter.Outcome):
		return false
	case filter.StatusCode != 0 && (r == nil || r.StatusCode != filter.StatusCode):
		return false
	case !filter.StartTime.IsZero() && exec.Timestamp.Before(filter.StartTime):
		return false
	case !filter.EndTime.IsZero() && exec.Timestamp.After(filter.EndTime):
		return false
	}
	return true
}

// Get returns a single execution by ID
func (s *Service) Get(id string) *models.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, exec := range s.entries {
		if exec.ID == id {
			return exec
		}
	}

	return nil
}

// Clear removes all executions
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]*models.Execution, 0)
}

// ClearByDoc removes executions of one documentation set
func (s *Service) ClearByDoc(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]*models.Execution, 0, len(s.entries))
	for _, exec := range s.entries {
		if exec.DocID != docID {
			filtered = append(filtered, exec)
		}
	}
	s.entries = filtered
}

// Subscribe creates a subscription for live executions
func (s *Service) Subscribe() (string, chan *models.Execution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.Execution, 100)
	s.subscribers[id] = ch

	return id, ch
}

// Unsubscribe removes a subscription and closes its channel. Record sends
// under the same lock, so no send can race the close.
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Info returns history bookkeeping numbers
func (s *Service) Info() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"totalEntries":      len(s.entries),
		"maxEntries":        s.maxEntries,
		"activeSubscribers": len(s.subscribers),
	}
}
