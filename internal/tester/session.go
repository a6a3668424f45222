package tester

import (
	"context"
	"sync"
	"time"

	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/navigator"
)

// Session is one tester instance with a single last-response slot. Every
// Send is tagged with a sequence number; a result only reaches the slot if
// no later Send was issued, whatever order the calls complete in.
type Session struct {
	ID        string    `json:"id"`
	DocID     string    `json:"docId"`
	CreatedAt time.Time `json:"createdAt"`

	engine    *Engine
	selection *navigator.Selection

	mu       sync.Mutex
	seq      uint64 // latest issued sequence
	last     *models.TestResult
	inflight map[uint64]context.CancelFunc
	closed   bool
	lastUsed time.Time
}

// NewSession creates a session bound to a documentation set
func NewSession(id, docID string, engine *Engine) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		DocID:     docID,
		CreatedAt: now,
		engine:    engine,
		inflight:  make(map[uint64]context.CancelFunc),
		lastUsed:  now,
	}
}

// Selection returns the session's section and endpoint selection, or nil
// when the session was created without a navigator
func (s *Session) Selection() *navigator.Selection {
	return s.selection
}

// Send executes req and returns its result. current is false when the
// result was discarded because a later Send was issued or the session was
// cancelled or closed meanwhile.
func (s *Session) Send(ctx context.Context, req *Request) (result *models.TestResult, current bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &models.TestResult{
			Outcome:   models.OutcomeCanceled,
			Method:    req.Method,
			URL:       req.URL(),
			StartedAt: time.Now(),
			Error:     "session closed",
		}, false
	}
	s.seq++
	seq := s.seq
	callCtx, cancel := context.WithCancel(ctx)
	s.inflight[seq] = cancel
	s.lastUsed = time.Now()
	s.mu.Unlock()

	result = s.engine.Execute(callCtx, req)
	result.Sequence = seq
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, seq)
	if s.closed || seq != s.seq {
		return result, false
	}
	s.last = result
	return result, true
}

// Last returns the result in the last-response slot, or nil
func (s *Session) Last() *models.TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Sequence returns the latest issued sequence number
func (s *Session) Sequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Pending returns the number of in-flight calls
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// Cancel aborts every in-flight call and returns how many were aborted
func (s *Session) Cancel() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cancel := range s.inflight {
		cancel()
	}
	return len(s.inflight)
}

// Close cancels in-flight calls. Results arriving afterwards are dropped
// and later Sends fail immediately.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, cancel := range s.inflight {
		cancel()
	}
}

// Closed reports whether the session has been closed
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}
