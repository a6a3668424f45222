package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-apidocs/internal/curl"
	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/navigator"
	"github.com/prasenjit/go-apidocs/internal/storage"
	"github.com/prasenjit/go-apidocs/internal/tester"
)

// TryInput is the payload of a tester call. BaseURL overrides the
// documented origin, e.g. to target a staging deployment.
type TryInput struct {
	BaseURL string             `json:"baseUrl"`
	Request models.TestRequest `json:"request"`
}

// SendInput addresses an endpoint for a session call. Without an index the
// session's selected endpoint is used.
type SendInput struct {
	Section string             `json:"section"`
	Index   *int               `json:"index"`
	BaseURL string             `json:"baseUrl"`
	Request models.TestRequest `json:"request"`
}

type execution struct {
	Result  *models.TestResult `json:"result"`
	Current bool               `json:"current"`
	Curl    string             `json:"curl"`
	ID      string             `json:"executionId"`
}

// buildRequest pre-fills a tester request and applies caller overrides
func buildRequest(doc *models.StoredDoc, ep *models.Endpoint, baseURL string, overrides models.TestRequest) (*tester.Request, error) {
	if baseURL == "" {
		baseURL = doc.Documentation.BaseURL
	}
	req := tester.NewRequest(baseURL, ep)
	if err := req.ApplyOverrides(overrides); err != nil {
		return nil, err
	}
	return req, nil
}

// record stores a finished call in history and statistics
func (h *Handler) record(doc *models.StoredDoc, sessionID string, loc navigator.Location, ep *models.Endpoint, req *tester.Request, result *models.TestResult) *models.Execution {
	body := ""
	if req.SendsBody() {
		body = req.Body
	}
	exec := &models.Execution{
		DocID:     doc.ID,
		SessionID: sessionID,
		Section:   loc.Section,
		Endpoint:  ep.Key(),
		Curl:      curl.FromRequest(req.Method, result.URL, req.EffectiveHeaders(), body),
		Result:    result,
	}
	h.history.Record(exec)
	h.statsCollector.RecordExecution(doc.ID, ep, result)

	h.logger.Debug("tester call finished",
		"doc", doc.Name,
		"endpoint", ep.Key(),
		"outcome", result.Outcome,
		"status", result.StatusCode,
		"elapsedMs", result.ElapsedMs,
	)
	return exec
}

// TryEndpoint sends a one-off tester call outside any session
func (h *Handler) TryEndpoint(c *gin.Context) {
	doc, ep, loc, ok := h.lookupEndpoint(c)
	if !ok {
		return
	}

	var input TryInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	req, err := buildRequest(doc, ep, input.BaseURL, input.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.sessions.Engine().Execute(c.Request.Context(), req)
	exec := h.record(doc, "", loc, ep, req, result)

	c.JSON(http.StatusOK, execution{Result: result, Current: true, Curl: exec.Curl, ID: exec.ID})
}

type sessionInfo struct {
	ID       string             `json:"id"`
	DocID    string             `json:"docId"`
	Sequence uint64             `json:"sequence"`
	Pending  int                `json:"pending"`
	Last     *models.TestResult `json:"last,omitempty"`
}

func describeSession(s *tester.Session) sessionInfo {
	return sessionInfo{
		ID:       s.ID,
		DocID:    s.DocID,
		Sequence: s.Sequence(),
		Pending:  s.Pending(),
		Last:     s.Last(),
	}
}

// CreateSession starts a tester session bound to a documentation set
func (h *Handler) CreateSession(c *gin.Context) {
	var input struct {
		DocID string `json:"docId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.findDoc(input.DocID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Documentation not found"})
		} else {
			respondError(c, err)
		}
		return
	}

	s := h.sessions.Create(doc.ID, navigator.New(doc.Documentation))
	c.JSON(http.StatusCreated, describeSession(s))
}

// ListSessions returns all live sessions
func (h *Handler) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	result := make([]sessionInfo, len(sessions))
	for i, s := range sessions {
		result[i] = describeSession(s)
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) lookupSession(c *gin.Context) (*tester.Session, bool) {
	s, ok := h.sessions.Get(c.Param("sid"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	}
	return s, ok
}

// GetSession returns session state including the last response slot
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, describeSession(s))
}

// SendSession sends a call within a session. Only the most recent call of a
// session fills its last-response slot; an older call that finishes later is
// returned with current=false.
func (h *Handler) SendSession(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var input SendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.store.GetDoc(s.DocID)
	if err != nil {
		respondError(c, err)
		return
	}

	var loc navigator.Location
	if input.Index == nil {
		sel := s.Selection()
		if sel != nil {
			loc.Section, loc.Index = sel.Current()
		}
		if sel == nil || loc.Index < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No endpoint selected"})
			return
		}
	} else {
		loc = navigator.Location{Section: input.Section, Index: *input.Index}
	}

	nav := navigator.New(doc.Documentation)
	section, ok := nav.Select(loc.Section)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Section not found", "section": loc.Section})
		return
	}
	loc.Section = section.Name
	ep, ok := nav.Endpoint(loc.Section, loc.Index)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found", "section": loc.Section, "index": loc.Index})
		return
	}

	req, err := buildRequest(doc, ep, input.BaseURL, input.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, current := s.Send(c.Request.Context(), req)
	exec := h.record(doc, s.ID, loc, ep, req, result)

	c.JSON(http.StatusOK, execution{Result: result, Current: current, Curl: exec.Curl, ID: exec.ID})
}

type selectionInput struct {
	Section string `json:"section"`
	Index   *int   `json:"index"`
}

type selectionInfo struct {
	Section  string           `json:"section"`
	Found    bool             `json:"found"`
	Index    int              `json:"index"`
	Endpoint *models.Endpoint `json:"endpoint,omitempty"`
}

func describeSelection(sel *navigator.Selection) selectionInfo {
	name, index := sel.Current()
	info := selectionInfo{Section: name, Index: index}
	_, info.Found = sel.Section()
	if ep, ok := sel.Endpoint(); ok {
		info.Endpoint = ep
	}
	return info
}

// GetSessionSelection returns the section and endpoint a session has selected
func (h *Handler) GetSessionSelection(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	sel := s.Selection()
	if sel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session has no selection"})
		return
	}
	c.JSON(http.StatusOK, describeSelection(sel))
}

// SetSessionSelection selects a section and optionally one of its endpoints.
// An unknown section is kept and reported with found=false.
func (h *Handler) SetSessionSelection(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var input selectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sel := s.Selection()
	if sel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session has no selection"})
		return
	}
	sel.SetSection(input.Section)
	if input.Index != nil && !sel.SetEndpoint(*input.Index) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found", "section": sel.SectionName(), "index": *input.Index})
		return
	}
	c.JSON(http.StatusOK, describeSelection(sel))
}

// GetSessionLast returns the session's last-response slot
func (h *Handler) GetSessionLast(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}

	last := s.Last()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No response yet"})
		return
	}
	c.JSON(http.StatusOK, last)
}

// CancelSession aborts every in-flight call of a session
func (h *Handler) CancelSession(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"canceled": s.Cancel()})
}

// DeleteSession closes a session
func (h *Handler) DeleteSession(c *gin.Context) {
	if !h.sessions.Delete(c.Param("sid")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session closed"})
}
