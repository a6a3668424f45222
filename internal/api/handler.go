package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prasenjit/go-apidocs/internal/curl"
	"github.com/prasenjit/go-apidocs/internal/history"
	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/navigator"
	"github.com/prasenjit/go-apidocs/internal/schema"
	"github.com/prasenjit/go-apidocs/internal/stats"
	"github.com/prasenjit/go-apidocs/internal/storage"
	"github.com/prasenjit/go-apidocs/internal/tester"
)

// Handler handles API requests
type Handler struct {
	store          storage.Storage
	sessions       *tester.SessionManager
	history        *history.Service
	statsCollector *stats.Collector
	enforcement    schema.Mode
	logger         *slog.Logger
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage, sessions *tester.SessionManager, historySvc *history.Service, statsCollector *stats.Collector, enforcement schema.Mode, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:          store,
		sessions:       sessions,
		history:        historySvc,
		statsCollector: statsCollector,
		enforcement:    enforcement,
		logger:         logger,
	}
}

// Register validates doc with the configured enforcement mode and adds it to
// the catalog
func (h *Handler) Register(name, source string, doc *models.Documentation) (*models.StoredDoc, error) {
	if _, err := schema.Enforce(doc, h.enforcement, name, h.logger); err != nil {
		return nil, err
	}

	now := time.Now()
	stored := &models.StoredDoc{
		ID:            uuid.New().String(),
		Name:          name,
		Source:        source,
		CreatedAt:     now,
		UpdatedAt:     now,
		Documentation: doc,
	}
	if err := h.store.CreateDoc(stored); err != nil {
		return nil, err
	}

	h.logger.Info("documentation registered",
		"id", stored.ID,
		"name", name,
		"source", source,
		"sections", len(doc.Sections),
		"endpoints", doc.EndpointCount(),
	)
	return stored, nil
}

// Seed registers doc under name, or replaces the content of the catalog
// entry already carrying that name
func (h *Handler) Seed(name, source string, doc *models.Documentation) (*models.StoredDoc, error) {
	existing, err := h.store.GetDocByName(name)
	if errors.Is(err, storage.ErrNotFound) {
		return h.Register(name, source, doc)
	}
	if err != nil {
		return nil, err
	}

	if _, err := schema.Enforce(doc, h.enforcement, name, h.logger); err != nil {
		return nil, err
	}
	updated := *existing
	updated.Source = source
	updated.Documentation = doc
	updated.UpdatedAt = time.Now()
	if err := h.store.UpdateDoc(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// respondError maps catalog and schema errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	var schemaErr *schema.Error
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &schemaErr) && schemaErr.Kind == schema.KindValidation:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": schemaErr.Message, "issues": schemaErr.Issues})
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": schemaErr.Kind})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// findDoc resolves a documentation reference by ID, then by name
func (h *Handler) findDoc(ref string) (*models.StoredDoc, error) {
	doc, err := h.store.GetDoc(ref)
	if errors.Is(err, storage.ErrNotFound) {
		doc, err = h.store.GetDocByName(ref)
	}
	return doc, err
}

// lookupDoc resolves the :id parameter and writes a 404 when it is unknown
func (h *Handler) lookupDoc(c *gin.Context) (*models.StoredDoc, bool) {
	doc, err := h.findDoc(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Documentation not found"})
		} else {
			respondError(c, err)
		}
		return nil, false
	}
	return doc, true
}

// lookupEndpoint resolves :section and :index within a documentation set
func (h *Handler) lookupEndpoint(c *gin.Context) (*models.StoredDoc, *models.Endpoint, navigator.Location, bool) {
	doc, ok := h.lookupDoc(c)
	if !ok {
		return nil, nil, navigator.Location{}, false
	}

	nav := navigator.New(doc.Documentation)
	section, ok := nav.Select(c.Param("section"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Section not found", "section": c.Param("section")})
		return nil, nil, navigator.Location{}, false
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index >= len(section.Endpoints) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found", "section": section.Name, "index": c.Param("index")})
		return nil, nil, navigator.Location{}, false
	}

	return doc, &section.Endpoints[index], navigator.Location{Section: section.Name, Index: index}, true
}

// ListDocs returns all documentation sets
func (h *Handler) ListDocs(c *gin.Context) {
	docs, err := h.store.GetAllDocs()
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]models.DocSummary, len(docs))
	for i, doc := range docs {
		result[i] = doc.Summary()
	}

	c.JSON(http.StatusOK, result)
}

// CreateDoc registers native or OpenAPI documentation
func (h *Handler) CreateDoc(c *gin.Context) {
	var input models.DocInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Name == "" || input.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and content are required"})
		return
	}

	format := input.Format
	if format == schema.FormatAuto {
		format = schema.DetectFormat("", []byte(input.Content))
	}

	doc, err := schema.Parse([]byte(input.Content), format)
	if err != nil {
		respondError(c, err)
		return
	}

	source := models.SourceUpload
	if format == schema.FormatOpenAPI {
		source = models.SourceOpenAPI
	}

	stored, err := h.Register(input.Name, source, doc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, stored.Summary())
}

// ImportDoc converts an OpenAPI 3 document and registers it
func (h *Handler) ImportDoc(c *gin.Context) {
	var input struct {
		Name    string `json:"name"`
		Content string `json:"content"`
		BaseURL string `json:"baseUrl"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := schema.ImportOpenAPI([]byte(input.Content), schema.ImportOptions{BaseURL: input.BaseURL})
	if err != nil {
		respondError(c, err)
		return
	}

	name := input.Name
	if name == "" {
		name = doc.Title
	}

	stored, err := h.Register(name, models.SourceOpenAPI, doc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, stored.Summary())
}

// GetDoc returns a full documentation set
func (h *Handler) GetDoc(c *gin.Context) {
	doc, ok := h.lookupDoc(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, doc)
}

// UpdateDoc replaces the content of a documentation set
func (h *Handler) UpdateDoc(c *gin.Context) {
	doc, ok := h.lookupDoc(c)
	if !ok {
		return
	}
	if doc.Source == models.SourceBuiltin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Built-in documentation is read-only"})
		return
	}

	var input models.DocInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parsed, err := schema.Parse([]byte(input.Content), input.Format)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := schema.Enforce(parsed, h.enforcement, doc.Name, h.logger); err != nil {
		respondError(c, err)
		return
	}

	updated := *doc
	updated.Documentation = parsed
	if input.Name != "" {
		updated.Name = input.Name
	}
	updated.UpdatedAt = time.Now()

	if err := h.store.UpdateDoc(&updated); err != nil {
		respondError(c, err)
		return
	}

	// Sessions hold endpoints of the previous content
	h.sessions.CloseDoc(doc.ID)

	c.JSON(http.StatusOK, updated.Summary())
}

// DeleteDoc removes a documentation set with its sessions and history
func (h *Handler) DeleteDoc(c *gin.Context) {
	doc, ok := h.lookupDoc(c)
	if !ok {
		return
	}
	if doc.Source == models.SourceBuiltin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Built-in documentation cannot be deleted"})
		return
	}

	if err := h.store.DeleteDoc(doc.ID); err != nil {
		respondError(c, err)
		return
	}

	h.sessions.CloseDoc(doc.ID)
	h.history.ClearByDoc(doc.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Documentation deleted"})
}

// ValidateDoc returns the validation report of a documentation set
func (h *Handler) ValidateDoc(c *gin.Context) {
	doc, ok := h.lookupDoc(c)
	if !ok {
		return
	}

	report := schema.Validate(doc.Documentation)
	c.JSON(http.StatusOK, gin.H{
		"valid":    !report.HasErrors(),
		"errors":   report.Errors(),
		"warnings": report.Warnings(),
	})
}

type sectionSummary struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	EndpointCount int    `json:"endpointCount"`
}

// ListSections returns section names in document order with the default
func (h *Handler) ListSections(c *gin.Context) {
	doc, ok := h.lookupDoc(c)
	if !ok {
		return
	}

	nav := navigator.New(doc.Documentation)
	sections := nav.Sections()
	result := make([]sectionSummary, len(sections))
	for i, s := range sections {
		result[i] = sectionSummary{
			Name:          s.Name,
			Description:   s.Description,
			EndpointCount: len(s.Endpoints),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"default":  nav.Default(),
		"sections": result,
	})
}

// GetSection returns one section. The "section" query parameter of the
// selection route may be empty to get the default section; an unknown name
// yields a 404 empty state.
func (h *Handler) GetSection(c *gin.Context) {
	doc, ok := h.lookupDoc(c)
	if !ok {
		return
	}

	name := c.Param("section")
	if name == "" {
		name = c.Query("section")
	}

	section, ok := navigator.New(doc.Documentation).Select(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Section not found",
			"section":   name,
			"endpoints": []models.Endpoint{},
		})
		return
	}

	c.JSON(http.StatusOK, section)
}

// GetEndpoint returns one endpoint with its cURL example
func (h *Handler) GetEndpoint(c *gin.Context) {
	doc, ep, loc, ok := h.lookupEndpoint(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location": loc,
		"endpoint": ep,
		"curl":     curl.Generate(ep, doc.Documentation.BaseURL),
	})
}

// GetCurl returns the cURL example of an endpoint as plain text
func (h *Handler) GetCurl(c *gin.Context) {
	doc, ep, _, ok := h.lookupEndpoint(c)
	if !ok {
		return
	}

	baseURL := c.DefaultQuery("baseUrl", doc.Documentation.BaseURL)
	c.String(http.StatusOK, curl.Generate(ep, baseURL))
}

// GetPrefilledRequest returns the editable tester request for an endpoint
func (h *Handler) GetPrefilledRequest(c *gin.Context) {
	doc, ep, _, ok := h.lookupEndpoint(c)
	if !ok {
		return
	}

	req := tester.NewRequest(c.DefaultQuery("baseUrl", doc.Documentation.BaseURL), ep)
	path, unresolved := req.ResolvedPath()
	c.JSON(http.StatusOK, gin.H{
		"request":    req,
		"path":       path,
		"unresolved": unresolved,
	})
}

// GetGlobalStats returns global statistics
func (h *Handler) GetGlobalStats(c *gin.Context) {
	docs, _ := h.store.GetAllDocs()
	endpoints := 0
	for _, doc := range docs {
		endpoints += doc.Documentation.EndpointCount()
	}

	c.JSON(http.StatusOK, h.statsCollector.GetGlobalStats(len(docs), endpoints))
}

// GetDocStats returns per-endpoint statistics of a documentation set
func (h *Handler) GetDocStats(c *gin.Context) {
	doc, ok := h.lookupDoc(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"docId":     doc.ID,
		"name":      doc.Name,
		"endpoints": h.statsCollector.GetDocStats(doc.ID),
	})
}

// GetEndpointStats returns statistics for an endpoint addressed by the
// "key" query parameter, e.g. "GET /users/{id}"
func (h *Handler) GetEndpointStats(c *gin.Context) {
	doc, ok := h.lookupDoc(c)
	if !ok {
		return
	}

	stat := h.statsCollector.GetEndpointStats(doc.ID, c.Query("key"))
	if stat == nil {
		c.JSON(http.StatusOK, gin.H{"message": "No statistics available"})
		return
	}

	c.JSON(http.StatusOK, stat)
}

// ResetStats resets all statistics
func (h *Handler) ResetStats(c *gin.Context) {
	h.statsCollector.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Statistics reset"})
}

// ListHistory returns recorded executions, newest first
func (h *Handler) ListHistory(c *gin.Context) {
	filter := &models.ExecutionFilter{
		Limit: 100,
	}

	filter.DocID = c.Query("docId")
	filter.SessionID = c.Query("sessionId")
	filter.Section = c.Query("section")
	filter.Method = strings.ToUpper(c.Query("method"))
	filter.Outcome = models.Outcome(c.Query("outcome"))
	if status, err := strconv.Atoi(c.Query("status")); err == nil {
		filter.StatusCode = status
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if since, err := time.Parse(time.RFC3339, c.Query("since")); err == nil {
		filter.StartTime = since
	}

	c.JSON(http.StatusOK, h.history.List(filter))
}

// GetHistoryEntry returns a single execution
func (h *Handler) GetHistoryEntry(c *gin.Context) {
	exec := h.history.Get(c.Param("id"))
	if exec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Execution not found"})
		return
	}

	c.JSON(http.StatusOK, exec)
}

// ClearHistory clears all executions, or those of one documentation set
func (h *Handler) ClearHistory(c *gin.Context) {
	if docID := c.Query("docId"); docID != "" {
		h.history.ClearByDoc(docID)
	} else {
		h.history.Clear()
	}
	c.JSON(http.StatusOK, gin.H{"message": "History cleared"})
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"sessions":  h.sessions.Count(),
		"history":   h.history.Info(),
	})
}
