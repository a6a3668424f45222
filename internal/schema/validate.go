package schema

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// Mode controls how validation findings are enforced at load time
type Mode string

const (
	ModeOff    Mode = "off"    // Skip checks entirely
	ModeWarn   Mode = "warn"   // Log findings, accept the document
	ModeStrict Mode = "strict" // Reject documents with error-severity findings
)

// ParseMode parses an enforcement mode; empty means warn
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeWarn:
		return ModeWarn, nil
	case ModeOff:
		return ModeOff, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unknown enforcement mode %q (want off, warn or strict)", s)
}

// Severity of a validation finding
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding
type Issue struct {
	Severity Severity `json:"severity"`
	Section  string   `json:"section,omitempty"`
	Endpoint string   `json:"endpoint,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	var where []string
	if i.Section != "" {
		where = append(where, "section "+i.Section)
	}
	if i.Endpoint != "" {
		where = append(where, i.Endpoint)
	}
	if len(where) == 0 {
		return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Severity, strings.Join(where, " "), i.Message)
}

// Report collects validation findings
type Report struct {
	Issues []Issue `json:"issues"`
}

// Errors returns error-severity findings
func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns warning-severity findings
func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

// HasErrors reports whether any error-severity finding exists
func (r *Report) HasErrors() bool {
	return len(r.Errors()) > 0
}

func (r *Report) filter(sev Severity) []Issue {
	result := make([]Issue, 0)
	for _, i := range r.Issues {
		if i.Severity == sev {
			result = append(result, i)
		}
	}
	return result
}

func (r *Report) add(sev Severity, section, endpoint, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: sev,
		Section:  section,
		Endpoint: endpoint,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Validate checks a document for structural and referential problems. It
// never fails; findings are returned in the report.
func Validate(doc *models.Documentation) *Report {
	r := &Report{Issues: make([]Issue, 0)}
	if doc == nil {
		r.add(SeverityError, "", "", "documentation is empty")
		return r
	}

	if strings.TrimSpace(doc.Title) == "" {
		r.add(SeverityWarning, "", "", "title is empty")
	}
	validateBaseURL(r, doc.BaseURL)

	seen := make(map[string]bool)
	for _, section := range doc.Sections {
		if strings.TrimSpace(section.Name) == "" {
			r.add(SeverityError, "", "", "section name is empty")
		} else if seen[section.Name] {
			r.add(SeverityError, section.Name, "", "duplicate section name breaks selection by name")
		}
		seen[section.Name] = true

		keys := make(map[string]bool)
		for i := range section.Endpoints {
			ep := &section.Endpoints[i]
			if keys[ep.Key()] {
				r.add(SeverityWarning, section.Name, ep.Key(), "endpoint documented twice in this section")
			}
			keys[ep.Key()] = true
			validateEndpoint(r, section.Name, ep)
		}
	}

	return r
}

func validateBaseURL(r *Report, baseURL string) {
	if baseURL == "" {
		r.add(SeverityError, "", "", "baseUrl is empty")
		return
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		r.add(SeverityError, "", "", "baseUrl is not a URL: %v", err)
		return
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		r.add(SeverityError, "", "", "baseUrl %q is not an absolute http(s) origin", baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		r.add(SeverityError, "", "", "baseUrl %q must not carry a query or fragment", baseURL)
	}
	if strings.HasSuffix(u.Path, "/") {
		r.add(SeverityWarning, "", "", "baseUrl %q ends with '/', endpoint paths will produce '//'", baseURL)
	}
}

func validateEndpoint(r *Report, section string, ep *models.Endpoint) {
	key := ep.Key()

	if !ep.Method.Valid() {
		r.add(SeverityError, section, key, "method %q is not one of GET, POST, PUT, DELETE, PATCH", ep.Method)
	}
	if !strings.HasPrefix(ep.Path, "/") {
		r.add(SeverityError, section, key, "path must start with '/'")
	}
	if strings.Count(ep.Path, "{") != strings.Count(ep.Path, "}") {
		r.add(SeverityError, section, key, "path has unbalanced placeholder braces")
	}

	params := make(map[string]bool)
	for _, p := range ep.RequestParams {
		params[p.Name] = true
	}
	for _, name := range ep.PathParamNames() {
		if !params[name] {
			r.add(SeverityWarning, section, key, "path placeholder {%s} has no matching request parameter", name)
		}
	}
	for _, p := range ep.RequestParams {
		if ep.IsPathParam(p.Name) && !p.Required {
			r.add(SeverityWarning, section, key, "path parameter %q should be required", p.Name)
		}
	}

	if ep.RequestBody != nil {
		if ep.Method == models.MethodGet {
			r.add(SeverityWarning, section, key, "GET endpoint documents a request body that is never sent")
		}
		if !ValidExample(ep.RequestBody.Example) {
			r.add(SeverityWarning, section, key, "requestBody example is not valid JSON")
		}
	}
	if ep.ResponseBody.ContentType == "" {
		r.add(SeverityWarning, section, key, "responseBody has no content type")
	}
	if !ValidExample(ep.ResponseBody.Example) {
		r.add(SeverityWarning, section, key, "responseBody example is not valid JSON")
	}

	for _, er := range ep.ErrorResponses {
		if er.Status < 400 || er.Status > 599 {
			r.add(SeverityWarning, section, key, "error response %s has non-error status %d", er.Code, er.Status)
		}
		if er.Code == "" {
			r.add(SeverityWarning, section, key, "error response with status %d has no code", er.Status)
		}
	}
}

// Enforce validates doc according to mode. In warn mode every finding is
// logged; in strict mode error findings reject the document.
func Enforce(doc *models.Documentation, mode Mode, source string, logger *slog.Logger) (*Report, error) {
	if mode == ModeOff {
		return &Report{Issues: make([]Issue, 0)}, nil
	}

	report := Validate(doc)
	if logger != nil {
		for _, issue := range report.Issues {
			level := slog.LevelWarn
			if issue.Severity == SeverityError && mode == ModeStrict {
				level = slog.LevelError
			}
			logger.Log(context.Background(), level, "documentation issue",
				"source", source,
				"severity", issue.Severity,
				"section", issue.Section,
				"endpoint", issue.Endpoint,
				"message", issue.Message,
			)
		}
	}

	if mode == ModeStrict && report.HasErrors() {
		return report, &Error{
			Kind:    KindValidation,
			Source:  source,
			Message: "documentation rejected",
			Issues:  report.Errors(),
		}
	}
	return report, nil
}
