package models

import (
	"fmt"
	"regexp"
)

// Documentation is the root of a documented HTTP API surface
type Documentation struct {
	Title          string         `json:"title" yaml:"title"`
	Version        string         `json:"version" yaml:"version"`
	BaseURL        string         `json:"baseUrl" yaml:"baseUrl"` // Absolute origin, endpoint paths are relative to it
	Description    string         `json:"description" yaml:"description"`
	Authentication Authentication `json:"authentication" yaml:"authentication"`
	Sections       []Section      `json:"sections" yaml:"sections"`
}

// Authentication describes how the documented API authenticates callers
type Authentication struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// Section is a named group of endpoints. Name doubles as the navigation key.
type Section struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Endpoints   []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Endpoint is one documented route + method pair
type Endpoint struct {
	Path           string          `json:"path" yaml:"path"` // May contain {param} placeholders
	Method         Method          `json:"method" yaml:"method"`
	Description    string          `json:"description" yaml:"description"`
	RequestParams  []Parameter     `json:"requestParams,omitempty" yaml:"requestParams,omitempty"`
	RequestBody    *RequestBody    `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	ResponseBody   ResponseBody    `json:"responseBody" yaml:"responseBody"`
	ErrorResponses []ErrorResponse `json:"errorResponses,omitempty" yaml:"errorResponses,omitempty"`
	Authentication bool            `json:"authentication" yaml:"authentication"` // Bearer token required
	RateLimit      string          `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"`
}

// Parameter describes one request parameter. Type is a free-text label.
type Parameter struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description" yaml:"description"`
	Example     string `json:"example,omitempty" yaml:"example,omitempty"`
}

// Payload describes a request or response body. Schema is descriptive only.
type Payload struct {
	ContentType string    `json:"contentType" yaml:"contentType"`
	Schema      JSONValue `json:"schema" yaml:"schema"`
	Example     string    `json:"example,omitempty" yaml:"example,omitempty"` // Expected to be JSON text
}

// RequestBody describes the body an endpoint accepts
type RequestBody = Payload

// ResponseBody describes the body an endpoint returns on success
type ResponseBody = Payload

// ErrorResponse describes one documented error. Code is application-defined.
type ErrorResponse struct {
	Status      int    `json:"status" yaml:"status"`
	Code        string `json:"code" yaml:"code"`
	Message     string `json:"message" yaml:"message"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// placeholderPattern matches {param} tokens in an endpoint path
var placeholderPattern = regexp.MustCompile(`\{([^{}/]+)\}`)

// PlaceholderPattern returns the pattern used to find {param} tokens
func PlaceholderPattern() *regexp.Regexp {
	return placeholderPattern
}

// PathParamNames returns placeholder names in the order they appear in the path
func (e *Endpoint) PathParamNames() []string {
	matches := placeholderPattern.FindAllStringSubmatch(e.Path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// IsPathParam reports whether name appears as a placeholder in the path
func (e *Endpoint) IsPathParam(name string) bool {
	for _, n := range e.PathParamNames() {
		if n == name {
			return true
		}
	}
	return false
}

// Key returns a stable "METHOD path" identifier
func (e *Endpoint) Key() string {
	return fmt.Sprintf("%s %s", e.Method, e.Path)
}

// ErrorsForStatus returns documented errors carrying the given status code
func (e *Endpoint) ErrorsForStatus(status int) []ErrorResponse {
	var result []ErrorResponse
	for _, er := range e.ErrorResponses {
		if er.Status == status {
			result = append(result, er)
		}
	}
	return result
}

// EndpointCount returns the number of endpoints across all sections
func (d *Documentation) EndpointCount() int {
	count := 0
	for _, s := range d.Sections {
		count += len(s.Endpoints)
	}
	return count
}

// SectionNames returns section names in document order
func (d *Documentation) SectionNames() []string {
	names := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		names[i] = s.Name
	}
	return names
}
