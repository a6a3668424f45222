package models

import (
	"encoding/json"
	"time"
)

// Outcome is the discriminator of a tester result
type Outcome string

// Tester outcomes. Any received HTTP response is OutcomeCompleted,
// including 4xx and 5xx.
const (
	OutcomeCompleted      Outcome = "completed"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeTimedOut       Outcome = "timed_out"
	OutcomeCanceled       Outcome = "canceled"
	OutcomeInvalid        Outcome = "invalid" // Rejected before sending
)

// StatusClass groups HTTP status codes for display
type StatusClass string

// Status classes
const (
	ClassInformational StatusClass = "informational"
	ClassSuccess       StatusClass = "success"
	ClassRedirect      StatusClass = "redirect"
	ClassClientError   StatusClass = "client_error"
	ClassServerError   StatusClass = "server_error"
)

// ClassifyStatus maps a status code to its class. Unknown codes yield "".
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 100 && code < 200:
		return ClassInformational
	case code >= 200 && code < 300:
		return ClassSuccess
	case code >= 300 && code < 400:
		return ClassRedirect
	case code >= 400 && code < 500:
		return ClassClientError
	case code >= 500 && code < 600:
		return ClassServerError
	}
	return ""
}

// TestRequest carries caller overrides for a tester call. Nil Body means
// "use the pre-filled body".
type TestRequest struct {
	Method     Method            `json:"method,omitempty"`
	PathParams map[string]string `json:"pathParams,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       *string           `json:"body,omitempty"`
	Token      string            `json:"token,omitempty"`
}

// TestResult is the single discriminated result of one tester call
type TestResult struct {
	Sequence     uint64              `json:"sequence"`
	Outcome      Outcome             `json:"outcome"`
	Method       Method              `json:"method"`
	URL          string              `json:"url"`
	StatusCode   int                 `json:"statusCode,omitempty"`
	StatusText   string              `json:"statusText,omitempty"`
	Class        StatusClass         `json:"statusClass,omitempty"`
	Headers      map[string][]string `json:"headers,omitempty"`
	StartedAt    time.Time           `json:"startedAt"`
	Elapsed      time.Duration       `json:"-"`
	ElapsedMs    float64             `json:"elapsedMs"`
	Body         *ResponseContent    `json:"body,omitempty"`
	Error        string              `json:"error,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
	MatchedError *ErrorResponse      `json:"matchedError,omitempty"`
}

// ResponseContent holds a response body, parsed as JSON when possible
type ResponseContent struct {
	ContentType string          `json:"contentType,omitempty"`
	IsJSON      bool            `json:"isJson"`
	JSON        json.RawMessage `json:"json,omitempty"`
	Text        string          `json:"text,omitempty"`
	Size        int             `json:"size"`
	Truncated   bool            `json:"truncated,omitempty"`
}

// Completed reports whether an HTTP response was received
func (r *TestResult) Completed() bool {
	return r.Outcome == OutcomeCompleted
}

// Failed reports whether the call failed before or while talking to the server
func (r *TestResult) Failed() bool {
	return r.Outcome != OutcomeCompleted
}

// SetElapsed records the elapsed time in both forms
func (r *TestResult) SetElapsed(d time.Duration) {
	r.Elapsed = d
	r.ElapsedMs = float64(d.Nanoseconds()) / 1e6
}
