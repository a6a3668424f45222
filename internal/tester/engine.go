// Package tester executes live requests against documented endpoints and
// reports each call as a single discriminated result.
package tester

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/schema"
)

// Defaults applied when options are left zero
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 1 << 20
)

var errEngineTimeout = errors.New("tester timeout exceeded")

// Options configures an Engine
type Options struct {
	Timeout      time.Duration
	Validation   schema.Mode
	MaxBodyBytes int64
	Client       *http.Client
	Logger       *slog.Logger
}

// Engine performs tester calls. It is safe for concurrent use.
type Engine struct {
	client       *http.Client
	timeout      time.Duration
	validation   schema.Mode
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewEngine creates a new tester engine
func NewEngine(opts Options) *Engine {
	e := &Engine{
		client:       opts.Client,
		timeout:      opts.Timeout,
		validation:   opts.Validation,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       opts.Logger,
	}
	if e.client == nil {
		e.client = &http.Client{
			// Redirects are reported, not followed
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	if e.validation == "" {
		e.validation = schema.ModeStrict
	}
	if e.maxBodyBytes <= 0 {
		e.maxBodyBytes = DefaultMaxBodyBytes
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Validation returns the pre-flight validation mode
func (e *Engine) Validation() schema.Mode {
	return e.validation
}

// Execute performs exactly one HTTP call for req. Every failure is reported
// in the result; Execute never returns an error.
func (e *Engine) Execute(ctx context.Context, req *Request) *models.TestResult {
	result := &models.TestResult{
		Method:    req.Method,
		URL:       req.URL(),
		StartedAt: time.Now(),
		Warnings:  append([]string(nil), req.Warnings...),
	}

	if problems := e.preflight(req, result); len(problems) > 0 {
		result.Outcome = models.OutcomeInvalid
		result.Error = strings.Join(problems, "; ")
		e.logger.Debug("tester request rejected", "method", req.Method, "url", result.URL, "error", result.Error)
		return result
	}

	callCtx, cancel := context.WithTimeoutCause(ctx, e.timeout, errEngineTimeout)
	defer cancel()

	var body io.Reader
	if req.SendsBody() {
		body = strings.NewReader(req.Body)
	} else if req.Body != "" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("body is not sent with %s", req.Method))
	}

	httpReq, err := http.NewRequestWithContext(callCtx, string(req.Method), result.URL, body)
	if err != nil {
		result.Outcome = models.OutcomeInvalid
		result.Error = err.Error()
		return result
	}
	for k, v := range req.EffectiveHeaders() {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		result.SetElapsed(time.Since(start))
		result.Outcome = e.failureOutcome(ctx, callCtx)
		result.Error = err.Error()
		e.logger.Debug("tester request failed", "method", req.Method, "url", result.URL, "outcome", result.Outcome, "error", result.Error)
		return result
	}
	defer resp.Body.Close()

	content, readErr := e.readBody(resp)
	result.SetElapsed(time.Since(start))
	if readErr != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("response body incomplete: %v", readErr))
	}
	if content.Truncated {
		result.Warnings = append(result.Warnings, fmt.Sprintf("response body truncated to %d bytes", e.maxBodyBytes))
	}

	result.Outcome = models.OutcomeCompleted
	result.StatusCode = resp.StatusCode
	result.StatusText = http.StatusText(resp.StatusCode)
	result.Class = models.ClassifyStatus(resp.StatusCode)
	result.Headers = map[string][]string(resp.Header.Clone())
	result.Body = content
	result.MatchedError = matchDocumentedError(req.Endpoint, resp.StatusCode, content)

	e.logger.Debug("tester request completed",
		"method", req.Method,
		"url", result.URL,
		"status", result.StatusCode,
		"elapsed_ms", result.ElapsedMs,
	)
	return result
}

// preflight returns problems that block sending. Findings the mode
// tolerates are added to the result as warnings.
func (e *Engine) preflight(req *Request, result *models.TestResult) []string {
	var problems []string

	if !req.Method.Valid() {
		problems = append(problems, fmt.Sprintf("unsupported method %q", req.Method))
	}
	if e.validation == schema.ModeOff {
		return problems
	}

	if _, unresolved := req.ResolvedPath(); len(unresolved) > 0 {
		problems = append(problems, fmt.Sprintf("unresolved path parameters: %s", strings.Join(unresolved, ", ")))
	}

	for _, missing := range missingRequired(req) {
		msg := fmt.Sprintf("missing required parameter %q", missing)
		if e.validation == schema.ModeStrict {
			problems = append(problems, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
	}

	if req.SendsBody() && isJSONContent(req) && !schema.ValidExample(req.Body) {
		result.Warnings = append(result.Warnings, "request body is not valid JSON")
	}

	return problems
}

// missingRequired lists required parameters the request does not supply.
// Non-path parameters may come from the query or, for methods that send a
// body, from a top-level field of the JSON body.
func missingRequired(req *Request) []string {
	var missing []string
	for _, p := range req.Endpoint.RequestParams {
		if !p.Required {
			continue
		}
		if req.Endpoint.IsPathParam(p.Name) {
			if req.PathParams[p.Name] == "" {
				missing = append(missing, p.Name)
			}
			continue
		}
		if v, ok := req.Query[p.Name]; ok && v != "" {
			continue
		}
		if req.SendsBody() && gjson.Valid(req.Body) && gjson.Get(req.Body, gjson.Escape(p.Name)).Exists() {
			continue
		}
		missing = append(missing, p.Name)
	}
	return missing
}

func isJSONContent(req *Request) bool {
	ct, ok := req.Header("Content-Type")
	if !ok && req.Endpoint.RequestBody != nil {
		ct = req.Endpoint.RequestBody.ContentType
	}
	return ct == "" || strings.Contains(ct, "json")
}

// failureOutcome tells an engine timeout apart from caller cancellation
func (e *Engine) failureOutcome(parent, callCtx context.Context) models.Outcome {
	if errors.Is(context.Cause(callCtx), errEngineTimeout) {
		return models.OutcomeTimedOut
	}
	switch {
	case errors.Is(parent.Err(), context.DeadlineExceeded):
		return models.OutcomeTimedOut
	case errors.Is(parent.Err(), context.Canceled):
		return models.OutcomeCanceled
	}
	return models.OutcomeTransportError
}

func (e *Engine) readBody(resp *http.Response) (*models.ResponseContent, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBodyBytes+1))

	content := &models.ResponseContent{ContentType: resp.Header.Get("Content-Type")}
	if int64(len(data)) > e.maxBodyBytes {
		data = data[:e.maxBodyBytes]
		content.Truncated = true
	}
	content.Size = len(data)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && !content.Truncated && gjson.ValidBytes(trimmed) {
		content.IsJSON = true
		content.JSON = trimmed
	} else {
		content.Text = string(data)
	}
	return content, err
}

// matchDocumentedError picks the documented error for a status. An entry
// whose code equals error.code or code in the JSON body wins; otherwise the
// first entry with the status is used.
func matchDocumentedError(ep *models.Endpoint, status int, content *models.ResponseContent) *models.ErrorResponse {
	if ep == nil {
		return nil
	}
	candidates := ep.ErrorsForStatus(status)
	if len(candidates) == 0 {
		return nil
	}

	if content != nil && content.IsJSON {
		for _, path := range []string{"error.code", "code"} {
			code := gjson.GetBytes(content.JSON, path)
			if !code.Exists() {
				continue
			}
			for i := range candidates {
				if candidates[i].Code == code.String() {
					return &candidates[i]
				}
			}
		}
	}
	return &candidates[0]
}
