package tester

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/schema"
)

// PlaceholderAuthorization is the seeded Authorization header value for
// endpoints that require a bearer token
const PlaceholderAuthorization = "Bearer YOUR_TOKEN"

// Request is an editable tester request derived from one endpoint
type Request struct {
	Endpoint   *models.Endpoint  `json:"-"`
	BaseURL    string            `json:"baseUrl"`
	Method     models.Method     `json:"method"`
	PathParams map[string]string `json:"pathParams"`
	Query      map[string]string `json:"query"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body,omitempty"`
	Token      string            `json:"-"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// NewRequest pre-fills a request from ep. The Authorization header is seeded
// with a placeholder token only when the endpoint requires authentication.
// A JSON body example is re-indented; a non-JSON example is kept verbatim
// with a warning.
func NewRequest(baseURL string, ep *models.Endpoint) *Request {
	req := &Request{
		Endpoint:   ep,
		BaseURL:    baseURL,
		Method:     ep.Method,
		PathParams: make(map[string]string),
		Query:      make(map[string]string),
		Headers:    make(map[string]string),
	}

	if ep.Authentication {
		req.Headers["Authorization"] = PlaceholderAuthorization
	}

	if ep.RequestBody != nil && ep.RequestBody.Example != "" {
		body, ok := schema.PrettyExample(ep.RequestBody.Example)
		req.Body = body
		if !ok {
			req.Warnings = append(req.Warnings, "requestBody example is not valid JSON, body kept verbatim")
		}
	}

	return req
}

// ApplyOverrides merges caller overrides into the request. Header names are
// matched case-insensitively; an empty header value removes the header.
func (r *Request) ApplyOverrides(o models.TestRequest) error {
	if o.Method != "" {
		if !o.Method.Valid() {
			return fmt.Errorf("unsupported method: %q", o.Method)
		}
		r.Method = o.Method
	}
	for k, v := range o.PathParams {
		r.PathParams[k] = v
	}
	for k, v := range o.Query {
		r.Query[k] = v
	}
	for k, v := range o.Headers {
		r.deleteHeader(k)
		if v != "" {
			r.Headers[k] = v
		}
	}
	if o.Body != nil {
		r.Body = *o.Body
	}
	if o.Token != "" {
		r.Token = o.Token
	}
	return nil
}

// Header returns a header value, matching the name case-insensitively
func (r *Request) Header(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func (r *Request) deleteHeader(name string) {
	for k := range r.Headers {
		if strings.EqualFold(k, name) {
			delete(r.Headers, k)
		}
	}
}

// SendsBody reports whether a body will be sent
func (r *Request) SendsBody() bool {
	return r.Body != "" && r.Method.AllowsBody()
}

// ResolvedPath substitutes {param} tokens with path-escaped values and
// returns the names of tokens left unresolved
func (r *Request) ResolvedPath() (string, []string) {
	var unresolved []string
	path := models.PlaceholderPattern().ReplaceAllStringFunc(r.Endpoint.Path, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := r.PathParams[name]; ok && v != "" {
			return url.PathEscape(v)
		}
		unresolved = append(unresolved, name)
		return token
	})
	return path, unresolved
}

// URL builds the full request URL. Unresolved placeholders stay literal.
func (r *Request) URL() string {
	path, _ := r.ResolvedPath()
	u := strings.TrimSuffix(r.BaseURL, "/") + path

	if len(r.Query) > 0 {
		values := url.Values{}
		for k, v := range r.Query {
			values.Set(k, v)
		}
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + values.Encode()
	}
	return u
}

// EffectiveHeaders returns the headers that will be sent. Content-Type is
// added for bodies when the caller did not set one; a supplied token
// replaces the Authorization header of authenticated endpoints.
func (r *Request) EffectiveHeaders() map[string]string {
	headers := make(map[string]string, len(r.Headers)+2)
	for k, v := range r.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}

	if r.SendsBody() {
		if _, ok := r.Header("Content-Type"); !ok {
			contentType := "application/json"
			if r.Endpoint.RequestBody != nil && r.Endpoint.RequestBody.ContentType != "" {
				contentType = r.Endpoint.RequestBody.ContentType
			}
			headers["Content-Type"] = contentType
		}
	}

	if r.Endpoint.Authentication && r.Token != "" {
		headers["Authorization"] = "Bearer " + r.Token
	}

	return headers
}
