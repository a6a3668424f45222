package schema

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/tidwall/gjson"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// defaultSection holds operations that carry no tag
const defaultSection = "General"

// ImportOptions tunes OpenAPI import
type ImportOptions struct {
	BaseURL string // Overrides servers[0]
}

// methodOrder lists the supported methods in display order
var methodOrder = []models.Method{
	models.MethodGet,
	models.MethodPost,
	models.MethodPut,
	models.MethodPatch,
	models.MethodDelete,
}

// ImportOpenAPI converts an OpenAPI 3 document into documentation. Operations
// are grouped into sections by their first tag.
func ImportOpenAPI(content []byte, opts ImportOptions) (*models.Documentation, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(content)
	if err != nil {
		return nil, &Error{Kind: KindImport, Message: "failed to parse OpenAPI spec", Cause: err}
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, &Error{Kind: KindImport, Message: "invalid OpenAPI spec", Cause: err}
	}

	result := &models.Documentation{
		BaseURL:  opts.BaseURL,
		Sections: make([]models.Section, 0),
	}
	if doc.Info != nil {
		result.Title = doc.Info.Title
		result.Version = doc.Info.Version
		result.Description = doc.Info.Description
	}
	if result.BaseURL == "" {
		result.BaseURL = serverURL(doc)
	}
	result.Authentication = authDescriptor(doc.Security)

	// Sections follow the document's tag list, then first appearance
	index := make(map[string]int)
	for _, tag := range doc.Tags {
		if tag == nil {
			continue
		}
		index[tag.Name] = len(result.Sections)
		result.Sections = append(result.Sections, models.Section{
			Name:        tag.Name,
			Description: tag.Description,
			Endpoints:   make([]models.Endpoint, 0),
		})
	}

	paths := doc.Paths.Map()
	patterns := make([]string, 0, len(paths))
	for p := range paths {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	for _, pattern := range patterns {
		item := paths[pattern]
		if item == nil {
			continue
		}

		for _, method := range methodOrder {
			op := item.GetOperation(string(method))
			if op == nil {
				continue
			}

			name := defaultSection
			if len(op.Tags) > 0 {
				name = op.Tags[0]
			}
			i, ok := index[name]
			if !ok {
				i = len(result.Sections)
				index[name] = i
				result.Sections = append(result.Sections, models.Section{Name: name, Endpoints: make([]models.Endpoint, 0)})
			}

			ep := convertOperation(pattern, method, item, op, doc.Security)
			result.Sections[i].Endpoints = append(result.Sections[i].Endpoints, ep)
		}
	}

	// Drop declared tags no operation uses
	sections := result.Sections[:0]
	for _, s := range result.Sections {
		if len(s.Endpoints) > 0 {
			sections = append(sections, s)
		}
	}
	result.Sections = sections

	return result, nil
}

func convertOperation(pattern string, method models.Method, item *openapi3.PathItem, op *openapi3.Operation, global openapi3.SecurityRequirements) models.Endpoint {
	ep := models.Endpoint{
		Path:        pattern,
		Method:      method,
		Description: op.Description,
	}
	if ep.Description == "" {
		ep.Description = op.Summary
	}

	// Operation parameters override path-level ones with the same name
	seen := make(map[string]int)
	for _, refs := range []openapi3.Parameters{item.Parameters, op.Parameters} {
		for _, ref := range refs {
			if ref == nil || ref.Value == nil {
				continue
			}
			p := convertParameter(ref.Value)
			if i, ok := seen[p.Name]; ok {
				ep.RequestParams[i] = p
				continue
			}
			seen[p.Name] = len(ep.RequestParams)
			ep.RequestParams = append(ep.RequestParams, p)
		}
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if payload, ok := convertContent(op.RequestBody.Value.Content); ok {
			ep.RequestBody = &payload
		}
	}

	ep.ResponseBody = models.ResponseBody{ContentType: "application/json"}
	if op.Responses != nil {
		responses := op.Responses.Map()
		codes := make([]string, 0, len(responses))
		for code := range responses {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		foundSuccess := false
		for _, code := range codes {
			ref := responses[code]
			if ref == nil || ref.Value == nil {
				continue
			}
			status, err := strconv.Atoi(code)
			if err != nil {
				continue // "default" and "4XX" ranges carry no single status
			}

			switch {
			case status >= 200 && status < 300 && !foundSuccess:
				if payload, ok := convertContent(ref.Value.Content); ok {
					ep.ResponseBody = payload
				}
				foundSuccess = true
			case status >= 400 && status < 600:
				ep.ErrorResponses = append(ep.ErrorResponses, convertError(status, ref.Value))
			}
		}
	}

	switch {
	case op.Security != nil:
		ep.Authentication = len(*op.Security) > 0
	default:
		ep.Authentication = len(global) > 0
	}

	if limit, ok := op.Extensions["x-rate-limit"]; ok {
		ep.RateLimit = fmt.Sprint(limit)
	}

	return ep
}

func convertParameter(p *openapi3.Parameter) models.Parameter {
	param := models.Parameter{
		Name:        p.Name,
		Type:        typeLabel(p.Schema),
		Required:    p.Required || p.In == openapi3.ParameterInPath,
		Description: p.Description,
	}
	if p.Example != nil {
		param.Example = exampleText(p.Example)
	} else if p.Schema != nil && p.Schema.Value != nil && p.Schema.Value.Example != nil {
		param.Example = exampleText(p.Schema.Value.Example)
	}
	return param
}

// convertContent picks the JSON media type when present, otherwise the
// alphabetically first one
func convertContent(content openapi3.Content) (models.Payload, bool) {
	if len(content) == 0 {
		return models.Payload{}, false
	}

	mimes := make([]string, 0, len(content))
	for mime := range content {
		mimes = append(mimes, mime)
	}
	sort.Strings(mimes)

	chosen := mimes[0]
	for _, mime := range mimes {
		if strings.Contains(mime, "json") {
			chosen = mime
			break
		}
	}
	media := content[chosen]

	payload := models.Payload{ContentType: chosen}
	if media == nil {
		return payload, true
	}

	if media.Schema != nil {
		if data, err := json.Marshal(media.Schema); err == nil {
			if v, err := models.ParseJSON(data); err == nil {
				payload.Schema = v
			}
		}
	}

	switch {
	case media.Example != nil:
		payload.Example = exampleText(media.Example)
	case len(media.Examples) > 0:
		names := make([]string, 0, len(media.Examples))
		for name := range media.Examples {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ex := media.Examples[name]
			if ex != nil && ex.Value != nil && ex.Value.Value != nil {
				payload.Example = exampleText(ex.Value.Value)
				break
			}
		}
	case media.Schema != nil && media.Schema.Value != nil && media.Schema.Value.Example != nil:
		payload.Example = exampleText(media.Schema.Value.Example)
	}

	return payload, true
}

func convertError(status int, resp *openapi3.Response) models.ErrorResponse {
	er := models.ErrorResponse{
		Status:  status,
		Code:    statusCode(status),
		Message: http.StatusText(status),
	}
	if resp.Description != nil && *resp.Description != "" {
		er.Message = *resp.Description
	}

	// Prefer the application code carried by the documented example
	if payload, ok := convertContent(resp.Content); ok && payload.Example != "" {
		for _, path := range []string{"error.code", "code"} {
			if code := gjson.Get(payload.Example, path); code.Exists() && code.String() != "" {
				er.Code = code.String()
				break
			}
		}
		er.Description = fmt.Sprintf("Example: %s", CompactExample(payload.Example))
	}

	return er
}

// statusCode turns an HTTP status into an upper snake-case code, e.g. NOT_FOUND
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return fmt.Sprintf("HTTP_%d", status)
	}
	text = strings.NewReplacer("-", " ", "'", "").Replace(text)
	return strings.ToUpper(strings.Join(strings.Fields(text), "_"))
}

func typeLabel(ref *openapi3.SchemaRef) string {
	if ref == nil || ref.Value == nil {
		return "string"
	}
	s := ref.Value

	label := strings.Join(s.Type.Slice(), "|")
	if label == "" {
		label = "object"
	}
	if s.Type.Is("array") && s.Items != nil && s.Items.Value != nil {
		label = typeLabel(s.Items) + "[]"
	}
	if s.Format != "" {
		label = fmt.Sprintf("%s (%s)", label, s.Format)
	}
	return label
}

func exampleText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

func serverURL(doc *openapi3.T) string {
	if len(doc.Servers) == 0 || doc.Servers[0] == nil {
		return ""
	}
	server := doc.Servers[0]
	u := server.URL
	for name, variable := range server.Variables {
		if variable != nil {
			u = strings.ReplaceAll(u, "{"+name+"}", variable.Default)
		}
	}
	return strings.TrimSuffix(u, "/")
}

func authDescriptor(security openapi3.SecurityRequirements) models.Authentication {
	if len(security) == 0 {
		return models.Authentication{Type: "none", Description: "No global security requirement"}
	}

	names := make([]string, 0)
	for _, req := range security {
		for name := range req {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return models.Authentication{
		Type:        "bearer",
		Description: fmt.Sprintf("Security requirements: %s", strings.Join(names, ", ")),
	}
}
