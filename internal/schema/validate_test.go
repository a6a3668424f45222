package schema

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasenjit/go-apidocs/internal/models"
)

func validDoc() *models.Documentation {
	return &models.Documentation{
		Title:   "Test API",
		Version: "1.0",
		BaseURL: "https://api.example.com/v1",
		Sections: []models.Section{
			{
				Name: "Users",
				Endpoints: []models.Endpoint{
					{
						Path:   "/users/{id}",
						Method: models.MethodGet,
						RequestParams: []models.Parameter{
							{Name: "id", Type: "string", Required: true},
						},
						ResponseBody: models.ResponseBody{ContentType: "application/json", Example: `{"id":"u1"}`},
						ErrorResponses: []models.ErrorResponse{
							{Status: 404, Code: "USER_NOT_FOUND", Message: "not found"},
						},
					},
				},
			},
		},
	}
}

func hasIssue(issues []Issue, fragment string) bool {
	for _, i := range issues {
		if strings.Contains(i.Message, fragment) {
			return true
		}
	}
	return false
}

func TestValidate_Clean(t *testing.T) {
	report := Validate(validDoc())
	assert.Empty(t, report.Issues)
	assert.False(t, report.HasErrors())
}

func TestValidate_Nil(t *testing.T) {
	report := Validate(nil)
	assert.True(t, report.HasErrors())
}

func TestValidate_DuplicateSection(t *testing.T) {
	doc := validDoc()
	doc.Sections = append(doc.Sections, models.Section{Name: "Users"}, models.Section{Name: " "})

	report := Validate(doc)
	errs := report.Errors()
	require.Len(t, errs, 2)
	assert.True(t, hasIssue(errs, "duplicate section name"))
	assert.True(t, hasIssue(errs, "section name is empty"))
	assert.Equal(t, "Users", errs[0].Section)
}

func TestValidate_BaseURL(t *testing.T) {
	tests := []struct {
		baseURL string
		errors  int
	}{
		{"https://api.example.com", 0},
		{"http://localhost:8080/api", 0},
		{"", 1},
		{"api.example.com", 1},
		{"ftp://api.example.com", 1},
		{"https://api.example.com?x=1", 1},
		{"://bad", 1},
	}

	for _, tt := range tests {
		doc := validDoc()
		doc.BaseURL = tt.baseURL
		report := Validate(doc)
		assert.Len(t, report.Errors(), tt.errors, "baseUrl %q", tt.baseURL)
	}
}

func TestValidate_TrailingSlashIsWarning(t *testing.T) {
	doc := validDoc()
	doc.BaseURL = "https://api.example.com/"

	report := Validate(doc)
	assert.False(t, report.HasErrors())
	assert.True(t, hasIssue(report.Warnings(), "ends with '/'"))
}

func TestValidate_EndpointErrors(t *testing.T) {
	doc := validDoc()
	ep := &doc.Sections[0].Endpoints[0]
	ep.Method = models.Method("TRACE")
	ep.Path = "users/{id"

	report := Validate(doc)
	errs := report.Errors()
	assert.True(t, hasIssue(errs, "method \"TRACE\""))
	assert.True(t, hasIssue(errs, "must start with '/'"))
	assert.True(t, hasIssue(errs, "unbalanced"))
}

func TestValidate_ReferentialIntegrityIsWarning(t *testing.T) {
	doc := validDoc()
	ep := &doc.Sections[0].Endpoints[0]
	ep.Path = "/users/{id}/roles/{roleId}"
	ep.RequestParams[0].Required = false

	report := Validate(doc)
	assert.False(t, report.HasErrors())

	warnings := report.Warnings()
	assert.True(t, hasIssue(warnings, "{roleId} has no matching request parameter"))
	assert.True(t, hasIssue(warnings, `path parameter "id" should be required`))
}

func TestValidate_BadExampleIsWarning(t *testing.T) {
	doc := validDoc()
	ep := &doc.Sections[0].Endpoints[0]
	ep.Method = models.MethodPost
	ep.RequestBody = &models.RequestBody{ContentType: "application/json", Example: `{"name": `}
	ep.ResponseBody.Example = "not json"

	report := Validate(doc)
	assert.False(t, report.HasErrors())
	assert.True(t, hasIssue(report.Warnings(), "requestBody example is not valid JSON"))
	assert.True(t, hasIssue(report.Warnings(), "responseBody example is not valid JSON"))
}

func TestValidate_GetWithBody(t *testing.T) {
	doc := validDoc()
	doc.Sections[0].Endpoints[0].RequestBody = &models.RequestBody{ContentType: "application/json"}

	report := Validate(doc)
	assert.True(t, hasIssue(report.Warnings(), "never sent"))
}

func TestEnforce_Modes(t *testing.T) {
	broken := validDoc()
	broken.Sections = append(broken.Sections, models.Section{Name: "Users"})

	t.Run("off", func(t *testing.T) {
		report, err := Enforce(broken, ModeOff, "test", nil)
		require.NoError(t, err)
		assert.Empty(t, report.Issues)
	})

	t.Run("warn logs and accepts", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		report, err := Enforce(broken, ModeWarn, "test", logger)
		require.NoError(t, err)
		assert.True(t, report.HasErrors())
		assert.Contains(t, buf.String(), "duplicate section name")
	})

	t.Run("strict rejects", func(t *testing.T) {
		_, err := Enforce(broken, ModeStrict, "docs.yaml", nil)
		require.Error(t, err)

		var se *Error
		require.True(t, errors.As(err, &se))
		assert.Equal(t, KindValidation, se.Kind)
		assert.Equal(t, "docs.yaml", se.Source)
		assert.Len(t, se.Issues, 1)
		assert.Contains(t, err.Error(), "duplicate section name")
	})

	t.Run("strict accepts warnings", func(t *testing.T) {
		doc := validDoc()
		doc.Sections[0].Endpoints[0].ResponseBody.Example = "{oops"
		_, err := Enforce(doc, ModeStrict, "test", nil)
		assert.NoError(t, err)
	})
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeWarn, "WARN": ModeWarn, "off": ModeOff, " strict ": ModeStrict} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("lenient")
	assert.Error(t, err)
}
