package models

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input    string
		expected Method
		wantErr  bool
	}{
		{"GET", MethodGet, false},
		{"post", MethodPost, false},
		{" Put ", MethodPut, false},
		{"delete", MethodDelete, false},
		{"PATCH", MethodPatch, false},
		{"HEAD", "", true},
		{"OPTIONS", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseMethod(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if m != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, m)
			}
		})
	}
}

func TestMethod_AllowsBody(t *testing.T) {
	if MethodGet.AllowsBody() {
		t.Error("GET should not carry a body")
	}
	for _, m := range []Method{MethodPost, MethodPut, MethodPatch, MethodDelete} {
		if !m.AllowsBody() {
			t.Errorf("%s should carry a body", m)
		}
	}
}

func TestMethod_Unmarshal(t *testing.T) {
	var ep Endpoint
	if err := json.Unmarshal([]byte(`{"path":"/users","method":"get"}`), &ep); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ep.Method != MethodGet {
		t.Errorf("Expected GET, got %q", ep.Method)
	}

	if err := json.Unmarshal([]byte(`{"path":"/users","method":"TRACE"}`), &ep); err == nil {
		t.Error("Expected error for method outside the enumeration")
	}

	var fromYAML Endpoint
	if err := yaml.Unmarshal([]byte("path: /users\nmethod: patch\n"), &fromYAML); err != nil {
		t.Fatalf("Unexpected YAML error: %v", err)
	}
	if fromYAML.Method != MethodPatch {
		t.Errorf("Expected PATCH, got %q", fromYAML.Method)
	}
}

func TestEndpoint_PathParamNames(t *testing.T) {
	ep := Endpoint{Path: "/programs/{programId}/modules/{moduleId}"}

	names := ep.PathParamNames()
	if len(names) != 2 || names[0] != "programId" || names[1] != "moduleId" {
		t.Errorf("Unexpected path params: %v", names)
	}
	if !ep.IsPathParam("moduleId") {
		t.Error("Expected moduleId to be a path param")
	}
	if ep.IsPathParam("status") {
		t.Error("Did not expect status to be a path param")
	}

	plain := Endpoint{Path: "/users"}
	if len(plain.PathParamNames()) != 0 {
		t.Errorf("Expected no path params, got %v", plain.PathParamNames())
	}
}

func TestEndpoint_KeyAndErrors(t *testing.T) {
	ep := Endpoint{
		Path:   "/applications/{id}",
		Method: MethodGet,
		ErrorResponses: []ErrorResponse{
			{Status: 404, Code: "APPLICATION_NOT_FOUND"},
			{Status: 401, Code: "UNAUTHORIZED"},
			{Status: 404, Code: "PROGRAM_NOT_FOUND"},
		},
	}

	if ep.Key() != "GET /applications/{id}" {
		t.Errorf("Unexpected key %q", ep.Key())
	}

	notFound := ep.ErrorsForStatus(404)
	if len(notFound) != 2 {
		t.Fatalf("Expected 2 documented 404s, got %d", len(notFound))
	}
	if notFound[0].Code != "APPLICATION_NOT_FOUND" {
		t.Errorf("Expected document order, got %q first", notFound[0].Code)
	}
	if len(ep.ErrorsForStatus(500)) != 0 {
		t.Error("Expected no documented 500s")
	}
}

func TestStoredDoc_Summary(t *testing.T) {
	doc := &StoredDoc{
		ID:     "doc-1",
		Name:   "platform",
		Source: SourceBuiltin,
		Documentation: &Documentation{
			Title:   "Platform API",
			Version: "1.0.0",
			BaseURL: "https://api.example.com",
			Sections: []Section{
				{Name: "Auth", Endpoints: []Endpoint{{Path: "/auth/login"}, {Path: "/auth/logout"}}},
				{Name: "Users", Endpoints: []Endpoint{{Path: "/users"}}},
			},
		},
	}

	s := doc.Summary()
	if s.SectionCount != 2 {
		t.Errorf("Expected 2 sections, got %d", s.SectionCount)
	}
	if s.EndpointCount != 3 {
		t.Errorf("Expected 3 endpoints, got %d", s.EndpointCount)
	}
	if s.Title != "Platform API" || s.BaseURL != "https://api.example.com" {
		t.Errorf("Unexpected summary: %+v", s)
	}
}
