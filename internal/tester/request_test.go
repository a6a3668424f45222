package tester

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/schema"
)

func loginEndpoint() *models.Endpoint {
	return &models.Endpoint{
		Path:   "/auth/login",
		Method: models.MethodPost,
		RequestBody: &models.RequestBody{
			ContentType: "application/json",
			Example:     `{"username":"x","password":"y","roles":["a",1,null]}`,
		},
	}
}

func TestNewRequest_NoAuth(t *testing.T) {
	req := NewRequest("https://api.example.com", loginEndpoint())

	if req.Method != models.MethodPost {
		t.Errorf("Expected POST, got %s", req.Method)
	}
	if _, ok := req.Header("Authorization"); ok {
		t.Error("Unauthenticated endpoint must not seed an Authorization header")
	}
	if _, ok := req.EffectiveHeaders()["Authorization"]; ok {
		t.Error("Unauthenticated endpoint must not send an Authorization header")
	}
	if len(req.Warnings) != 0 {
		t.Errorf("Unexpected warnings %v", req.Warnings)
	}
}

func TestNewRequest_Auth(t *testing.T) {
	ep := &models.Endpoint{Path: "/users", Method: models.MethodGet, Authentication: true}
	req := NewRequest("https://api.example.com", ep)

	if v, _ := req.Header("authorization"); v != "Bearer YOUR_TOKEN" {
		t.Errorf("Expected placeholder token, got '%s'", v)
	}
	if req.Body != "" {
		t.Errorf("Expected empty body, got '%s'", req.Body)
	}
}

func TestNewRequest_BodyDeepEqualsExample(t *testing.T) {
	doc, err := schema.Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	endpoints := []*models.Endpoint{loginEndpoint()}
	for si := range doc.Sections {
		for ei := range doc.Sections[si].Endpoints {
			endpoints = append(endpoints, &doc.Sections[si].Endpoints[ei])
		}
	}

	for _, ep := range endpoints {
		if ep.RequestBody == nil || ep.RequestBody.Example == "" {
			continue
		}
		req := NewRequest(doc.BaseURL, ep)

		var want, got any
		if err := json.Unmarshal([]byte(ep.RequestBody.Example), &want); err != nil {
			t.Fatalf("%s: example is not JSON: %v", ep.Key(), err)
		}
		if err := json.Unmarshal([]byte(req.Body), &got); err != nil {
			t.Fatalf("%s: pre-filled body is not JSON: %v", ep.Key(), err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Errorf("%s: pre-filled body %v differs from example %v", ep.Key(), got, want)
		}
	}
}

func TestNewRequest_InvalidExample(t *testing.T) {
	ep := loginEndpoint()
	ep.RequestBody.Example = `{"username": x}`

	req := NewRequest("https://api.example.com", ep)
	if req.Body != ep.RequestBody.Example {
		t.Errorf("Expected verbatim body, got '%s'", req.Body)
	}
	if len(req.Warnings) != 1 {
		t.Errorf("Expected one warning, got %v", req.Warnings)
	}
}

func TestApplyOverrides(t *testing.T) {
	ep := &models.Endpoint{Path: "/users/{id}", Method: models.MethodGet, Authentication: true}
	req := NewRequest("https://api.example.com/v1/", ep)

	body := `{"a":1}`
	err := req.ApplyOverrides(models.TestRequest{
		Method:     models.MethodPatch,
		PathParams: map[string]string{"id": "a b/c"},
		Query:      map[string]string{"verbose": "true", "q": "x&y"},
		Headers:    map[string]string{"authorization": "", "X-Trace": "t1"},
		Body:       &body,
		Token:      "secret",
	})
	if err != nil {
		t.Fatalf("ApplyOverrides failed: %v", err)
	}

	if got := req.URL(); got != "https://api.example.com/v1/users/a%20b%2Fc?q=x%26y&verbose=true" {
		t.Errorf("Unexpected URL %s", got)
	}

	headers := req.EffectiveHeaders()
	if headers["Authorization"] != "Bearer secret" {
		t.Errorf("Expected token header, got '%s'", headers["Authorization"])
	}
	if headers["X-Trace"] != "t1" {
		t.Errorf("Expected X-Trace header, got %v", headers)
	}
	if headers["Content-Type"] != "application/json" {
		t.Errorf("Expected default content type, got '%s'", headers["Content-Type"])
	}
}

func TestApplyOverrides_InvalidMethod(t *testing.T) {
	req := NewRequest("http://localhost", loginEndpoint())
	if err := req.ApplyOverrides(models.TestRequest{Method: "TRACE"}); err == nil {
		t.Error("Expected error for unsupported method")
	}
}

func TestResolvedPath(t *testing.T) {
	ep := &models.Endpoint{Path: "/programs/{programId}/modules/{moduleId}", Method: models.MethodPut}
	req := NewRequest("http://localhost", ep)
	req.PathParams["programId"] = "p1"

	path, unresolved := req.ResolvedPath()
	if path != "/programs/p1/modules/{moduleId}" {
		t.Errorf("Unexpected path %s", path)
	}
	if len(unresolved) != 1 || unresolved[0] != "moduleId" {
		t.Errorf("Expected moduleId unresolved, got %v", unresolved)
	}
}

func TestEffectiveHeaders_TokenIgnoredWithoutAuth(t *testing.T) {
	req := NewRequest("http://localhost", loginEndpoint())
	req.Token = "secret"

	if _, ok := req.EffectiveHeaders()["Authorization"]; ok {
		t.Error("Token must not be sent to an endpoint without authentication")
	}
}

func TestEffectiveHeaders_CallerContentType(t *testing.T) {
	req := NewRequest("http://localhost", loginEndpoint())
	req.Headers["content-type"] = "application/merge-patch+json"

	headers := req.EffectiveHeaders()
	if headers["Content-Type"] != "application/merge-patch+json" {
		t.Errorf("Expected caller content type to win, got %v", headers)
	}
}
