package curl

import (
	"strings"
	"testing"

	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/schema"
)

func TestGenerate_Login(t *testing.T) {
	ep := &models.Endpoint{
		Path:           "/auth/login",
		Method:         models.MethodPost,
		Authentication: false,
		RequestBody: &models.RequestBody{
			ContentType: "application/json",
			Example:     "{\n  \"username\": \"x\",\n  \"password\": \"y\"\n}",
		},
	}

	got := Generate(ep, "https://api.example.com")
	want := "curl -X POST \"https://api.example.com/auth/login\" \\\n" +
		"  -H \"Content-Type: application/json\" \\\n" +
		"  -d '{\"username\":\"x\",\"password\":\"y\"}'"
	if got != want {
		t.Errorf("Generate =\n%s\nwant\n%s", got, want)
	}
	if strings.Contains(got, "Authorization") {
		t.Error("Unauthenticated endpoint must not carry an Authorization header")
	}
}

func TestGenerate_AuthenticatedGet(t *testing.T) {
	ep := &models.Endpoint{Path: "/users", Method: models.MethodGet, Authentication: true}

	got := Generate(ep, "https://api.example.com")
	if !strings.Contains(got, `-H "Authorization: Bearer YOUR_TOKEN"`) {
		t.Errorf("Expected placeholder bearer header, got %s", got)
	}
	if strings.Contains(got, "-d") {
		t.Errorf("Expected no body flag, got %s", got)
	}
	if !strings.HasPrefix(got, `curl -X GET "https://api.example.com/users"`) {
		t.Errorf("Unexpected request line: %s", got)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	doc, err := schema.Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	for _, s := range doc.Sections {
		for i := range s.Endpoints {
			ep := &s.Endpoints[i]
			first := Generate(ep, doc.BaseURL)
			second := Generate(ep, doc.BaseURL)
			if first != second {
				t.Errorf("%s: output differs between calls", ep.Key())
			}
			if !ep.Authentication && strings.Contains(first, "Authorization") {
				t.Errorf("%s: unexpected Authorization header", ep.Key())
			}
		}
	}
}

func TestGenerate_Escaping(t *testing.T) {
	ep := &models.Endpoint{
		Path:   "/notes",
		Method: models.MethodPut,
		RequestBody: &models.RequestBody{
			Example: `{"text": "it's   fine"}`,
		},
	}

	got := Generate(ep, "https://api.example.com")
	if !strings.Contains(got, `-H "Content-Type: application/json"`) {
		t.Errorf("Expected default content type, got %s", got)
	}
	if !strings.Contains(got, `-d '{"text":"it'\''s   fine"}'`) {
		t.Errorf("Expected escaped single quote, got %s", got)
	}
}

func TestGenerate_NonJSONBody(t *testing.T) {
	ep := &models.Endpoint{
		Path:        "/raw",
		Method:      models.MethodPost,
		RequestBody: &models.RequestBody{ContentType: "text/plain", Example: "hello\n\n  world"},
	}

	got := Generate(ep, "http://localhost")
	if !strings.HasSuffix(got, `-d 'hello world'`) {
		t.Errorf("Expected collapsed whitespace, got %s", got)
	}
}

func TestFromRequest(t *testing.T) {
	headers := map[string]string{
		"X-Trace":       `a"b`,
		"Authorization": "Bearer abc",
		"Content-Type":  "application/json",
	}

	got := FromRequest(models.MethodPatch, "https://api.example.com/users/u1?x=$y", headers, "{\n \"a\": 1\n}")
	want := "curl -X PATCH \"https://api.example.com/users/u1?x=\\$y\" \\\n" +
		"  -H \"Authorization: Bearer abc\" \\\n" +
		"  -H \"Content-Type: application/json\" \\\n" +
		"  -H \"X-Trace: a\\\"b\" \\\n" +
		"  -d '{\"a\":1}'"
	if got != want {
		t.Errorf("FromRequest =\n%s\nwant\n%s", got, want)
	}
}

func TestFromRequest_NoBody(t *testing.T) {
	got := FromRequest(models.MethodGet, "http://localhost/x", nil, "")
	if got != `curl -X GET "http://localhost/x"` {
		t.Errorf("Unexpected output %s", got)
	}
}
