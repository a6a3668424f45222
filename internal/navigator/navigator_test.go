package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/schema"
)

func testDoc() *models.Documentation {
	return &models.Documentation{
		Title:   "Nav",
		BaseURL: "https://nav.example.com",
		Sections: []models.Section{
			{Name: "Auth", Endpoints: []models.Endpoint{
				{Path: "/auth/login", Method: models.MethodPost},
			}},
			{Name: "Users", Endpoints: []models.Endpoint{
				{Path: "/users", Method: models.MethodGet},
				{Path: "/users/{id}", Method: models.MethodGet},
				{Path: "/users/{id}", Method: models.MethodDelete},
			}},
			{Name: "Users", Description: "duplicate", Endpoints: []models.Endpoint{
				{Path: "/shadowed", Method: models.MethodGet},
			}},
		},
	}
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "Auth", New(testDoc()).Default())
	assert.Equal(t, "", New(&models.Documentation{}).Default())
	assert.Equal(t, "", New(nil).Default())
}

func TestSelect(t *testing.T) {
	nav := New(testDoc())

	s, ok := nav.Select("Users")
	require.True(t, ok)
	assert.Equal(t, "Users", s.Name)
	assert.Empty(t, s.Description, "first occurrence of a duplicate name wins")

	again, ok := nav.Select("Users")
	require.True(t, ok)
	assert.Same(t, s, again)

	def, ok := nav.Select("")
	require.True(t, ok)
	assert.Equal(t, "Auth", def.Name)
}

func TestSelect_Unknown(t *testing.T) {
	nav := New(testDoc())

	s, ok := nav.Select("Billing")
	assert.False(t, ok)
	assert.Nil(t, s)

	_, ok = New(&models.Documentation{}).Select("")
	assert.False(t, ok)
}

func TestSelect_StableAcrossBuiltinSections(t *testing.T) {
	doc, err := schema.Default()
	require.NoError(t, err)
	nav := New(doc)

	for _, name := range doc.SectionNames() {
		first, ok := nav.Select(name)
		require.True(t, ok, name)
		second, _ := nav.Select(name)
		assert.Same(t, first, second, name)
	}
}

func TestEndpoint(t *testing.T) {
	nav := New(testDoc())

	ep, ok := nav.Endpoint("Users", 2)
	require.True(t, ok)
	assert.Equal(t, "DELETE /users/{id}", ep.Key())

	_, ok = nav.Endpoint("Users", 3)
	assert.False(t, ok)
	_, ok = nav.Endpoint("Users", -1)
	assert.False(t, ok)
	_, ok = nav.Endpoint("Nope", 0)
	assert.False(t, ok)
}

func TestFindEndpoint(t *testing.T) {
	nav := New(testDoc())

	ep, loc, ok := nav.FindEndpoint(models.MethodGet, "/users/{id}")
	require.True(t, ok)
	assert.Equal(t, "/users/{id}", ep.Path)
	assert.Equal(t, Location{Section: "Users", Index: 1}, loc)

	_, _, ok = nav.FindEndpoint(models.MethodPut, "/users/{id}")
	assert.False(t, ok)
}

func TestSelection(t *testing.T) {
	nav := New(testDoc())
	sel := NewSelection(nav)

	assert.Equal(t, "Auth", sel.SectionName())
	_, ok := sel.Endpoint()
	assert.False(t, ok)

	sel.SetSection("Users")
	assert.True(t, sel.SetEndpoint(1))
	ep, ok := sel.Endpoint()
	require.True(t, ok)
	assert.Equal(t, "GET /users/{id}", ep.Key())

	assert.False(t, sel.SetEndpoint(9))
	ep, _ = sel.Endpoint()
	assert.Equal(t, "GET /users/{id}", ep.Key(), "failed SetEndpoint keeps the previous endpoint")

	sel.SetSection("Billing")
	assert.Equal(t, "Billing", sel.SectionName())
	_, ok = sel.Section()
	assert.False(t, ok)
	_, ok = sel.Endpoint()
	assert.False(t, ok)

	sel.SetSection("")
	s, ok := sel.Section()
	require.True(t, ok)
	assert.Equal(t, "Auth", s.Name)
}

func TestSelection_CurrentIsConsistent(t *testing.T) {
	sel := NewSelection(New(testDoc()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			sel.SetSection("Users")
			sel.SetEndpoint(2)
			sel.SetSection("Auth")
		}
	}()

	for {
		select {
		case <-done:
			name, index := sel.Current()
			assert.Equal(t, "Auth", name)
			assert.Equal(t, -1, index)
			return
		default:
		}
		if name, index := sel.Current(); name == "Auth" && index != -1 {
			t.Fatalf("section Auth paired with endpoint %d", index)
		}
	}
}

func TestSelectionsAreIndependent(t *testing.T) {
	nav := New(testDoc())
	a := NewSelection(nav)
	b := NewSelection(nav)

	a.SetSection("Users")
	assert.Equal(t, "Auth", b.SectionName())
}
