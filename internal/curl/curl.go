// Package curl renders documented and executed requests as curl commands
package curl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prasenjit/go-apidocs/internal/models"
	"github.com/prasenjit/go-apidocs/internal/schema"
)

// PlaceholderToken is shown in place of a real bearer token
const PlaceholderToken = "YOUR_TOKEN"

const continuation = " \\\n  "

// Generate renders the documented example invocation of ep. The output
// depends only on its arguments.
func Generate(ep *models.Endpoint, baseURL string) string {
	lines := []string{fmt.Sprintf("curl -X %s %s", ep.Method, doubleQuote(baseURL+ep.Path))}

	if ep.Authentication {
		lines = append(lines, "-H "+doubleQuote("Authorization: Bearer "+PlaceholderToken))
	}

	if ep.RequestBody != nil {
		contentType := ep.RequestBody.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		lines = append(lines, "-H "+doubleQuote("Content-Type: "+contentType))
		lines = append(lines, "-d "+singleQuote(schema.CompactExample(ep.RequestBody.Example)))
	}

	return strings.Join(lines, continuation)
}

// FromRequest renders a concrete request. Headers are emitted in sorted
// order; an empty body omits the -d flag.
func FromRequest(method models.Method, url string, headers map[string]string, body string) string {
	lines := []string{fmt.Sprintf("curl -X %s %s", method, doubleQuote(url))}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, "-H "+doubleQuote(name+": "+headers[name]))
	}

	if body != "" {
		lines = append(lines, "-d "+singleQuote(schema.CompactExample(body)))
	}

	return strings.Join(lines, continuation)
}

var doubleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

func doubleQuote(s string) string {
	return `"` + doubleQuoteEscaper.Replace(s) + `"`
}

func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
