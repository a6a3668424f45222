package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-apidocs/internal/models"
)

// Supported document formats
const (
	FormatAuto    = ""
	FormatYAML    = "yaml"
	FormatJSON    = "json"
	FormatOpenAPI = "openapi"
)

//go:embed defaults/platform.yaml
var builtinDoc []byte

var (
	defaultOnce sync.Once
	defaultDoc  *models.Documentation
	defaultErr  error
)

// Default returns the built-in platform documentation. It is parsed once and
// the same read-only instance is returned on every call.
func Default() (*models.Documentation, error) {
	defaultOnce.Do(func() {
		defaultDoc, defaultErr = Parse(builtinDoc, FormatYAML)
		if defaultErr != nil {
			defaultErr = &Error{Kind: KindParse, Source: models.SourceBuiltin, Message: "malformed built-in documentation", Cause: defaultErr}
		}
	})
	return defaultDoc, defaultErr
}

// DefaultSource returns the YAML text of the built-in documentation
func DefaultSource() []byte {
	return bytes.Clone(builtinDoc)
}

// LoadFile reads a documentation file. The format is taken from the argument,
// or detected from the extension and content when empty.
func LoadFile(path, format string) (*models.Documentation, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &Error{Kind: KindIO, Source: path, Message: "failed to read documentation", Cause: err}
	}

	if format == FormatAuto {
		format = DetectFormat(filepath.Ext(path), data)
	}

	doc, err := Parse(data, format)
	if err != nil {
		if se, ok := err.(*Error); ok {
			se.Source = path
			return nil, "", se
		}
		return nil, "", err
	}

	source := models.SourceFile
	if format == FormatOpenAPI {
		source = models.SourceOpenAPI
	}
	return doc, source, nil
}

// Parse decodes documentation content in the given format
func Parse(data []byte, format string) (*models.Documentation, error) {
	if format == FormatAuto {
		format = DetectFormat("", data)
	}

	switch format {
	case FormatOpenAPI:
		return ImportOpenAPI(data, ImportOptions{})
	case FormatJSON:
		var doc models.Documentation
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, &Error{Kind: KindParse, Message: "invalid JSON documentation", Cause: err}
		}
		return &doc, nil
	case FormatYAML:
		var doc models.Documentation
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, &Error{Kind: KindParse, Message: "invalid YAML documentation", Cause: err}
		}
		return &doc, nil
	default:
		return nil, &Error{Kind: KindParse, Message: fmt.Sprintf("unsupported format %q", format)}
	}
}

// DetectFormat guesses the format from a file extension and the content.
// OpenAPI documents are recognized by their top-level "openapi" key.
func DetectFormat(ext string, data []byte) string {
	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err == nil {
		if _, ok := probe["openapi"]; ok {
			return FormatOpenAPI
		}
	}

	switch strings.ToLower(ext) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}
