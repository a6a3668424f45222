package schema

import (
	"bytes"
	"encoding/json"
	"strings"
)

// PrettyExample strict-parses example text and re-indents it. When the text
// is not valid JSON the raw string is returned with ok=false; callers treat
// that as a warning and show the text uninterpreted.
func PrettyExample(example string) (string, bool) {
	trimmed := strings.TrimSpace(example)
	if trimmed == "" {
		return "", true
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return example, false
	}
	return buf.String(), true
}

// CompactExample removes insignificant whitespace from JSON example text.
// Text that is not JSON has its whitespace runs collapsed to single spaces.
func CompactExample(example string) string {
	trimmed := strings.TrimSpace(example)

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(trimmed)); err == nil {
		return buf.String()
	}
	return strings.Join(strings.Fields(trimmed), " ")
}

// ValidExample reports whether example text is empty or parseable JSON
func ValidExample(example string) bool {
	trimmed := strings.TrimSpace(example)
	return trimmed == "" || json.Valid([]byte(trimmed))
}
