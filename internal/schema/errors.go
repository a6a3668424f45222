package schema

import (
	"fmt"
	"strings"
)

// ErrorKind categorizes schema errors
type ErrorKind string

const (
	KindIO         ErrorKind = "io"
	KindParse      ErrorKind = "parse"
	KindImport     ErrorKind = "import"
	KindValidation ErrorKind = "validation"
)

// Error is a structured schema loading error
type Error struct {
	Kind    ErrorKind
	Source  string // file path, or "builtin"/"upload"
	Message string
	Issues  []Issue // Set for validation errors
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Source != "" {
		fmt.Fprintf(&b, "%s: ", e.Source)
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	for _, issue := range e.Issues {
		fmt.Fprintf(&b, "\n  - %s", issue)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }
