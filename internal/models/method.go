package models

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is the closed set of HTTP methods an endpoint may document
type Method string

// Supported methods
const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
	MethodPatch  Method = http.MethodPatch
)

// Methods returns all supported methods
func Methods() []Method {
	return []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch}
}

// ParseMethod parses a method name case-insensitively
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unsupported method: %q", s)
	}
	return m, nil
}

// Valid reports whether m is one of the supported methods
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	}
	return false
}

// AllowsBody reports whether a request body is sent for this method
func (m Method) AllowsBody() bool {
	return m != MethodGet
}

// String returns the method name
func (m Method) String() string {
	return string(m)
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON and YAML decoding
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
