package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// JSONKind tags the variant held by a JSONValue
type JSONKind uint8

// JSON value kinds
const (
	JSONNull JSONKind = iota
	JSONBool
	JSONNumber
	JSONString
	JSONArray
	JSONObject
)

// JSONMember is one key/value pair of an object, kept in document order
type JSONMember struct {
	Key   string
	Value JSONValue
}

// JSONValue is an open, tagged JSON value. The zero value is null.
type JSONValue struct {
	Kind    JSONKind
	Bool    bool
	Number  json.Number
	Text    string
	Items   []JSONValue
	Members []JSONMember
}

// Null returns the null value
func Null() JSONValue { return JSONValue{} }

// String builds a string value
func String(s string) JSONValue { return JSONValue{Kind: JSONString, Text: s} }

// Number builds a number value from its decimal text
func Number(n string) JSONValue { return JSONValue{Kind: JSONNumber, Number: json.Number(n)} }

// Bool builds a boolean value
func Bool(b bool) JSONValue { return JSONValue{Kind: JSONBool, Bool: b} }

// Array builds an array value
func Array(items ...JSONValue) JSONValue { return JSONValue{Kind: JSONArray, Items: items} }

// Object builds an object value
func Object(members ...JSONMember) JSONValue { return JSONValue{Kind: JSONObject, Members: members} }

// IsNull reports whether v is null
func (v JSONValue) IsNull() bool { return v.Kind == JSONNull }

// Get returns the member value for key on an object
func (v JSONValue) Get(key string) (JSONValue, bool) {
	if v.Kind != JSONObject {
		return JSONValue{}, false
	}
	for _, m := range v.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return JSONValue{}, false
}

// FromAny converts a decoded Go value (as produced by encoding/json or an
// OpenAPI loader) into a JSONValue. Map keys are sorted.
func FromAny(in any) (JSONValue, error) {
	switch val := in.(type) {
	case nil:
		return Null(), nil
	case JSONValue:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return Number(val.String()), nil
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return JSONValue{}, fmt.Errorf("unsupported number: %v", val)
		}
		return Number(strconv.FormatFloat(val, 'g', -1, 64)), nil
	case float32:
		return FromAny(float64(val))
	case int:
		return Number(strconv.Itoa(val)), nil
	case int64:
		return Number(strconv.FormatInt(val, 10)), nil
	case int32:
		return Number(strconv.FormatInt(int64(val), 10)), nil
	case uint64:
		return Number(strconv.FormatUint(val, 10)), nil
	case []any:
		items := make([]JSONValue, 0, len(val))
		for _, item := range val {
			jv, err := FromAny(item)
			if err != nil {
				return JSONValue{}, err
			}
			items = append(items, jv)
		}
		return Array(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]JSONMember, 0, len(keys))
		for _, k := range keys {
			jv, err := FromAny(val[k])
			if err != nil {
				return JSONValue{}, err
			}
			members = append(members, JSONMember{Key: k, Value: jv})
		}
		return Object(members...), nil
	default:
		// Anything else goes through its JSON encoding
		data, err := json.Marshal(val)
		if err != nil {
			return JSONValue{}, err
		}
		var jv JSONValue
		if err := jv.UnmarshalJSON(data); err != nil {
			return JSONValue{}, err
		}
		return jv, nil
	}
}

// ParseJSON decodes JSON text into a JSONValue
func ParseJSON(data []byte) (JSONValue, error) {
	var v JSONValue
	err := v.UnmarshalJSON(data)
	return v, err
}

// MarshalJSON implements json.Marshaler
func (v JSONValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v JSONValue) encode(buf *bytes.Buffer) error {
	switch v.Kind {
	case JSONNull:
		buf.WriteString("null")
	case JSONBool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case JSONNumber:
		if v.Number == "" {
			buf.WriteString("0")
			return nil
		}
		if _, err := v.Number.Float64(); err != nil {
			return fmt.Errorf("invalid number %q: %w", v.Number, err)
		}
		buf.WriteString(v.Number.String())
	case JSONString:
		data, err := json.Marshal(v.Text)
		if err != nil {
			return err
		}
		buf.Write(data)
	case JSONArray:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case JSONObject:
		buf.WriteByte('{')
		for i, m := range v.Members {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown JSON kind %d", v.Kind)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler
func (v *JSONValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	parsed, err := decodeJSONValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing data after JSON value")
	}

	*v = parsed
	return nil
}

func decodeJSONValue(dec *json.Decoder) (JSONValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return JSONValue{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t.String()), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := make([]JSONValue, 0)
			for dec.More() {
				item, err := decodeJSONValue(dec)
				if err != nil {
					return JSONValue{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return JSONValue{}, err
			}
			return Array(items...), nil
		case '{':
			members := make([]JSONMember, 0)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return JSONValue{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return JSONValue{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return JSONValue{}, err
				}
				members = append(members, JSONMember{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return JSONValue{}, err
			}
			return Object(members...), nil
		}
	}

	return JSONValue{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (v *JSONValue) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := fromYAMLNode(node)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromYAMLNode(node *yaml.Node) (JSONValue, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return fromYAMLNode(node.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return Null(), nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return JSONValue{}, err
			}
			return Bool(b), nil
		case "!!int":
			var i int64
			if err := node.Decode(&i); err != nil {
				return JSONValue{}, err
			}
			return Number(strconv.FormatInt(i, 10)), nil
		case "!!float":
			var f float64
			if err := node.Decode(&f); err != nil {
				return JSONValue{}, err
			}
			return FromAny(f)
		default:
			return String(node.Value), nil
		}
	case yaml.SequenceNode:
		items := make([]JSONValue, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := fromYAMLNode(child)
			if err != nil {
				return JSONValue{}, err
			}
			items = append(items, item)
		}
		return Array(items...), nil
	case yaml.MappingNode:
		members := make([]JSONMember, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			val, err := fromYAMLNode(node.Content[i+1])
			if err != nil {
				return JSONValue{}, err
			}
			members = append(members, JSONMember{Key: node.Content[i].Value, Value: val})
		}
		return Object(members...), nil
	}
	return JSONValue{}, fmt.Errorf("unsupported YAML node kind %d at line %d", node.Kind, node.Line)
}

// MarshalYAML implements yaml.Marshaler
func (v JSONValue) MarshalYAML() (interface{}, error) {
	return v.toYAMLNode(), nil
}

func (v JSONValue) toYAMLNode() *yaml.Node {
	switch v.Kind {
	case JSONBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool)}
	case JSONNumber:
		tag := "!!float"
		if _, err := strconv.ParseInt(v.Number.String(), 10, 64); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.Number.String()}
	case JSONString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text}
	case JSONArray:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items {
			node.Content = append(node.Content, item.toYAMLNode())
		}
		return node
	case JSONObject:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Members {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				m.Value.toYAMLNode(),
			)
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
