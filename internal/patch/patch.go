// Package patch decodes, validates and applies RFC 6902 JSON Patch documents
// produced by the document generator.
package patch

import (
	"encoding/json"
	"strings"
)

// Op is a JSON Patch operation kind.
type Op string

const (
	OpAdd     Op = "add"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
	OpTest    Op = "test"
)

// supported reports whether the generator may emit this operation kind.
func (o Op) supported() bool {
	switch o {
	case OpAdd, OpReplace, OpRemove, OpTest:
		return true
	}
	return false
}

// AppendMarker is the trailing path segment that addresses the end of an array.
const AppendMarker = "-"

// requiresValue reports whether operations of this kind must carry a value.
// Only remove and test may omit it.
func (o Op) requiresValue() bool {
	return o != OpRemove && o != OpTest
}

// Operation is a single JSON Patch operation. Value holds the raw JSON of the
// operation's value and is omitted from the wire form when empty.
type Operation struct {
	Op    Op              `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// HasValue reports whether the operation carries a value.
func (o Operation) HasValue() bool {
	return len(o.Value) > 0
}

// ValueInterface decodes the operation's value.
func (o Operation) ValueInterface() (any, error) {
	if !o.HasValue() {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(o.Value, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Patch is an ordered list of operations, applied left to right.
type Patch []Operation

// Paths returns the path of every operation in order.
func (p Patch) Paths() []string {
	paths := make([]string, len(p))
	for i, op := range p {
		paths[i] = op.Path
	}
	return paths
}

// String returns the compact JSON wire form of the patch.
func (p Patch) String() string {
	if p == nil {
		p = Patch{}
	}
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "[]"
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Add builds an add operation. Values that cannot be encoded become null.
func Add(path string, value any) Operation {
	return Operation{Op: OpAdd, Path: path, Value: rawValue(value)}
}

// Replace builds a replace operation. Values that cannot be encoded become null.
func Replace(path string, value any) Operation {
	return Operation{Op: OpReplace, Path: path, Value: rawValue(value)}
}

// Remove builds a remove operation.
func Remove(path string) Operation {
	return Operation{Op: OpRemove, Path: path}
}

func rawValue(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

// Document is a decoded JSON object.
type Document map[string]any

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

// JSON renders the document as indented JSON.
func (d Document) JSON() string {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Document:
		return cloneValue(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

// pointerSegments splits an RFC 6901 JSON Pointer into unescaped segments.
func pointerSegments(pointer string) []string {
	if pointer == "" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		parts[i] = strings.ReplaceAll(part, "~0", "~")
	}
	return parts
}
