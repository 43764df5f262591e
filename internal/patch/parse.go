package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// fencedArray matches a markdown code block, with or without a language tag,
// whose body is a JSON array.
var fencedArray = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*\\s*(\\[.*?\\])\\s*```")

// Parse decodes free-form generator output into a Patch.
//
// The JSON is taken from the first fenced code block holding an array, else
// from the first bracketed span in the text, else from the whole trimmed
// text. Blank input is an empty patch: the generator proposed no change.
func Parse(raw string) (Patch, error) {
	if strings.TrimSpace(raw) == "" {
		return Patch{}, nil
	}

	data := []byte(extractJSON(raw))
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, &ParseError{Raw: raw, Msg: "response is not valid JSON", Err: err}
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ParseError{Raw: raw, Msg: "parsed JSON is not an array"}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, &ParseError{Raw: raw, Msg: "parsed JSON is not an array", Err: err}
	}

	p := make(Patch, 0, len(elems))
	for i, elem := range elems {
		op, err := decodeOperation(elem)
		if err != nil {
			return nil, &ParseError{Raw: raw, Msg: fmt.Sprintf("operation %d %s", i, err.Error())}
		}
		p = append(p, op)
	}
	return p, nil
}

func extractJSON(raw string) string {
	if m := fencedArray.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if span, ok := firstArray(raw); ok {
		return span
	}
	return strings.TrimSpace(raw)
}

// firstArray returns the bracketed span starting at the first '[' in s,
// matching nested brackets and skipping brackets inside JSON strings. An
// unterminated span runs to the end of s.
func firstArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return s[start:], true
}

func decodeOperation(elem json.RawMessage) (Operation, error) {
	if trimmed := bytes.TrimSpace(elem); len(trimmed) == 0 || trimmed[0] != '{' {
		return Operation{}, fmt.Errorf("is not an object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return Operation{}, fmt.Errorf("is not an object: %v", err)
	}

	rawOp, ok := fields["op"]
	if !ok {
		return Operation{}, fmt.Errorf("missing 'op' field")
	}
	var kind string
	if err := json.Unmarshal(rawOp, &kind); err != nil {
		return Operation{}, fmt.Errorf("has a non-string 'op' field")
	}

	rawPath, ok := fields["path"]
	if !ok {
		return Operation{}, fmt.Errorf("missing 'path' field")
	}
	var path string
	if err := json.Unmarshal(rawPath, &path); err != nil {
		return Operation{}, fmt.Errorf("has a non-string 'path' field")
	}

	op := Operation{Op: Op(kind), Path: path}
	if !op.Op.supported() {
		return Operation{}, fmt.Errorf("has unsupported op '%s'", kind)
	}

	value, hasValue := fields["value"]
	if hasValue {
		var compact bytes.Buffer
		if len(value) == 0 || json.Compact(&compact, value) != nil {
			compact.Reset()
			compact.WriteString("null")
		}
		op.Value = json.RawMessage(compact.Bytes())
	} else if op.Op.requiresValue() {
		return Operation{}, fmt.Errorf("with op '%s' missing 'value' field", kind)
	}
	return op, nil
}
