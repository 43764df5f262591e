package schema

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/ziadkadry99/livedoc/internal/patch"
)

// View selects how a document is rendered.
type View int

const (
	// ViewAudit is the human-facing rendering with every metadata key removed.
	ViewAudit View = iota
	// ViewGenerator interleaves extraction guidance with the data fields.
	ViewGenerator
)

// ParseView maps "generator" to ViewGenerator and anything else to ViewAudit.
func ParseView(s string) View {
	if s == "generator" {
		return ViewGenerator
	}
	return ViewAudit
}

type member struct {
	key   string
	value any
}

// object is a JSON object that keeps its member order when encoded.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := encode(m.key)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		val, err := encode(m.value)
		if err != nil {
			return nil, err
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func encode(v any) ([]byte, error) {
	if o, ok := v.(object); ok {
		return o.MarshalJSON()
	}
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}

// Render encodes doc as indented JSON with fields in schema order. Keys the
// schema does not know follow in sorted order.
func Render(doc patch.Document, view View) string {
	data, err := orderedDocument(doc, view).MarshalJSON()
	if err != nil {
		return "{}"
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return string(data)
	}
	return out.String()
}

func orderedDocument(doc patch.Document, view View) object {
	var obj object
	seen := make(map[string]bool)

	for _, f := range Fields {
		val, ok := doc[f.Name]
		if view == ViewGenerator && f.Guidance != "" {
			obj = append(obj, member{GuidanceKey(f.Name), f.Guidance})
			seen[GuidanceKey(f.Name)] = true
		}
		if !ok {
			continue
		}
		seen[f.Name] = true
		if nested, isMap := val.(map[string]any); isMap && f.Kind == KindObject {
			obj = append(obj, member{f.Name, orderedNested(f, nested, view)})
			continue
		}
		obj = append(obj, member{f.Name, val})
	}

	return append(obj, remaining(doc, seen, view)...)
}

func orderedNested(f Field, nested map[string]any, view View) object {
	var obj object
	seen := make(map[string]bool)

	if view == ViewGenerator {
		var guidance object
		for _, sub := range f.Fields {
			if sub.Guidance != "" {
				guidance = append(guidance, member{sub.Name, sub.Guidance})
			}
		}
		if len(guidance) > 0 {
			obj = append(obj, member{scopeGuidanceKey, guidance})
			seen[scopeGuidanceKey] = true
		}
	}

	for _, sub := range f.Fields {
		if val, ok := nested[sub.Name]; ok {
			obj = append(obj, member{sub.Name, val})
			seen[sub.Name] = true
		}
	}

	return append(obj, remaining(nested, seen, view)...)
}

func remaining(m map[string]any, seen map[string]bool, view View) object {
	var keys []string
	for k := range m {
		if seen[k] {
			continue
		}
		if view == ViewAudit && IsMetadataKey(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(object, 0, len(keys))
	for _, k := range keys {
		out = append(out, member{k, m[k]})
	}
	return out
}
