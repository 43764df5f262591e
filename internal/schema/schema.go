// Package schema defines the shape of the process document, its empty seed
// value and the per-field extraction guidance shown to the generator.
package schema

import "github.com/ziadkadry99/livedoc/internal/patch"

// Kind describes the JSON shape of a field.
type Kind string

const (
	KindString     Kind = "string"
	KindStringList Kind = "array of strings"
	KindObject     Kind = "object"
	KindRecordList Kind = "array of objects"
)

// Field is one entry of the document schema.
type Field struct {
	Name     string
	Kind     Kind
	Summary  string
	Guidance string
	// Fields lists nested object members or record members.
	Fields []Field
}

// Scope has its guidance grouped under a single metadata key rather than one
// key per field.
const scopeGuidanceKey = "_instructions"

// Fields is the process document schema in rendering order.
var Fields = []Field{
	{
		Name:     "process_name",
		Kind:     KindString,
		Summary:  `Short, descriptive name for the process (e.g., "New Customer Onboarding")`,
		Guidance: "Short, descriptive name for the process (e.g., 'New Customer Onboarding')",
	},
	{
		Name:     "process_goal",
		Kind:     KindString,
		Summary:  "What this process aims to achieve - the primary objective",
		Guidance: "What this process aims to achieve - the primary objective",
	},
	{
		Name:    "scope",
		Kind:    KindObject,
		Summary: "Boundaries of the process",
		Fields: []Field{
			{Name: "start_trigger", Kind: KindString, Summary: "What event or condition initiates this process", Guidance: "What event or condition initiates this process"},
			{Name: "end_condition", Kind: KindString, Summary: "What condition marks the completion of this process", Guidance: "What condition marks the completion of this process"},
			{Name: "in_scope", Kind: KindStringList, Summary: "What is included in this process", Guidance: "What is included in this process"},
			{Name: "out_of_scope", Kind: KindStringList, Summary: "What is explicitly excluded from this process", Guidance: "What is explicitly excluded from this process"},
		},
	},
	{
		Name:     "actors",
		Kind:     KindStringList,
		Summary:  `People, roles, or personas involved (e.g., "Sales rep", "Customer Success", "Customer")`,
		Guidance: "Extract all people, roles, or personas mentioned in utterances (e.g., 'Sales rep', 'CSM', 'Customer')",
	},
	{
		Name:     "systems",
		Kind:     KindStringList,
		Summary:  `Tools, platforms, or systems used (e.g., "Salesforce", "Slack", "Gmail")`,
		Guidance: "Extract all tools, platforms, or systems mentioned in utterances (e.g., 'HubSpot', 'Slack', 'Gmail')",
	},
	{
		Name:     "main_flow",
		Kind:     KindRecordList,
		Summary:  "Sequential steps in the process",
		Guidance: "Array of step objects. Each step should have: id (e.g., 'S1', 'S2'), description (what happens), actor (who performs it), system (what tool/platform is used). Extract sequential steps from utterances.",
		Fields: []Field{
			{Name: "id", Kind: KindString, Summary: `Step identifier (e.g., "S1", "S2", "S3")`},
			{Name: "description", Kind: KindString, Summary: "What happens in this step"},
			{Name: "actor", Kind: KindString, Summary: "Who performs this step"},
			{Name: "system", Kind: KindString, Summary: "What tool/platform is used (optional)"},
		},
	},
	{
		Name:     "exceptions",
		Kind:     KindRecordList,
		Summary:  "Error cases, alternative paths, or conditional logic",
		Guidance: "Array of exception objects with condition and action fields. Extract error cases, alternative paths, or conditional logic from utterances.",
		Fields: []Field{
			{Name: "condition", Kind: KindString, Summary: "When this exception occurs"},
			{Name: "action", Kind: KindString, Summary: "What to do when this exception happens"},
		},
	},
	{
		Name:     "metrics",
		Kind:     KindRecordList,
		Summary:  "KPIs, measurements, or success criteria",
		Guidance: "Array of metric objects with name and description. Extract any KPIs, measurements, or success criteria mentioned.",
		Fields: []Field{
			{Name: "name", Kind: KindString, Summary: "Name of the metric"},
			{Name: "description", Kind: KindString, Summary: "What this metric measures"},
		},
	},
	{
		Name:     "open_questions",
		Kind:     KindStringList,
		Summary:  "Uncertainties, ambiguities, or questions that need clarification",
		Guidance: "Array of strings. Capture any uncertainties, ambiguities, or questions raised in the utterances.",
	},
}

// Lookup returns the top-level field with the given name.
func Lookup(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// GuidanceKey returns the metadata key that carries a top-level field's
// extraction guidance.
func GuidanceKey(field string) string {
	return patch.MetadataPrefix + field + "_instructions"
}

// IsMetadataKey reports whether key names a metadata field.
func IsMetadataKey(key string) bool {
	return patch.IsMetadataKey(key)
}

// EmptyDocument returns the seed document for a new session: every scalar
// is "", every list is empty and scope is present with its own members.
func EmptyDocument() patch.Document {
	return patch.Document(zeroObject(Fields))
}

func zeroObject(fields []Field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name] = zeroValue(f)
	}
	return out
}

func zeroValue(f Field) any {
	switch f.Kind {
	case KindString:
		return ""
	case KindObject:
		return zeroObject(f.Fields)
	default:
		return []any{}
	}
}

// StripMetadata returns a deep copy of doc without metadata keys at the top
// level or inside scope.
func StripMetadata(doc patch.Document) patch.Document {
	out := make(patch.Document, len(doc))
	for k, v := range doc.Clone() {
		if IsMetadataKey(k) {
			continue
		}
		if nested, ok := v.(map[string]any); ok && k == "scope" {
			clean := make(map[string]any, len(nested))
			for nk, nv := range nested {
				if !IsMetadataKey(nk) {
					clean[nk] = nv
				}
			}
			v = clean
		}
		out[k] = v
	}
	return out
}
