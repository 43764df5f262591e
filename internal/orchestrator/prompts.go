package orchestrator

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/livedoc/internal/patch"
	"github.com/ziadkadry99/livedoc/internal/schema"
)

const systemPrompt = `You are a process documentation assistant. Extract structured information from transcribed speech and generate JSON Patch operations (RFC 6902) to update the process document.

**Document Schema:**

%s
Fields starting with "_" are guidance for you. They are not part of the document and must never be patched.

**JSON Patch Operations (RFC 6902):**

- **Add to array**: {"op": "add", "path": "/actors/-", "value": "New Actor"}
- **Add to nested array**: {"op": "add", "path": "/main_flow/-", "value": {"id": "S1", "description": "...", "actor": "...", "system": "..."}}
- **Replace field**: {"op": "replace", "path": "/process_name", "value": "New Name"}
- **Replace nested field**: {"op": "replace", "path": "/scope/start_trigger", "value": "New trigger"}
- **Replace array item**: {"op": "replace", "path": "/main_flow/0/description", "value": "Updated description"}
- **Remove from array**: {"op": "remove", "path": "/actors/2"}

**Instructions:**

1. **Extract information** from the transcription window:
   - Identify the process name and goal if mentioned
   - Identify scope (what starts it, when it ends, what is included or excluded)
   - Identify actors, systems and process steps in sequence
   - Identify exceptions, metrics and open questions

2. **Detect corrections and replacements**:
   - Listen for phrases like "actually", "change that to", "I meant", "delete", "remove"
   - When a correction is detected, use "replace" or "remove" operations
   - Example: "The process starts when... actually, change that, it starts when..." becomes a replace operation

3. **Generate minimal patch operations**:
   - Only include operations for NEW or CHANGED information
   - Do not repeat operations for information already in the document or in the recent patches
   - Use "add" for new items, "replace" for corrections, "remove" for deletions
   - For arrays, use path "/array/-" to append new items
   - Array indexes must exist in the current document

4. **Return format**:
   - Return ONLY a valid JSON array of patch operations
   - Do NOT include explanatory text before or after the JSON
   - Each operation must have "op" and "path", and "value" unless the op is "remove"
   - Return [] when nothing new was said

**Example Response:**

[
  {"op": "replace", "path": "/process_name", "value": "Customer Onboarding"},
  {"op": "add", "path": "/actors/-", "value": "Sales Team"},
  {"op": "add", "path": "/main_flow/-", "value": {"id": "S1", "description": "Receive new lead", "actor": "Sales Team", "system": "Salesforce"}},
  {"op": "replace", "path": "/scope/start_trigger", "value": "Sales receives a lead"}
]
`

// SystemPrompt returns the fixed instructions sent with every cycle.
func SystemPrompt() string {
	return fmt.Sprintf(systemPrompt, describeFields(schema.Fields, 0))
}

func describeFields(fields []schema.Field, depth int) string {
	var b strings.Builder
	indent := strings.Repeat("  ", depth)
	for _, f := range fields {
		fmt.Fprintf(&b, "%s- **%s** (%s): %s\n", indent, f.Name, f.Kind, f.Summary)
		if len(f.Fields) > 0 {
			b.WriteString(describeFields(f.Fields, depth+1))
		}
		if depth == 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// BuildUserPrompt renders the per-cycle user turn: the document in the
// generator view, the transcript window and, when present, the recent
// patches the generator must not repeat.
func BuildUserPrompt(window string, doc patch.Document, history []patch.Patch) string {
	var b strings.Builder

	b.WriteString("Current document:\n")
	b.WriteString(schema.Render(doc, schema.ViewGenerator))
	b.WriteString("\n\n")

	b.WriteString("Recent transcription:\n")
	b.WriteString(strings.TrimSpace(window))
	b.WriteString("\n\n")

	if len(history) > 0 {
		b.WriteString("Recently applied patches (already in the document, do not repeat them):\n")
		for _, p := range history {
			b.WriteString(p.String())
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Based on the transcription, generate JSON Patch operations to update the document. " +
		"Extract any new information about the process name, goal, scope, actors, systems, steps, exceptions, metrics, or questions. " +
		"If you detect corrections (e.g., \"actually, change that to...\"), use replace or remove operations. " +
		"Return ONLY the JSON array of patch operations, no other text.")

	return b.String()
}
