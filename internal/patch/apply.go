package patch

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Validate dry-runs p against an isolated copy of doc. It reports false with
// a message beginning "Invalid patch" when doc is not a mapping or when any
// operation cannot be resolved. doc is never modified.
func Validate(p Patch, doc any) (bool, string) {
	if err := Check(p, doc); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Check is Validate with a typed *ValidationError result.
func Check(p Patch, doc any) error {
	d, ok := asDocument(doc)
	if !ok {
		return &ValidationError{Msg: fmt.Sprintf("document must be a mapping, got %T", doc)}
	}
	if _, err := applyPatch(p, d); err != nil {
		return &ValidationError{Msg: err.msg, Err: err.cause}
	}
	return nil
}

// Apply applies p to a deep copy of doc and returns the copy. doc itself is
// never modified. Any operation that cannot be resolved aborts the whole
// patch with an *ApplyError.
func Apply(p Patch, doc Document) (Document, error) {
	out, err := applyPatch(p, doc)
	if err != nil {
		return nil, &ApplyError{Msg: err.msg, Err: err.cause}
	}
	return out, nil
}

type opFailure struct {
	msg   string
	cause error
}

func applyPatch(p Patch, doc Document) (Document, *opFailure) {
	if doc == nil {
		doc = Document{}
	}

	for i, op := range p {
		if key, ok := metadataSegment(op.Path); ok {
			return nil, &opFailure{msg: fmt.Sprintf("operation %d (%s %s) targets metadata field %q", i, op.Op, op.Path, key)}
		}
	}

	current, err := json.Marshal(doc)
	if err != nil {
		return nil, &opFailure{msg: "encoding document", cause: err}
	}

	opts := jsonpatch.NewApplyOptions()
	opts.SupportNegativeIndices = false

	// Operations are applied one at a time so a failure names its index.
	for i, op := range p {
		encoded, err := json.Marshal(Patch{op})
		if err != nil {
			return nil, &opFailure{msg: fmt.Sprintf("encoding operation %d", i), cause: err}
		}
		single, err := jsonpatch.DecodePatch(encoded)
		if err != nil {
			return nil, &opFailure{msg: fmt.Sprintf("operation %d (%s %s)", i, op.Op, op.Path), cause: err}
		}
		current, err = single.ApplyWithOptions(current, opts)
		if err != nil {
			return nil, &opFailure{msg: fmt.Sprintf("operation %d (%s %s)", i, op.Op, op.Path), cause: err}
		}
	}

	var out Document
	if err := json.Unmarshal(current, &out); err != nil {
		return nil, &opFailure{msg: "patch result is not an object", cause: err}
	}
	return out, nil
}

func asDocument(doc any) (Document, bool) {
	switch d := doc.(type) {
	case Document:
		return d, true
	case map[string]any:
		return Document(d), true
	default:
		return nil, false
	}
}

// MetadataPrefix marks document keys that carry guidance rather than data.
const MetadataPrefix = "_"

// IsMetadataKey reports whether key names a metadata field.
func IsMetadataKey(key string) bool {
	return strings.HasPrefix(key, MetadataPrefix)
}

// metadataSegment returns the first pointer segment naming a metadata key.
func metadataSegment(pointer string) (string, bool) {
	for _, seg := range pointerSegments(pointer) {
		if IsMetadataKey(seg) {
			return seg, true
		}
	}
	return "", false
}
