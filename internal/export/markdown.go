// Package export renders a process document for people: Markdown and a
// standalone HTML page.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ziadkadry99/livedoc/internal/patch"
	"github.com/ziadkadry99/livedoc/internal/schema"
)

// untitled heads a document whose process_name is still empty.
const untitled = "Untitled process"

// Markdown renders doc as a Markdown report in schema order. Metadata keys
// are never shown; empty sections are omitted.
func Markdown(doc patch.Document) string {
	doc = schema.StripMetadata(doc)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", inline(Title(doc)))

	for _, f := range schema.Fields {
		if f.Name == "process_name" {
			continue
		}
		writeField(&b, f, doc[f.Name], 2)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Title returns the document's process name, or a placeholder.
func Title(doc patch.Document) string {
	if name, ok := doc["process_name"].(string); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return untitled
}

func writeField(b *strings.Builder, f schema.Field, v any, level int) {
	heading := strings.Repeat("#", level) + " " + label(f.Name)

	switch f.Kind {
	case schema.KindString:
		s, _ := v.(string)
		if strings.TrimSpace(s) == "" {
			return
		}
		fmt.Fprintf(b, "%s\n\n%s\n\n", heading, inline(s))

	case schema.KindStringList:
		items := stringItems(v)
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(b, "%s\n\n", heading)
		for _, item := range items {
			fmt.Fprintf(b, "- %s\n", inline(item))
		}
		b.WriteString("\n")

	case schema.KindObject:
		nested, _ := v.(map[string]any)
		if isBlank(nested) {
			return
		}
		fmt.Fprintf(b, "%s\n\n", heading)
		for _, sub := range f.Fields {
			writeField(b, sub, nested[sub.Name], level+1)
		}

	case schema.KindRecordList:
		records, _ := v.([]any)
		if len(records) == 0 {
			return
		}
		fmt.Fprintf(b, "%s\n\n", heading)
		writeTable(b, f.Fields, records)
		b.WriteString("\n")
	}
}

func writeTable(b *strings.Builder, columns []schema.Field, records []any) {
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, c.Name)
	}
	cols = append(cols, extraColumns(columns, records)...)

	headers := make([]string, len(cols))
	rule := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = label(c)
		rule[i] = "---"
	}
	fmt.Fprintf(b, "| %s |\n| %s |\n", strings.Join(headers, " | "), strings.Join(rule, " | "))

	for _, r := range records {
		row := make([]string, len(cols))
		rec, isMap := r.(map[string]any)
		for i, c := range cols {
			if isMap {
				row[i] = cell(rec[c])
			} else if i == 0 {
				row[i] = cell(r)
			}
		}
		fmt.Fprintf(b, "| %s |\n", strings.Join(row, " | "))
	}
}

// extraColumns lists record keys the schema does not name, sorted.
func extraColumns(columns []schema.Field, records []any) []string {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.Name] = true
	}
	extra := make(map[string]bool)
	for _, r := range records {
		rec, ok := r.(map[string]any)
		if !ok {
			continue
		}
		for k := range rec {
			if !known[k] && !schema.IsMetadataKey(k) {
				extra[k] = true
			}
		}
	}
	out := make([]string, 0, len(extra))
	for k := range extra {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func stringItems(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := cell(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isBlank(m map[string]any) bool {
	for _, v := range m {
		switch x := v.(type) {
		case string:
			if strings.TrimSpace(x) != "" {
				return false
			}
		case []any:
			if len(x) > 0 {
				return false
			}
		case nil:
		default:
			return false
		}
	}
	return true
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return inline(x)
	default:
		return inline(fmt.Sprint(x))
	}
}

// inline flattens s onto one line and escapes table separators.
func inline(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// label turns "main_flow" into "Main flow".
func label(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	if s == "" {
		return s
	}
	if s == "id" {
		return "ID"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
