package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/livedoc/internal/patch"
	"github.com/ziadkadry99/livedoc/internal/schema"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

var page = template.Must(template.New("page").Parse(pageTemplate))

type pageData struct {
	Title   string
	Content template.HTML
}

// HTML renders doc as a standalone page: the Markdown report followed by
// the raw document as highlighted JSON. Raw HTML in document values is
// escaped.
func HTML(doc patch.Document) ([]byte, error) {
	var src bytes.Buffer
	src.WriteString(Markdown(doc))
	src.WriteString("\n## Document JSON\n\n```json\n")
	src.WriteString(schema.Render(doc, schema.ViewAudit))
	src.WriteString("\n```\n")

	var body bytes.Buffer
	if err := md.Convert(src.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var out bytes.Buffer
	err := page.Execute(&out, pageData{
		Title:   Title(doc),
		Content: template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return out.Bytes(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #1f2328; line-height: 1.5; }
h1 { border-bottom: 1px solid #d1d9e0; padding-bottom: .3rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1rem; }
th, td { border: 1px solid #d1d9e0; padding: 6px 13px; text-align: left; }
th { background: #f6f8fa; }
pre { padding: 1rem; overflow: auto; border-radius: 6px; }
</style>
</head>
<body>
{{.Content}}
</body>
</html>
`
