package export

import (
	"bytes"
	"fmt"
	"html/template"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 24px; color: #222; }
h1 { font-size: 20px; margin-bottom: 4px; }
.meta { color: #666; font-size: 12px; margin-bottom: 16px; }
.stats { display: flex; gap: 12px; margin-bottom: 16px; }
.stat { border: 1px solid #ccc; border-radius: 4px; padding: 8px 12px; }
.stat .label { font-size: 11px; color: #666; }
.stat .value { font-size: 16px; font-weight: bold; }
table { border-collapse: collapse; width: 100%; font-size: 12px; }
th, td { border: 1px solid #ccc; padding: 4px 6px; text-align: left; }
th { background: #f2f2f2; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">Generated {{.GeneratedAt}}</div>
{{- if .Stats}}
<div class="stats">
{{- range .Stats}}
<div class="stat"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>
{{- end}}
</div>
{{- end}}
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

// HTMLExporter renders datasets as a self-contained printable document.
type HTMLExporter struct{}

// NewHTMLExporter constructs an HTML exporter.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

// Render executes the report template. All values are HTML escaped.
func (e *HTMLExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("html requires at least one header")
	}
	buf := &bytes.Buffer{}
	if err := reportTemplate.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
