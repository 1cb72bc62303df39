package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var policyTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	content, err := templateFS.ReadFile("templates/policy.html")
	if err != nil {
		policyTemplate = template.Must(template.New("policy").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	policyTemplate = template.Must(template.New("policy").Funcs(funcMap).Parse(string(content)))
}

// TemplateData holds data for policy template rendering.
type TemplateData struct {
	Title          string
	Description    string
	Purpose        string
	Scope          string
	Responsibility string
	SiteName       string
	UpdatedAt      time.Time
}

// RenderPolicyHTML renders the policy document template with the provided data.
func RenderPolicyHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := policyTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load.
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  <div class="meta">{{.SiteName}} | {{.UpdatedAt.Format "Jan 2, 2006"}}</div>
  {{if .Purpose}}<h2>Purpose</h2><p>{{.Purpose}}</p>{{end}}
  {{if .Scope}}<h2>Scope</h2><p>{{.Scope}}</p>{{end}}
  {{if .Responsibility}}<h2>Responsibility</h2><p>{{.Responsibility}}</p>{{end}}
</body>
</html>`
