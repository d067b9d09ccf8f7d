package main

import (
	"fmt"
	"html/template"

	webassets "github.com/johnqtcg/guescus/web"
)

const widgetTemplatePath = "templates/widget.html"

func loadTemplate() (*template.Template, error) {
	tmpl, err := template.ParseFS(webassets.FS, widgetTemplatePath)
	if err == nil {
		return tmpl, nil
	}

	fallback, fallbackErr := template.New("widget").Parse(defaultWidgetTemplate)
	if fallbackErr != nil {
		return nil, fmt.Errorf("parse embedded template: %w", err)
	}
	return fallback, nil
}

const defaultWidgetTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Gist-Cus</title>
  <link rel="stylesheet" href="{{ .ThemeURL }}">
</head>
<body>
  <main class="widget">
    {{ if .Error }}<div class="banner" role="alert">{{ .Error }}</div>{{ end }}
    {{ if not .View.Empty }}<p class="count">{{ .View.TotalCount }} Comments</p>{{ end }}
    {{ range .View.Comments }}
    <article class="comment" id="{{ .ID }}">
      <strong>{{ .Author.Name }}</strong>{{ if .Author.Guest }} <span class="badge">Guest</span>{{ end }} <span>{{ .Age }}</span>
      <p>{{ .Body }}</p>
      {{ range .Replies }}<blockquote><strong>{{ .Author.Name }}</strong> {{ .Body }}</blockquote>{{ end }}
    </article>
    {{ end }}
    {{ if and .View.Empty (not .Error) }}<p class="empty">{{ .EmptyText }}</p>{{ end }}
    <footer>Powered by Gist-Cus</footer>
  </main>
</body>
</html>`
