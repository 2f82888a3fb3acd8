package ui

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

var resultTemplate = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style nonce="{{.Nonce}}">
body{font-family:system-ui,sans-serif;background:#f8fafc;color:#0f172a;display:flex;align-items:center;justify-content:center;min-height:100vh;margin:0}
main{background:#fff;border-radius:12px;padding:2rem;max-width:28rem;box-shadow:0 1px 3px rgba(0,0,0,.1)}
h1{font-size:1.25rem;margin:0 0 .5rem}
a{color:#3b82f6}
</style>
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
<p><a href="{{.Link}}">{{.LinkText}}</a></p>
</main>
</body>
</html>`))

type ResultProps struct {
	Title    string
	Message  string
	Link     string
	LinkText string
}

// ResultPage is a standalone page shown when a browser redirect flow cannot
// continue, such as a failed OAuth callback. Inline styles carry the request nonce.
func ResultPage(p ResultProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return resultTemplate.Execute(w, struct {
			ResultProps
			Nonce string
		}{p, templ.GetNonce(ctx)})
	})
}
