package web

import "embed"

// TemplatesFS embeds the HTML templates served by the API index.
//
//go:embed templates/*.html
var TemplatesFS embed.FS
