// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package mail

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/samber/oops"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
)

// view is the data every template renders from.
type view struct {
	Title         string
	URL           string
	Label         string
	Greeting      string
	ExpiryMinutes int
}

// render produces the HTML and plain-text bodies for the named template.
func render(name string, v view) (htmlBody, textBody string, err error) {
	var h, t bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&h, name+".html.tmpl", v); err != nil {
		return "", "", oops.Code("MAIL_TEMPLATE_FAILED").With("template", name).Wrap(err)
	}
	if err := textTemplates.ExecuteTemplate(&t, name+".txt.tmpl", v); err != nil {
		return "", "", oops.Code("MAIL_TEMPLATE_FAILED").With("template", name).Wrap(err)
	}
	return strings.TrimSpace(h.String()), strings.TrimSpace(t.String()), nil
}
