// Package views renders the HTML pages of the site from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"newsroom/app/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names.
const (
	PageIndex     = "index.html"
	PagePost      = "post.html"
	PageLogin     = "login.html"
	PageRegister  = "register.html"
	PageWriteNews = "write-news.html"
	PageAbout     = "about.html"
	PageContact   = "contact.html"
	PageError     = "error.html"
)

var pages = []string{PageIndex, PagePost, PageLogin, PageRegister, PageWriteNews, PageAbout, PageContact, PageError}

// Page is everything a template can see.
type Page struct {
	Title       string
	CurrentUser *models.User
	IsAdmin     bool
	Flashes     []string
	Form        interface{}
	Errors      map[string]string
	Data        interface{}
}

// Renderer writes a page with the given status code.
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data Page) error
}

// TemplateRenderer renders the embedded templates, each inside layout.html.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

var funcMap = template.FuncMap{
	"fieldError": func(errs map[string]string, field string) string {
		return errs[field]
	},
}

// NewTemplateRenderer parses every page once.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	r := &TemplateRenderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcMap).
			ParseFS(templatesFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

// Render executes page into a buffer first so a template error never leaves
// a half-written response.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, page string, data Page) error {
	tmpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet and other assets. Mount it with the
// /static/ prefix stripped.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
