package dashboard

import (
	"embed"
	"html/template"
	"net/http"
	"regexp"
	"strings"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type pageSet struct {
	tmpl *template.Template
}

var pageFuncs = template.FuncMap{
	"sectionURL": sectionURL,
	"numeric":    isNumericCell,
	"inc":        func(i int) int { return i + 1 },
	"safeColor": func(c string) template.CSS {
		if !hexColor.MatchString(c) {
			return template.CSS("transparent")
		}
		return template.CSS(c) //nolint:gosec // validated hex color
	},
}

func mustParsePages() *pageSet {
	tmpl := template.Must(template.New("pages").Funcs(pageFuncs).ParseFS(templateFS, "templates/*.html"))
	return &pageSet{tmpl: tmpl}
}

// render writes the named page template.
func (p *pageSet) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	t := p.tmpl.Lookup(name)
	if t == nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	templ.Handler(templ.FromGoHTML(t, data)).ServeHTTP(w, r)
}

func sectionURL(slug string) string {
	if slug == "introduction" {
		return "/"
	}
	return "/" + slug
}

func isNumericCell(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s == "NA" {
		return true
	}
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != ',' {
			return false
		}
	}
	return true
}
