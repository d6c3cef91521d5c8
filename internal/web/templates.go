package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/inkset/inkwell/internal/auth"
	"github.com/inkset/inkwell/internal/store"
)

//go:embed templates static
var assets embed.FS

type (
	// pageData is the single view-model handed to every template. Pages
	// only read the fields they care about.
	pageData struct {
		Title     string
		Principal *auth.Principal
		Flash     string
		FlashKind string
		CSRFToken string
		Error     string

		Posts      []store.Post
		Post       store.Post
		CanModify  bool
		Page       int
		TotalPages int
		PrevPage   int
		NextPage   int
		Query      string

		Form map[string]string

		Users      []store.UserSummary
		RoleCounts map[string]int
		TotalPosts int
		Activity   []store.AuditActivity
		Roles      []auth.Role
		Statuses   []auth.Status
	}
)

var templateFuncs = template.FuncMap{
	"excerpt": func(s string, max int) string {
		if len(s) <= max {
			return s
		}
		cut := strings.LastIndexByte(s[:max], ' ')
		if cut <= 0 {
			cut = max
		}
		return s[:cut] + "..."
	},
}

// parseTemplates builds one template set per page, each paired with the
// shared layout.
func parseTemplates() (map[string]*template.Template, error) {
	pages, err := fs.Glob(assets, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("unable to list page templates, cause %w", err)
	}
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(assets, "templates/layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("unable to parse template %v, cause %w", page, err)
		}
		out[name] = t
	}
	return out, nil
}
