// Package web serves the platform's HTML pages and the small JSON api.
// Handlers delegate every security decision to the auth package; this
// package only translates HTTP to auth calls and renders the outcome.
package web

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/inkset/inkwell/internal/auth"
	"github.com/inkset/inkwell/internal/config"
	"github.com/inkset/inkwell/internal/logutil"
	"github.com/inkset/inkwell/internal/store"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type (
	Server struct {
		cfg       config.Config
		store     *store.Store
		auth      *auth.Service
		templates map[string]*template.Template
		cache     *PageCache
		throttle  *ipThrottle
	}
)

// NewHandler wires the full route table over the given store.
func NewHandler(ctx context.Context, cfg config.Config, st *store.Store) (http.Handler, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:       cfg,
		store:     st,
		auth:      auth.NewService(cfg, st),
		templates: templates,
		cache:     NewPageCache(30 * time.Second),
		throttle:  newIPThrottle(rate.Every(2*time.Second), 5),
	}

	router := httprouter.New()
	router.HandlerFunc("GET", "/", s.page(s.handleHome))

	router.HandlerFunc("GET", "/login", s.page(s.handleLoginForm))
	router.HandlerFunc("POST", "/login", s.page(s.handleLogin))
	router.HandlerFunc("GET", "/register", s.page(s.handleRegisterForm))
	router.HandlerFunc("POST", "/register", s.page(s.handleRegister))
	router.HandlerFunc("POST", "/logout", s.page(s.handleLogout))

	router.HandlerFunc("GET", "/dashboard", s.page(s.handleDashboard))

	// httprouter cannot mix a static /posts/new with the /posts/:id
	// wildcard, so the create form lives behind the "new" id.
	router.HandlerFunc("GET", "/posts/:id", s.page(s.handlePostView))
	router.HandlerFunc("POST", "/posts/:id", s.page(s.handlePostCreate))
	router.HandlerFunc("GET", "/posts/:id/edit", s.page(s.handlePostEditForm))
	router.HandlerFunc("POST", "/posts/:id/edit", s.page(s.handlePostEdit))
	router.HandlerFunc("POST", "/posts/:id/delete", s.page(s.handlePostDelete))

	router.HandlerFunc("GET", "/admin", s.page(s.handleAdmin))
	router.HandlerFunc("POST", "/admin/users/role", s.page(s.handleAdminRole))
	router.HandlerFunc("POST", "/admin/users/status", s.page(s.handleAdminStatus))

	router.HandlerFunc("GET", "/healthz", s.handleHealthz)
	router.HandlerFunc("GET", "/api/posts", s.handleAPIPosts)
	router.Handler("GET", "/metrics", promhttp.Handler())

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("unable to mount static assets, cause %w", err)
	}
	router.ServeFiles("/static/*filepath", http.FS(static))

	return router, nil
}

// newPageData fills the fields shared by every page, minting the session
// CSRF token on first use.
func (s *Server) newPageData(ctx context.Context, rc *reqCtx, title string) (pageData, error) {
	token, err := s.auth.Sessions().CSRFToken(ctx, &rc.Session)
	if err != nil {
		return pageData{}, err
	}
	return pageData{
		Title:     title,
		Principal: rc.Principal,
		Flash:     rc.Flash,
		FlashKind: rc.FlashKind,
		CSRFToken: token,
	}, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := s.templates[page]
	if !ok {
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Str("template", page).Msg("Unknown template")
		http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Str("template", page).Msg("Unable to render template")
	}
}

// fail renders a page with the user-facing version of err. Storage
// failures are logged with full detail and shown as a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, page string, data pageData, err error) {
	if !auth.Recoverable(err) {
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Msg("Request failed")
	}
	data.Error = auth.UserMessage(err)
	s.render(w, r, http.StatusOK, page, data)
}
