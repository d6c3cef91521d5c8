package web

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/inkset/inkwell/internal/logutil"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	ctx := r.Context()
	cacheable := rc.Principal == nil && rc.Flash == ""
	if cacheable {
		if body, ok := s.cache.Get(r.URL.Path, r.URL.RawQuery); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(body)
			return
		}
	}

	page := 1
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page = n
	}
	query := r.URL.Query().Get("q")
	if len(query) < s.cfg.SearchMinLength {
		query = ""
	}

	total, err := s.store.CountPublished(ctx, query)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	totalPages := (total + s.cfg.PostsPerPage - 1) / s.cfg.PostsPerPage
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	posts, err := s.store.ListPublished(ctx, query, s.cfg.PostsPerPage, (page-1)*s.cfg.PostsPerPage)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data, err := s.newPageData(ctx, rc, "")
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data.Posts = posts
	data.Page = page
	data.TotalPages = totalPages
	data.PrevPage = page - 1
	data.NextPage = page + 1
	data.Query = query

	if cacheable {
		s.renderAndCache(w, r, "home", data)
		return
	}
	s.render(w, r, http.StatusOK, "home", data)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	if !s.requireAuth(w, r, rc) {
		return
	}
	ctx := r.Context()
	posts, err := s.store.ListByAuthor(ctx, rc.Principal.UserID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data, err := s.newPageData(ctx, rc, "Dashboard")
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data.Posts = posts
	s.render(w, r, http.StatusOK, "dashboard", data)
}

// renderAndCache writes the page and keeps the rendered body for other
// logged-out visitors.
func (s *Server) renderAndCache(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	t, ok := s.templates[page]
	if !ok {
		s.render(w, r, http.StatusOK, page, data)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Str("template", page).Msg("Unable to render template")
		http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
		return
	}
	s.cache.Set(r.URL.Path, r.URL.RawQuery, buf.Bytes())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logutil.GetOrDefault(r.Context())
	logger.Error().Err(err).Msg("Request failed")
	http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
}
