package web

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/inkset/inkwell/internal/logutil"
)

type (
	apiPost struct {
		ID        int64     `json:"id"`
		Title     string    `json:"title"`
		Author    string    `json:"author"`
		Excerpt   string    `json:"excerpt"`
		CreatedAt time.Time `json:"created_at"`
	}

	healthResponse struct {
		Status string `json:"status"`
	}
)

const apiPostsLimit = 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Msg("Unable to encode json response")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	r, logger := logutil.RequestLogger(r)
	if err := s.store.Ping(r.Context()); err != nil {
		logger.Error().Err(err).Msg("Health check failed")
		writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		return
	}
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
}

// handleAPIPosts serves the published-posts feed.
func (s *Server) handleAPIPosts(w http.ResponseWriter, r *http.Request) {
	r, logger := logutil.RequestLogger(r)
	posts, err := s.store.ListPublished(r.Context(), "", apiPostsLimit, 0)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to load posts feed")
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "try again later"})
		return
	}
	out := make([]apiPost, 0, len(posts))
	for _, p := range posts {
		excerpt := p.Content
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		out = append(out, apiPost{
			ID:        p.ID,
			Title:     p.Title,
			Author:    p.AuthorName,
			Excerpt:   excerpt,
			CreatedAt: p.CreatedAt,
		})
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"posts": out})
}
