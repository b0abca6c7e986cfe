package httpapi

import (
	"net/http"
	"strings"

	"newsdesk-sections/internal/articles"
	"newsdesk-sections/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxArticleLimit = 100

type CoverUpdateRequest struct {
	ImageURL string `json:"imageUrl"`
}

func (s *Server) SearchArticles(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := min(parseInt(r.URL.Query().Get("limit"), 20), maxArticleLimit)
	items, err := s.Articles.Search(r.Context(), term, limit)
	if err != nil {
		s.upstreamFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[articles.Article]{Items: items})
}

func (s *Server) QueryArticles(w http.ResponseWriter, r *http.Request) {
	var q articles.Query
	if err := decodeJSON(r, &q); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	q.Limit = min(q.Limit, maxArticleLimit)
	if q.Offset < 0 {
		q.Offset = 0
	}
	items, err := s.Articles.Query(r.Context(), q)
	if err != nil {
		s.upstreamFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[articles.Article]{Items: items})
}

func (s *Server) UpdateArticleCover(w http.ResponseWriter, r *http.Request) {
	var req CoverUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		WriteError(w, http.StatusBadRequest, "imageUrl is required.")
		return
	}
	if err := s.Articles.SetCover(r.Context(), chi.URLParam(r, "articleId"), imageURL); err != nil {
		s.upstreamFailure(w, r, err)
		return
	}
	s.Plans.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) upstreamFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.Log.Warn("content api call failed", zap.String("path", r.URL.Path), zap.Error(err))
	if r.Context().Err() != nil {
		return
	}
	mapServiceError(w, services.ErrUpstream("Content service unavailable"))
}
