package httpapi

import (
	"bytes"
	"net/http"
	"strings"

	"newsdesk-sections/internal/sections"
	"newsdesk-sections/internal/services"
	"newsdesk-sections/internal/templates"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) SectionPlan(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	target, err := services.ParseTarget(query.Get("sectionType"), strings.TrimSpace(query.Get("value")))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var preview bool
	switch strings.ToLower(query.Get("mode")) {
	case "", "public":
	case "preview":
		preview = true
	default:
		WriteError(w, http.StatusBadRequest, "mode must be one of: public, preview.")
		return
	}
	plan, err := s.Plans.Build(r.Context(), target, preview)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, plan)
}

// RenderPage serves the public plan of a page as server side rendered HTML.
func (s *Server) RenderPage(w http.ResponseWriter, r *http.Request) {
	value := strings.TrimSpace(r.URL.Query().Get("value"))
	target, err := services.ParseTarget(chi.URLParam(r, "sectionType"), value)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	plan, err := s.Plans.Build(r.Context(), target, false)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	views := make([]templates.View, 0, len(plan.Sections))
	for _, entry := range plan.Sections {
		views = append(views, templates.View{Section: entry.Section, Items: entry.Items, Zones: entry.Zones})
	}
	var buf bytes.Buffer
	err = s.Templates.RenderPage(&buf, pageTitle(target), views, func(view templates.View, err error) {
		s.Log.Warn("section render failed", zap.String("section", view.Section.ID), zap.Error(err))
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func pageTitle(target sections.Target) string {
	if target.Type == sections.TargetHomepage {
		return "Home"
	}
	return target.Value
}
