package httpapi

import (
	"net/http"
	"strings"

	"newsdesk-sections/internal/sections"
	"newsdesk-sections/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListSections(w http.ResponseWriter, r *http.Request) {
	filter := services.SectionFilter{}
	if raw := r.URL.Query().Get("targetType"); raw != "" {
		target, err := services.ParseTarget(raw, strings.TrimSpace(r.URL.Query().Get("targetValue")))
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		filter.Target = &target
	}
	items, err := s.Sections.List(r.Context(), filter)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse[sections.Section]{Items: items})
}

func (s *Server) GetSection(w http.ResponseWriter, r *http.Request) {
	section, err := s.Sections.Get(r.Context(), chi.URLParam(r, "sectionId"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, section)
}

func (s *Server) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req sections.Record
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	section, err := s.Sections.Create(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, section)
}

func (s *Server) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var patch sections.Patch
	if err := decodeJSON(r, &patch); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	section, err := s.Sections.Update(r.Context(), chi.URLParam(r, "sectionId"), patch)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, section)
}

func (s *Server) DeleteSection(w http.ResponseWriter, r *http.Request) {
	if err := s.Sections.Delete(r.Context(), chi.URLParam(r, "sectionId")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
