package httpapi

import (
	"context"
	"net/http"
	"time"

	"newsdesk-sections/internal/services"

	"github.com/gorilla/websocket"
)

type HealthResponse struct {
	Status      string                `json:"status"`
	Store       string                `json:"store"`
	Subscribers int                   `json:"subscribers"`
	Sample      services.HealthSample `json:"sample"`
}

// SectionsSocket streams section change events until the client goes away.
func (s *Server) SectionsSocket(w http.ResponseWriter, r *http.Request) {
	if s.Hub == nil {
		WriteError(w, http.StatusServiceUnavailable, "Change feed disabled")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.Hub.Add(conn)
	defer func() {
		s.Hub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Store: "ok", Sample: services.CaptureHealth()}
	if s.Hub != nil {
		resp.Subscribers = s.Hub.Count()
	}
	status := http.StatusOK
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Store = "unreachable"
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}
