package services

import (
	"context"
	"sync"
	"time"

	"newsdesk-sections/internal/sections"
)

const writeWait = time.Second

const (
	EventSectionCreated = "section.created"
	EventSectionUpdated = "section.updated"
	EventSectionDeleted = "section.deleted"
)

type ChangeEvent struct {
	Type      string          `json:"type"`
	SectionID string          `json:"sectionId"`
	Target    sections.Target `json:"target"`
	At        time.Time       `json:"at"`
}

// Subscriber is a connected change feed client. *websocket.Conn satisfies it.
type Subscriber interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// ChangeHub fans section change events out to subscribers. Every write has a
// deadline; a subscriber whose write fails or times out is dropped.
type ChangeHub struct {
	mu      sync.Mutex
	clients map[Subscriber]bool
	ch      chan ChangeEvent
}

func NewChangeHub() *ChangeHub {
	return &ChangeHub{
		clients: map[Subscriber]bool{},
		ch:      make(chan ChangeEvent, 64),
	}
}

func (h *ChangeHub) Run(ctx context.Context) {
	for {
		select {
		case event := <-h.ch:
			h.deliver(event)
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *ChangeHub) deliver(event ChangeEvent) {
	h.mu.Lock()
	clients := make([]Subscriber, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()

	for _, conn := range clients {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.drop(conn)
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			h.drop(conn)
		}
	}
}

func (h *ChangeHub) drop(conn Subscriber) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Publish never blocks; events are dropped when the queue is full.
func (h *ChangeHub) Publish(event ChangeEvent) {
	select {
	case h.ch <- event:
	default:
	}
}

func (h *ChangeHub) Add(conn Subscriber) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *ChangeHub) Remove(conn Subscriber) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *ChangeHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
