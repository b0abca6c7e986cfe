package services

import (
	"context"
	"errors"
	"sync"

	"newsdesk-sections/internal/sections"
)

// ErrSectionMissing is returned by stores when no section has the given id.
var ErrSectionMissing = errors.New("section missing")

// ErrSlugTaken is returned when a write would give two sections the same slug.
var ErrSlugTaken = errors.New("slug taken")

type SectionFilter struct {
	Target      *sections.Target
	EnabledOnly bool
}

func (f SectionFilter) Match(s sections.Section) bool {
	if f.EnabledOnly && !s.Enabled {
		return false
	}
	if f.Target != nil && (s.Target.Type != f.Target.Type || s.Target.Value != f.Target.Value) {
		return false
	}
	return true
}

// Store persists sections. Implementations return ErrSectionMissing for unknown
// ids and ErrSlugTaken when a slug is already used by another section.
type Store interface {
	ListSections(ctx context.Context, filter SectionFilter) ([]sections.Section, error)
	GetSection(ctx context.Context, id string) (sections.Section, error)
	InsertSection(ctx context.Context, s sections.Section) error
	UpdateSection(ctx context.Context, s sections.Section) error
	DeleteSection(ctx context.Context, id string) error
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
	Ping(ctx context.Context) error
}

// MemoryStore keeps sections in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]sections.Section
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]sections.Section{}}
}

func (m *MemoryStore) ListSections(_ context.Context, filter SectionFilter) ([]sections.Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]sections.Section, 0, len(m.items))
	for _, s := range m.items {
		if filter.Match(s) {
			items = append(items, clone(s))
		}
	}
	sections.Sort(items)
	return items, nil
}

func (m *MemoryStore) GetSection(_ context.Context, id string) (sections.Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.items[id]
	if !ok {
		return sections.Section{}, ErrSectionMissing
	}
	return clone(s), nil
}

func (m *MemoryStore) InsertSection(_ context.Context, s sections.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugUsed(s.Slug, s.ID) {
		return ErrSlugTaken
	}
	m.items[s.ID] = clone(s)
	return nil
}

func (m *MemoryStore) UpdateSection(_ context.Context, s sections.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[s.ID]; !ok {
		return ErrSectionMissing
	}
	if m.slugUsed(s.Slug, s.ID) {
		return ErrSlugTaken
	}
	m.items[s.ID] = clone(s)
	return nil
}

func (m *MemoryStore) DeleteSection(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrSectionMissing
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) SlugTaken(_ context.Context, slug, exceptID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slugUsed(slug, exceptID), nil
}

func (m *MemoryStore) slugUsed(slug, exceptID string) bool {
	if slug == "" {
		return false
	}
	for id, s := range m.items {
		if id != exceptID && s.Slug == slug {
			return true
		}
	}
	return false
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func clone(s sections.Section) sections.Section {
	s.Pins = append([]sections.Pin(nil), s.Pins...)
	s.Feed.Categories = append([]string(nil), s.Feed.Categories...)
	s.Feed.Tags = append([]string(nil), s.Feed.Tags...)
	return s
}
