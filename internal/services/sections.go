package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"newsdesk-sections/internal/sections"

	"github.com/google/uuid"
)

// SectionService owns section CRUD. Every successful mutation is reported to
// the registered change listeners.
type SectionService struct {
	store     Store
	now       func() time.Time
	newID     func() string
	listeners []func(ChangeEvent)
}

func NewSectionService(store Store) *SectionService {
	return &SectionService{store: store, now: time.Now, newID: uuid.NewString}
}

// OnChange registers fn to be called after each create, update and delete.
func (s *SectionService) OnChange(fn func(ChangeEvent)) {
	s.listeners = append(s.listeners, fn)
}

func (s *SectionService) List(ctx context.Context, filter SectionFilter) ([]sections.Section, error) {
	items, err := s.store.ListSections(ctx, filter)
	if err != nil {
		return nil, WrapError(err, "list sections")
	}
	sections.Sort(items)
	return items, nil
}

func (s *SectionService) Get(ctx context.Context, id string) (sections.Section, error) {
	section, err := s.store.GetSection(ctx, strings.TrimSpace(id))
	if errors.Is(err, ErrSectionMissing) {
		return sections.Section{}, ErrNotFound("Section not found")
	}
	if err != nil {
		return sections.Section{}, WrapError(err, "load section")
	}
	return section, nil
}

func (s *SectionService) Create(ctx context.Context, record sections.Record) (sections.Section, error) {
	record.ID = ""
	section, err := sections.Build(record)
	if err != nil {
		return sections.Section{}, validationError(err)
	}
	slug, err := ResolveSectionSlug(ctx, s.store, firstNonEmpty(section.Slug, section.Title), "")
	if err != nil {
		return sections.Section{}, WrapError(err, "resolve slug")
	}
	now := s.now().UTC()
	section.ID = s.newID()
	section.Slug = slug
	section.CreatedAt = now
	section.UpdatedAt = now
	if err := s.store.InsertSection(ctx, section); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return sections.Section{}, slugConflict(slug)
		}
		return sections.Section{}, WrapError(err, "insert section")
	}
	s.emit(EventSectionCreated, section)
	return section, nil
}

// Update merges the patch into the stored section and validates the result as
// a whole before saving it.
func (s *SectionService) Update(ctx context.Context, id string, patch sections.Patch) (sections.Section, error) {
	if patch.Empty() {
		return sections.Section{}, ErrBadRequest("Nothing to update.")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return sections.Section{}, err
	}
	var section sections.Section
	switch {
	case patch.PlacementOnly():
		section = current
		if patch.Enabled != nil {
			section.Enabled = *patch.Enabled
		}
		if patch.PlacementIndex != nil {
			section.PlacementIndex = *patch.PlacementIndex
		}
	case patch.TouchesCustom():
		section, err = sections.Build(patch.Apply(current.Record()))
	default:
		section, err = sections.Rebuild(patch.Apply(current.Record()), current.Custom)
	}
	if err != nil {
		return sections.Section{}, validationError(err)
	}
	section.ID = current.ID
	section.CreatedAt = current.CreatedAt
	section.Slug = current.Slug
	if patch.Slug != nil || (patch.Title != nil && current.Slug == "") {
		slug, err := ResolveSectionSlug(ctx, s.store, firstNonEmpty(strings.TrimSpace(deref(patch.Slug)), section.Title), current.ID)
		if err != nil {
			return sections.Section{}, WrapError(err, "resolve slug")
		}
		section.Slug = slug
	}
	section.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateSection(ctx, section); err != nil {
		if errors.Is(err, ErrSectionMissing) {
			return sections.Section{}, ErrNotFound("Section not found")
		}
		if errors.Is(err, ErrSlugTaken) {
			return sections.Section{}, slugConflict(section.Slug)
		}
		return sections.Section{}, WrapError(err, "update section")
	}
	s.emit(EventSectionUpdated, section)
	return section, nil
}

func (s *SectionService) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSection(ctx, current.ID); err != nil {
		if errors.Is(err, ErrSectionMissing) {
			return ErrNotFound("Section not found")
		}
		return WrapError(err, "delete section")
	}
	s.emit(EventSectionDeleted, current)
	return nil
}

func (s *SectionService) emit(kind string, section sections.Section) {
	event := ChangeEvent{Type: kind, SectionID: section.ID, Target: section.Target, At: s.now().UTC()}
	for _, fn := range s.listeners {
		fn(event)
	}
}

func Slugify(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}

// ResolveSectionSlug slugifies value and appends -2, -3... until no other
// section uses it.
func ResolveSectionSlug(ctx context.Context, store Store, value, exceptID string) (string, error) {
	base := Slugify(value)
	candidate := base
	counter := 2
	for {
		taken, err := store.SlugTaken(ctx, candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(counter)
		counter++
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
