package sections

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

type TargetType string

const (
	TargetHomepage TargetType = "homepage"
	TargetPath     TargetType = "path"
	TargetCategory TargetType = "category"
)

func ParseTargetType(raw string) (TargetType, bool) {
	switch TargetType(strings.ToLower(strings.TrimSpace(raw))) {
	case TargetHomepage:
		return TargetHomepage, true
	case TargetPath:
		return TargetPath, true
	case TargetCategory:
		return TargetCategory, true
	}
	return "", false
}

// Target is the page a section is mounted on.
type Target struct {
	Type  TargetType `json:"type" yaml:"type" validate:"required,oneof=homepage path category"`
	Value string     `json:"value" yaml:"value,omitempty"`
}

func (t Target) Key() string {
	return string(t.Type) + ":" + t.Value
}

type FeedMode string

const (
	ModeAuto   FeedMode = "auto"
	ModeManual FeedMode = "manual"
	ModeMixed  FeedMode = "mixed"
)

// Effective maps empty and unknown modes to auto.
func (m FeedMode) Effective() FeedMode {
	switch m {
	case ModeManual, ModeMixed:
		return m
	}
	return ModeAuto
}

type SortBy string

const (
	SortPublishedAt SortBy = "publishedAt"
	SortPriority    SortBy = "priority"
)

func (s SortBy) Effective() SortBy {
	if s == SortPriority {
		return s
	}
	return SortPublishedAt
}

type Feed struct {
	Mode            FeedMode `json:"mode" yaml:"mode" validate:"omitempty,oneof=auto manual mixed"`
	SortBy          SortBy   `json:"sortBy" yaml:"sortBy" validate:"omitempty,oneof=publishedAt priority"`
	Categories      []string `json:"categories" yaml:"categories,omitempty"`
	Tags            []string `json:"tags" yaml:"tags,omitempty"`
	TimeWindowHours int      `json:"timeWindowHours" yaml:"timeWindowHours,omitempty" validate:"gte=0"`
}

// Pin is a manually placed article. Its position in the pin list is its slot.
type Pin struct {
	ArticleID string     `json:"articleId" yaml:"articleId" validate:"required"`
	StartAt   *time.Time `json:"startAt,omitempty" yaml:"startAt,omitempty"`
	EndAt     *time.Time `json:"endAt,omitempty" yaml:"endAt,omitempty"`
}

// ActiveAt reports startAt <= now < endAt, treating absent bounds as open.
func (p Pin) ActiveAt(now time.Time) bool {
	if p.StartAt != nil && now.Before(*p.StartAt) {
		return false
	}
	if p.EndAt != nil && !now.Before(*p.EndAt) {
		return false
	}
	return true
}

type Side string

const (
	SideNone  Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Section is a configured, positioned content block. Template and Custom are
// resolved once when the section is built or loaded.
type Section struct {
	ID             string
	Title          string
	Slug           string
	Template       Template
	Capacity       int
	Target         Target
	Feed           Feed
	Pins           []Pin
	Custom         Custom
	Enabled        bool
	PlacementIndex int
	Side           Side
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EffectiveCapacity is 1 for single-capacity templates and at least 1 otherwise.
func (s Section) EffectiveCapacity() int {
	if s.Template.SingleCapacity() || s.Capacity < 1 {
		return 1
	}
	return s.Capacity
}

// Record is the external shape of a section used on the wire and in layout files.
// Create payloads always carry custom and side, even when empty.
type Record struct {
	ID             string         `json:"id,omitempty" yaml:"id,omitempty"`
	Title          string         `json:"title" yaml:"title" validate:"required,max=200"`
	Slug           string         `json:"slug" yaml:"slug,omitempty" validate:"max=200"`
	Template       string         `json:"template" yaml:"template" validate:"required"`
	Capacity       int            `json:"capacity" yaml:"capacity" validate:"gte=1,lte=100"`
	Target         Target         `json:"target" yaml:"target"`
	Feed           Feed           `json:"feed" yaml:"feed"`
	Pins           []Pin          `json:"pins" yaml:"pins,omitempty" validate:"dive"`
	Custom         map[string]any `json:"custom" yaml:"custom,omitempty"`
	Enabled        bool           `json:"enabled" yaml:"enabled"`
	PlacementIndex int            `json:"placementIndex" yaml:"placementIndex"`
	Side           string         `json:"side" yaml:"side,omitempty" validate:"omitempty,oneof=left right"`
	CreatedAt      *time.Time     `json:"createdAt,omitempty" yaml:"-"`
	UpdatedAt      *time.Time     `json:"updatedAt,omitempty" yaml:"-"`
}

func (s Section) Record() Record {
	r := Record{
		ID:             s.ID,
		Title:          s.Title,
		Slug:           s.Slug,
		Template:       s.Template.Name,
		Capacity:       s.Capacity,
		Target:         s.Target,
		Feed:           s.Feed,
		Pins:           append([]Pin{}, s.Pins...),
		Custom:         CustomMap(s.Custom),
		Enabled:        s.Enabled,
		PlacementIndex: s.PlacementIndex,
		Side:           string(s.Side),
	}
	if r.Feed.Categories == nil {
		r.Feed.Categories = []string{}
	}
	if r.Feed.Tags == nil {
		r.Feed.Tags = []string{}
	}
	if !s.CreatedAt.IsZero() {
		created := s.CreatedAt
		r.CreatedAt = &created
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		r.UpdatedAt = &updated
	}
	return r
}

func (s Section) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Record())
}

// UnmarshalJSON loads leniently: a broken custom payload is dropped rather than failing.
func (s *Section) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	loaded, _ := Load(r)
	*s = loaded
	return nil
}

// Sort orders sections by placementIndex, then createdAt, then id.
func Sort(items []Section) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(items[i], items[j])
	})
}

func Less(a, b Section) bool {
	if a.PlacementIndex != b.PlacementIndex {
		return a.PlacementIndex < b.PlacementIndex
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SplitList turns comma separated text into trimmed, non-empty values.
func SplitList(text string) []string {
	parts := strings.Split(text, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}

// JoinList is the inverse of SplitList for display.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}

func cleanList(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		value := strings.TrimSpace(item)
		if value != "" {
			cleaned = append(cleaned, value)
		}
	}
	return cleaned
}
