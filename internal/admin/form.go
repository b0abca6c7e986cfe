package admin

import (
	"strings"

	"newsdesk-sections/internal/sections"
)

// Form is the editable state of one section. An empty ID means a new section.
type Form struct {
	ID             string
	Title          string
	Slug           string
	Template       string
	Capacity       int
	Target         sections.Target
	Mode           sections.FeedMode
	SortBy         sections.SortBy
	Categories     []string
	Tags           []string
	TimeWindow     int
	Pins           []sections.Pin
	Custom         map[string]any
	Enabled        bool
	PlacementIndex int
	Side           string
}

func NewForm() Form {
	return Form{
		Template:   string(sections.TemplateList),
		Capacity:   6,
		Target:     sections.Target{Type: sections.TargetHomepage},
		Mode:       sections.ModeAuto,
		SortBy:     sections.SortPublishedAt,
		Categories: []string{},
		Tags:       []string{},
		Pins:       []sections.Pin{},
		Custom:     map[string]any{},
		Enabled:    true,
	}
}

func FromSection(s sections.Section) Form {
	r := s.Record()
	return Form{
		ID:             r.ID,
		Title:          r.Title,
		Slug:           r.Slug,
		Template:       r.Template,
		Capacity:       r.Capacity,
		Target:         r.Target,
		Mode:           r.Feed.Mode,
		SortBy:         r.Feed.SortBy,
		Categories:     append([]string{}, r.Feed.Categories...),
		Tags:           append([]string{}, r.Feed.Tags...),
		TimeWindow:     r.Feed.TimeWindowHours,
		Pins:           r.Pins,
		Custom:         r.Custom,
		Enabled:        r.Enabled,
		PlacementIndex: r.PlacementIndex,
		Side:           r.Side,
	}
}

// SetTemplate switches template. Custom fields of another family are cleared,
// and so is the side when the new template is not a rail.
func (f *Form) SetTemplate(name string) {
	next := sections.NormalizeTemplate(name)
	tmpl := sections.ResolveTemplate(next)
	if tmpl.Family() != sections.ResolveTemplate(f.Template).Family() {
		f.Custom = map[string]any{}
	}
	if !tmpl.IsRail() {
		f.Side = ""
	}
	f.Template = next
}

func (f *Form) SetCategories(text string) {
	f.Categories = sections.SplitList(text)
}

func (f *Form) SetTags(text string) {
	f.Tags = sections.SplitList(text)
}

func (f *Form) AddPin(pin sections.Pin) {
	pin.ArticleID = strings.TrimSpace(pin.ArticleID)
	if pin.ArticleID == "" {
		return
	}
	f.Pins = append(f.Pins, pin)
}

func (f *Form) MovePinUp(index int) {
	if index <= 0 || index >= len(f.Pins) {
		return
	}
	f.Pins[index-1], f.Pins[index] = f.Pins[index], f.Pins[index-1]
}

func (f *Form) MovePinDown(index int) {
	if index < 0 || index >= len(f.Pins)-1 {
		return
	}
	f.Pins[index], f.Pins[index+1] = f.Pins[index+1], f.Pins[index]
}

func (f *Form) RemovePin(index int) {
	if index < 0 || index >= len(f.Pins) {
		return
	}
	f.Pins = append(f.Pins[:index:index], f.Pins[index+1:]...)
}

func (f Form) record() sections.Record {
	custom := f.Custom
	if custom == nil {
		custom = map[string]any{}
	}
	return sections.Record{
		ID:       f.ID,
		Title:    f.Title,
		Slug:     f.Slug,
		Template: f.Template,
		Capacity: f.Capacity,
		Target:   f.Target,
		Feed: sections.Feed{
			Mode:            f.Mode,
			SortBy:          f.SortBy,
			Categories:      append([]string{}, f.Categories...),
			Tags:            append([]string{}, f.Tags...),
			TimeWindowHours: f.TimeWindow,
		},
		Pins:           append([]sections.Pin{}, f.Pins...),
		Custom:         custom,
		Enabled:        f.Enabled,
		PlacementIndex: f.PlacementIndex,
		Side:           f.Side,
	}
}

// Payload validates the form and returns the full object to submit, with
// capacity forced to 1 for single-item templates.
func (f Form) Payload() (sections.Record, error) {
	section, err := sections.Build(f.record())
	if err != nil {
		return sections.Record{}, err
	}
	return section.Record(), nil
}
