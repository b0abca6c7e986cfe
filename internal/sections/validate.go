package sections

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries the single user-facing message of a rejected configuration.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims text fields, cleans lists and applies the single-capacity
// override. It never fails.
func Normalize(r Record) Record {
	r.Title = strings.TrimSpace(r.Title)
	r.Slug = strings.TrimSpace(r.Slug)
	r.Template = NormalizeTemplate(r.Template)
	r.Target.Type = TargetType(strings.ToLower(strings.TrimSpace(string(r.Target.Type))))
	r.Target.Value = strings.TrimSpace(r.Target.Value)
	r.Feed.Categories = cleanList(r.Feed.Categories)
	r.Feed.Tags = cleanList(r.Feed.Tags)
	r.Side = strings.ToLower(strings.TrimSpace(r.Side))
	pins := make([]Pin, 0, len(r.Pins))
	for _, pin := range r.Pins {
		pin.ArticleID = strings.TrimSpace(pin.ArticleID)
		pins = append(pins, pin)
	}
	r.Pins = pins
	if r.Custom == nil {
		r.Custom = map[string]any{}
	}
	if ResolveTemplate(r.Template).SingleCapacity() {
		r.Capacity = 1
	}
	return r
}

// Build validates an admin-submitted record and constructs the section.
// Unknown custom keys and template-specific missing fields are rejected.
func Build(r Record) (Section, error) {
	r, tmpl, err := checkCommon(r)
	if err != nil {
		return Section{}, err
	}
	custom, err := DecodeCustom(tmpl, r.Custom, true)
	if err != nil {
		return Section{}, &ValidationError{Message: err.Error()}
	}
	if err := checkCustom(custom); err != nil {
		return Section{}, err
	}
	return assemble(r, tmpl, custom), nil
}

// Rebuild validates the common fields of r and keeps custom as already
// decoded. It serves updates that change neither template nor custom.
func Rebuild(r Record, custom Custom) (Section, error) {
	r, tmpl, err := checkCommon(r)
	if err != nil {
		return Section{}, err
	}
	return assemble(r, tmpl, custom), nil
}

func checkCommon(r Record) (Record, Template, error) {
	r = Normalize(r)
	if err := validate.Struct(r); err != nil {
		return r, Template{}, translate(err)
	}
	tmpl := ResolveTemplate(r.Template)
	if err := checkTarget(r.Target); err != nil {
		return r, Template{}, err
	}
	side := Side(r.Side)
	if side != SideNone && !tmpl.IsRail() {
		return r, Template{}, invalid("Side can only be set on rail templates.")
	}
	for i, pin := range r.Pins {
		if pin.StartAt != nil && pin.EndAt != nil && !pin.StartAt.Before(*pin.EndAt) {
			return r, Template{}, invalid("Pin %d must start before it ends.", i+1)
		}
	}
	return r, tmpl, nil
}

// Load constructs a section from storage or another trusted source. The
// returned section is always usable; a non-nil error reports a custom payload
// that could not be decoded and was dropped.
func Load(r Record) (Section, error) {
	r = Normalize(r)
	if r.Capacity < 1 {
		r.Capacity = 1
	}
	tmpl := ResolveTemplate(r.Template)
	custom, err := DecodeCustom(tmpl, r.Custom, false)
	if err != nil {
		custom = NoCustom{family: tmpl.Family()}
	}
	return assemble(r, tmpl, custom), err
}

func assemble(r Record, tmpl Template, custom Custom) Section {
	s := Section{
		ID:             r.ID,
		Title:          r.Title,
		Slug:           r.Slug,
		Template:       tmpl,
		Capacity:       r.Capacity,
		Target:         r.Target,
		Feed:           r.Feed,
		Pins:           r.Pins,
		Custom:         custom,
		Enabled:        r.Enabled,
		PlacementIndex: r.PlacementIndex,
		Side:           Side(r.Side),
	}
	if r.CreatedAt != nil {
		s.CreatedAt = r.CreatedAt.UTC()
	}
	if r.UpdatedAt != nil {
		s.UpdatedAt = r.UpdatedAt.UTC()
	}
	return s
}

func checkTarget(t Target) error {
	switch t.Type {
	case TargetHomepage:
		if t.Value != "" {
			return invalid("Homepage targets take no value.")
		}
	case TargetPath, TargetCategory:
		if t.Value == "" {
			return invalid("Target value is required for %s targets.", t.Type)
		}
	}
	return nil
}

func checkCustom(c Custom) error {
	switch value := c.(type) {
	case PromoCustom:
		if strings.TrimSpace(value.ImageURL) == "" {
			return invalid("Promo image URL is required.")
		}
		if !promoAspects[value.Aspect] {
			return invalid("Promo aspect must be one of 16:9, 4:3, 1:1 or 3:4.")
		}
	case NewsCardCustom:
		if strings.TrimSpace(value.ImageURL) == "" || strings.TrimSpace(value.Title) == "" || strings.TrimSpace(value.Summary) == "" {
			return invalid("News card needs an image URL, a title and a summary.")
		}
	case GridCustom:
		if value.Offset < 0 || value.AfterNth < 0 || value.Limit < 0 {
			return invalid("Grid offset and limit cannot be negative.")
		}
	case TopCustom:
		for _, name := range ZoneOrder {
			zone := value.Zone(name)
			if zone.TimeWindowHours < 0 {
				return invalid("Zone %s has a negative time window.", name)
			}
			if zone.SortBy != "" && zone.SortBy != SortPublishedAt && zone.SortBy != SortPriority {
				return invalid("Zone %s has an unknown sort order.", name)
			}
		}
	}
	return nil
}

func translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: "Invalid section."}
	}
	fe := fieldErrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Record.")
	switch fe.Tag() {
	case "required":
		return invalid("%s is required.", field)
	case "oneof":
		return invalid("%s must be one of: %s.", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return invalid("%s must be at least %s.", field, fe.Param())
	case "lte", "max":
		return invalid("%s must be at most %s.", field, fe.Param())
	}
	return invalid("%s is invalid.", field)
}
