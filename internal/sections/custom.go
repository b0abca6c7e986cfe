package sections

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// Custom is the template-specific part of a section configuration.
type Custom interface {
	Family() Family
}

// NoCustom is used by families that take no custom keys.
type NoCustom struct {
	family Family
}

func (c NoCustom) Family() Family { return c.family }

// GridCustom windows a canonical list for main grid templates.
type GridCustom struct {
	Offset   int  `json:"offset,omitempty"`
	AfterNth int  `json:"afterNth,omitempty"`
	Limit    int  `json:"limit,omitempty"`
	SkipLead bool `json:"skipLead,omitempty"`
}

func (GridCustom) Family() Family { return FamilyMain }

// StartOffset returns offset, falling back to its afterNth alias.
func (g GridCustom) StartOffset() int {
	if g.Offset > 0 {
		return g.Offset
	}
	return g.AfterNth
}

// Windowed reports whether the grid reads a slice of a canonical list.
func (g GridCustom) Windowed() bool {
	return g.StartOffset() > 0 || g.Limit > 0 || g.SkipLead
}

type PromoCustom struct {
	ImageURL string `json:"imageUrl"`
	Alt      string `json:"alt,omitempty"`
	Link     string `json:"link,omitempty"`
	Aspect   string `json:"aspect,omitempty"`
}

func (PromoCustom) Family() Family { return FamilyPromo }

var promoAspects = map[string]bool{"16:9": true, "4:3": true, "1:1": true, "3:4": true}

const DefaultPromoAspect = "16:9"

type NewsCardCustom struct {
	ImageURL string `json:"imageUrl"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Link     string `json:"link,omitempty"`
}

func (NewsCardCustom) Family() Family { return FamilyNewsCard }

// ZoneName identifies a sub-slot of a composite top template.
type ZoneName string

const (
	ZoneTopStrip     ZoneName = "topStrip"
	ZoneLead         ZoneName = "lead"
	ZoneRightStack   ZoneName = "rightStack"
	ZoneFreshStories ZoneName = "freshStories"
	ZonePopular      ZoneName = "popular"
)

// ZoneOrder is the declared precedence used for cross-zone dedupe.
var ZoneOrder = []ZoneName{ZoneTopStrip, ZoneLead, ZoneRightStack, ZoneFreshStories, ZonePopular}

var defaultZoneLimits = map[ZoneName]int{
	ZoneTopStrip:     4,
	ZoneLead:         1,
	ZoneRightStack:   4,
	ZoneFreshStories: 6,
	ZonePopular:      5,
}

type ZoneQuery struct {
	Categories      []string `json:"categories,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	SortBy          SortBy   `json:"sortBy,omitempty"`
	TimeWindowHours int      `json:"timeWindowHours,omitempty"`
	Limit           int      `json:"limit,omitempty"`
}

type TopZones struct {
	TopStrip     *ZoneQuery `json:"topStrip,omitempty"`
	Lead         *ZoneQuery `json:"lead,omitempty"`
	RightStack   *ZoneQuery `json:"rightStack,omitempty"`
	FreshStories *ZoneQuery `json:"freshStories,omitempty"`
	Popular      *ZoneQuery `json:"popular,omitempty"`
}

type TopCustom struct {
	DedupeAcrossZones bool     `json:"dedupeAcrossZones,omitempty"`
	Zones             TopZones `json:"zones"`
}

func (TopCustom) Family() Family { return FamilyTop }

// Zone returns the configured query for a zone with its limit defaulted.
func (c TopCustom) Zone(name ZoneName) ZoneQuery {
	var configured *ZoneQuery
	switch name {
	case ZoneTopStrip:
		configured = c.Zones.TopStrip
	case ZoneLead:
		configured = c.Zones.Lead
	case ZoneRightStack:
		configured = c.Zones.RightStack
	case ZoneFreshStories:
		configured = c.Zones.FreshStories
	case ZonePopular:
		configured = c.Zones.Popular
	}
	zone := ZoneQuery{}
	if configured != nil {
		zone = *configured
	}
	if zone.Limit <= 0 {
		zone.Limit = defaultZoneLimits[name]
	}
	return zone
}

type AdCustom struct {
	SlotID string `json:"slotId,omitempty"`
	Size   string `json:"size,omitempty"`
}

func (AdCustom) Family() Family { return FamilyAd }

// RawCustom carries the custom object of a template outside the catalog verbatim.
type RawCustom map[string]any

func (RawCustom) Family() Family { return FamilyList }

// wholeNumbers rejects a fractional JSON number bound for an integer field.
func wholeNumbers(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float64 && from.Kind() != reflect.Float32 {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f := reflect.ValueOf(data).Float()
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not a whole number", f)
		}
	}
	return data, nil
}

// DecodeCustom builds the custom variant for a template. With strict set,
// keys the variant does not declare are rejected.
func DecodeCustom(t Template, raw map[string]any, strict bool) (Custom, error) {
	if !t.Known() {
		if len(raw) == 0 {
			return NoCustom{family: FamilyList}, nil
		}
		return RawCustom(raw), nil
	}
	var target Custom
	switch t.Family() {
	case FamilyMain:
		target = &GridCustom{}
	case FamilyPromo:
		target = &PromoCustom{}
	case FamilyNewsCard:
		target = &NewsCardCustom{}
	case FamilyTop:
		target = &TopCustom{}
	case FamilyAd:
		target = &AdCustom{}
	default:
		if strict && len(raw) > 0 {
			return NoCustom{family: t.Family()}, fmt.Errorf("template %s does not accept custom fields", t.Name)
		}
		return NoCustom{family: t.Family()}, nil
	}
	config := &mapstructure.DecoderConfig{
		TagName:     "json",
		ErrorUnused: strict,
		Result:      target,
	}
	if strict {
		config.DecodeHook = wholeNumbers
	}
	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := decoder.Decode(raw); err != nil {
			return NoCustom{family: t.Family()}, fmt.Errorf("invalid custom for %s: %w", t.Name, err)
		}
	}
	switch value := target.(type) {
	case *GridCustom:
		return *value, nil
	case *PromoCustom:
		if value.Aspect == "" {
			value.Aspect = DefaultPromoAspect
		}
		return *value, nil
	case *NewsCardCustom:
		return *value, nil
	case *TopCustom:
		return *value, nil
	case *AdCustom:
		return *value, nil
	}
	return NoCustom{family: t.Family()}, nil
}

// CustomMap renders a custom variant as a plain JSON object; it is never nil.
func CustomMap(c Custom) map[string]any {
	out := map[string]any{}
	switch value := c.(type) {
	case nil, NoCustom:
		return out
	case RawCustom:
		for k, v := range value {
			out[k] = v
		}
		return out
	}
	data, err := json.Marshal(c)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}
