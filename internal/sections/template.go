package sections

import "strings"

// Family groups templates that share a renderer shape and a custom payload.
type Family string

const (
	FamilyList     Family = "list"
	FamilyHero     Family = "hero"
	FamilyFeature  Family = "feature"
	FamilyMain     Family = "main"
	FamilyRail     Family = "rail"
	FamilyPromo    Family = "promo"
	FamilyNewsCard Family = "news_card"
	FamilyTop      Family = "top"
	FamilyAd       Family = "ad"
)

// TemplateID is a key of the closed template catalog.
type TemplateID string

const (
	TemplateUnknown TemplateID = ""

	TemplateList         TemplateID = "list_v1"
	TemplateHeroV1       TemplateID = "hero_v1"
	TemplateHeroV2       TemplateID = "hero_v2"
	TemplateFeatureV1    TemplateID = "feature_v1"
	TemplateFeatureV2    TemplateID = "feature_v2"
	TemplateMainV1       TemplateID = "main_v1"
	TemplateMainV2       TemplateID = "main_v2"
	TemplateMainV3       TemplateID = "main_v3"
	TemplateMainV4       TemplateID = "main_v4"
	TemplateRailV1       TemplateID = "rail_v1"
	TemplateRailV2       TemplateID = "rail_v2"
	TemplateRailV3       TemplateID = "rail_v3"
	TemplateRailV4       TemplateID = "rail_v4"
	TemplateRailPromo    TemplateID = "rail_promo_v1"
	TemplateRailNewsCard TemplateID = "rail_news_card_v1"
	TemplateTopV1        TemplateID = "top_v1"
	TemplateTopV2        TemplateID = "top_v2"
	TemplateAdLeader     TemplateID = "ad_leaderboard"
	TemplateAdRail       TemplateID = "ad_rail"
	TemplateAdInline     TemplateID = "ad_inline"
)

type catalogEntry struct {
	family Family
	single bool
}

var catalog = map[TemplateID]catalogEntry{
	TemplateList:         {family: FamilyList},
	TemplateHeroV1:       {family: FamilyHero, single: true},
	TemplateHeroV2:       {family: FamilyHero, single: true},
	TemplateFeatureV1:    {family: FamilyFeature, single: true},
	TemplateFeatureV2:    {family: FamilyFeature, single: true},
	TemplateMainV1:       {family: FamilyMain},
	TemplateMainV2:       {family: FamilyMain},
	TemplateMainV3:       {family: FamilyMain},
	TemplateMainV4:       {family: FamilyMain},
	TemplateRailV1:       {family: FamilyRail},
	TemplateRailV2:       {family: FamilyRail},
	TemplateRailV3:       {family: FamilyRail},
	TemplateRailV4:       {family: FamilyRail},
	TemplateRailPromo:    {family: FamilyPromo, single: true},
	TemplateRailNewsCard: {family: FamilyNewsCard, single: true},
	TemplateTopV1:        {family: FamilyTop},
	TemplateTopV2:        {family: FamilyTop},
	TemplateAdLeader:     {family: FamilyAd, single: true},
	TemplateAdRail:       {family: FamilyAd, single: true},
	TemplateAdInline:     {family: FamilyAd, single: true},
}

// Template is a configured template name resolved against the catalog.
// ID is TemplateUnknown when the name is not in the catalog; such templates
// render with the list renderer and keep their name.
type Template struct {
	ID   TemplateID
	Name string
}

// NormalizeTemplate lower-cases the identifier and replaces hyphens with underscores.
func NormalizeTemplate(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
}

func ResolveTemplate(raw string) Template {
	name := NormalizeTemplate(raw)
	if _, ok := catalog[TemplateID(name)]; ok {
		return Template{ID: TemplateID(name), Name: name}
	}
	return Template{ID: TemplateUnknown, Name: name}
}

func (t Template) Known() bool {
	return t.ID != TemplateUnknown
}

// Family reports the template family; unknown templates behave as lists.
func (t Template) Family() Family {
	if entry, ok := catalog[t.ID]; ok {
		return entry.family
	}
	return FamilyList
}

func (t Template) SingleCapacity() bool {
	return catalog[t.ID].single
}

func (t Template) String() string {
	return t.Name
}

// IsRail reports whether sections with this template render into a side column.
func (t Template) IsRail() bool {
	switch t.Family() {
	case FamilyRail, FamilyPromo, FamilyNewsCard:
		return true
	}
	return t.ID == TemplateAdRail
}

// Catalog lists every known template id in a stable order.
func Catalog() []TemplateID {
	return []TemplateID{
		TemplateList,
		TemplateHeroV1, TemplateHeroV2,
		TemplateFeatureV1, TemplateFeatureV2,
		TemplateMainV1, TemplateMainV2, TemplateMainV3, TemplateMainV4,
		TemplateRailV1, TemplateRailV2, TemplateRailV3, TemplateRailV4,
		TemplateRailPromo, TemplateRailNewsCard,
		TemplateTopV1, TemplateTopV2,
		TemplateAdLeader, TemplateAdRail, TemplateAdInline,
	}
}
