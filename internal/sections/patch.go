package sections

// Patch is a partial section update. Nil fields are left unchanged.
type Patch struct {
	Title          *string         `json:"title,omitempty"`
	Slug           *string         `json:"slug,omitempty"`
	Template       *string         `json:"template,omitempty"`
	Capacity       *int            `json:"capacity,omitempty"`
	Target         *Target         `json:"target,omitempty"`
	Feed           *Feed           `json:"feed,omitempty"`
	Pins           *[]Pin          `json:"pins,omitempty"`
	Custom         *map[string]any `json:"custom,omitempty"`
	Enabled        *bool           `json:"enabled,omitempty"`
	PlacementIndex *int            `json:"placementIndex,omitempty"`
	Side           *string         `json:"side,omitempty"`
}

func (p Patch) Empty() bool {
	return p == Patch{}
}

// PlacementOnly reports a patch limited to enabled and placementIndex, the
// fields toggled and swapped from the listing.
func (p Patch) PlacementOnly() bool {
	rest := p
	rest.Enabled = nil
	rest.PlacementIndex = nil
	return !p.Empty() && rest.Empty()
}

// TouchesCustom reports whether the custom payload has to be decoded again.
func (p Patch) TouchesCustom() bool {
	return p.Template != nil || p.Custom != nil
}

// Apply merges the patch into r. Changing the template without sending a
// custom payload resets custom, since the old payload belongs to another family.
// Moving off a rail template without sending a side clears the side.
func (p Patch) Apply(r Record) Record {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Slug != nil {
		r.Slug = *p.Slug
	}
	if p.Template != nil {
		next := NormalizeTemplate(*p.Template)
		if p.Custom == nil && ResolveTemplate(next).Family() != ResolveTemplate(r.Template).Family() {
			r.Custom = map[string]any{}
		}
		if p.Side == nil && !ResolveTemplate(next).IsRail() {
			r.Side = ""
		}
		r.Template = next
	}
	if p.Capacity != nil {
		r.Capacity = *p.Capacity
	}
	if p.Target != nil {
		r.Target = *p.Target
	}
	if p.Feed != nil {
		r.Feed = *p.Feed
	}
	if p.Pins != nil {
		r.Pins = append([]Pin{}, (*p.Pins)...)
	}
	if p.Custom != nil {
		r.Custom = *p.Custom
	}
	if p.Enabled != nil {
		r.Enabled = *p.Enabled
	}
	if p.PlacementIndex != nil {
		r.PlacementIndex = *p.PlacementIndex
	}
	if p.Side != nil {
		r.Side = *p.Side
	}
	return r
}

// FullPatch sets every editable field of r. Identity and timestamps are not part of it.
func FullPatch(r Record) Patch {
	pins := append([]Pin{}, r.Pins...)
	custom := r.Custom
	if custom == nil {
		custom = map[string]any{}
	}
	return Patch{
		Title:          &r.Title,
		Slug:           &r.Slug,
		Template:       &r.Template,
		Capacity:       &r.Capacity,
		Target:         &r.Target,
		Feed:           &r.Feed,
		Pins:           &pins,
		Custom:         &custom,
		Enabled:        &r.Enabled,
		PlacementIndex: &r.PlacementIndex,
		Side:           &r.Side,
	}
}
