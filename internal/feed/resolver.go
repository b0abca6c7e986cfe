// Package feed turns a section's feed configuration and pins into the ordered
// list of articles its template renders.
package feed

import (
	"context"
	"fmt"
	"time"

	"newsdesk-sections/internal/articles"
	"newsdesk-sections/internal/sections"

	"golang.org/x/sync/errgroup"
)

// Source is the read-only article backend a resolver draws from.
type Source interface {
	Query(ctx context.Context, q articles.Query) ([]articles.Article, error)
	Lookup(ctx context.Context, ids []string) (map[string]articles.Article, error)
}

// Result is the resolved content of one section. Zones is only set for
// composite templates.
type Result struct {
	Items []articles.Article                        `json:"items"`
	Zones map[sections.ZoneName][]articles.Article `json:"zones,omitempty"`
}

type Resolver struct {
	source Source
	now    func() time.Time
}

func NewResolver(source Source) *Resolver {
	return &Resolver{source: source, now: time.Now}
}

// WithClock returns a copy of the resolver that evaluates pin windows against now.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	return &Resolver{source: r.source, now: now}
}

func (r *Resolver) Resolve(ctx context.Context, s sections.Section) (Result, error) {
	switch s.Template.Family() {
	case sections.FamilyAd:
		return Result{Items: []articles.Article{}}, nil
	case sections.FamilyTop:
		custom, _ := s.Custom.(sections.TopCustom)
		zones, err := r.resolveZones(ctx, s, custom)
		if err != nil {
			return Result{}, err
		}
		return Result{Items: []articles.Article{}, Zones: zones}, nil
	case sections.FamilyMain:
		if grid, ok := s.Custom.(sections.GridCustom); ok && grid.Windowed() {
			return r.resolveWindow(ctx, s, grid)
		}
	}
	items, err := r.resolveList(ctx, s.Feed, s.Pins, s.EffectiveCapacity())
	if err != nil {
		return Result{}, err
	}
	return Result{Items: items}, nil
}

// resolveList applies the feed mode and truncates to limit after ordering.
func (r *Resolver) resolveList(ctx context.Context, f sections.Feed, pins []sections.Pin, limit int) ([]articles.Article, error) {
	mode := f.Mode.Effective()
	placed := []articles.Article{}
	seen := map[string]bool{}
	if mode == sections.ModeManual || mode == sections.ModeMixed {
		pinned, err := r.resolvePins(ctx, pins)
		if err != nil {
			return nil, err
		}
		placed = appendUnique(placed, seen, pinned, limit)
	}
	if mode == sections.ModeManual || len(placed) >= limit {
		return truncate(placed, limit), nil
	}
	auto, err := r.source.Query(ctx, queryFor(f, limit+len(placed)))
	if err != nil {
		return nil, fmt.Errorf("feed query: %w", err)
	}
	placed = appendUnique(placed, seen, auto, limit)
	return truncate(placed, limit), nil
}

// resolvePins returns the articles of pins active now, in pin order.
// Pins whose article no longer exists are dropped.
func (r *Resolver) resolvePins(ctx context.Context, pins []sections.Pin) ([]articles.Article, error) {
	now := r.now()
	ids := make([]string, 0, len(pins))
	for _, pin := range pins {
		if pin.ArticleID == "" || !pin.ActiveAt(now) {
			continue
		}
		ids = append(ids, pin.ArticleID)
	}
	if len(ids) == 0 {
		return []articles.Article{}, nil
	}
	found, err := r.source.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("pin lookup: %w", err)
	}
	items := make([]articles.Article, 0, len(ids))
	for _, id := range ids {
		if article, ok := found[id]; ok {
			items = append(items, article)
		}
	}
	return items, nil
}

func (r *Resolver) resolveWindow(ctx context.Context, s sections.Section, grid sections.GridCustom) (Result, error) {
	limit := grid.Limit
	if limit <= 0 {
		limit = s.EffectiveCapacity()
	}
	offset := grid.StartOffset()
	canonical, err := r.resolveList(ctx, s.Feed, s.Pins, offset+limit+1)
	if err != nil {
		return Result{}, err
	}
	window := Window(canonical, WindowOptions{Offset: offset, Limit: limit, SkipLead: grid.SkipLead})
	return Result{Items: truncate(window, s.EffectiveCapacity())}, nil
}

func (r *Resolver) resolveZones(ctx context.Context, s sections.Section, custom sections.TopCustom) (map[sections.ZoneName][]articles.Article, error) {
	fetched := make([][]articles.Article, len(sections.ZoneOrder))
	limits := make([]int, len(sections.ZoneOrder))
	g, gctx := errgroup.WithContext(ctx)
	earlier := 0
	for i, name := range sections.ZoneOrder {
		zone := custom.Zone(name)
		limits[i] = zone.Limit
		fetchLimit := zone.Limit
		if custom.DedupeAcrossZones {
			// Enough extra rows to replace every item an earlier zone may claim.
			fetchLimit += earlier
		}
		earlier += zone.Limit
		f, pins := zoneFeed(s, custom, name, zone)
		g.Go(func() error {
			items, err := r.resolveList(gctx, f, pins, fetchLimit)
			if err != nil {
				return fmt.Errorf("zone %s: %w", name, err)
			}
			fetched[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	zones := make(map[sections.ZoneName][]articles.Article, len(sections.ZoneOrder))
	seen := map[string]bool{}
	for i, name := range sections.ZoneOrder {
		if !custom.DedupeAcrossZones {
			zones[name] = truncate(fetched[i], limits[i])
			continue
		}
		zones[name] = appendUnique([]articles.Article{}, seen, fetched[i], limits[i])
	}
	return zones, nil
}

// zoneFeed builds the feed of a zone. The lead zone follows the section's
// mode and pins; every other zone is an automatic query.
func zoneFeed(s sections.Section, custom sections.TopCustom, name sections.ZoneName, zone sections.ZoneQuery) (sections.Feed, []sections.Pin) {
	f := sections.Feed{
		Mode:            sections.ModeAuto,
		SortBy:          zone.SortBy,
		Categories:      zone.Categories,
		Tags:            zone.Tags,
		TimeWindowHours: zone.TimeWindowHours,
	}
	if name != sections.ZoneLead {
		return f, nil
	}
	if custom.Zones.Lead == nil {
		f.SortBy = s.Feed.SortBy
		f.Categories = s.Feed.Categories
		f.Tags = s.Feed.Tags
		f.TimeWindowHours = s.Feed.TimeWindowHours
	}
	f.Mode = s.Feed.Mode
	return f, s.Pins
}

func queryFor(f sections.Feed, limit int) articles.Query {
	return articles.Query{
		Categories:      f.Categories,
		Tags:            f.Tags,
		SortBy:          string(f.SortBy.Effective()),
		TimeWindowHours: f.TimeWindowHours,
		Limit:           limit,
	}
}

// appendUnique appends items whose key is not yet seen until dst holds limit items.
func appendUnique(dst []articles.Article, seen map[string]bool, items []articles.Article, limit int) []articles.Article {
	for _, item := range items {
		if len(dst) >= limit {
			break
		}
		if item.Key != "" {
			if seen[item.Key] {
				continue
			}
			seen[item.Key] = true
		}
		dst = append(dst, item)
	}
	return dst
}

func truncate(items []articles.Article, limit int) []articles.Article {
	if limit < 0 {
		limit = 0
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return append([]articles.Article{}, items...)
}
