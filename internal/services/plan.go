package services

import (
	"context"
	"time"

	"newsdesk-sections/internal/articles"
	"newsdesk-sections/internal/feed"
	"newsdesk-sections/internal/sections"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultPlanConcurrency = 4

// PlanEntry is one resolved section of a render plan.
type PlanEntry struct {
	Section sections.Section                         `json:"section"`
	Items   []articles.Article                       `json:"items"`
	Zones   map[sections.ZoneName][]articles.Article `json:"zones,omitempty"`
}

// Plan is the ordered, pre-resolved list of enabled sections of a page.
type Plan struct {
	Target      sections.Target `json:"target"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Sections    []PlanEntry     `json:"sections"`
}

type PlanConfig struct {
	CacheTTL    time.Duration
	Concurrency int
}

type PlanBuilder struct {
	store       Store
	resolver    *feed.Resolver
	cache       *cache.Cache
	concurrency int
	metrics     *Metrics
	log         *zap.Logger
	now         func() time.Time
}

func NewPlanBuilder(store Store, resolver *feed.Resolver, cfg PlanConfig, metrics *Metrics, log *zap.Logger) *PlanBuilder {
	b := &PlanBuilder{
		store:       store,
		resolver:    resolver,
		concurrency: cfg.Concurrency,
		metrics:     metrics,
		log:         log,
		now:         time.Now,
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.concurrency < 1 {
		b.concurrency = defaultPlanConcurrency
	}
	if cfg.CacheTTL > 0 {
		b.cache = cache.New(cfg.CacheTTL, cfg.CacheTTL*2)
	}
	return b
}

// ParseTarget validates the page target of a plan request.
func ParseTarget(sectionType, value string) (sections.Target, error) {
	if sectionType == "" {
		sectionType = string(sections.TargetHomepage)
	}
	kind, ok := sections.ParseTargetType(sectionType)
	if !ok {
		return sections.Target{}, ErrBadRequest("sectionType must be one of: homepage, path, category.")
	}
	target := sections.Target{Type: kind, Value: value}
	if kind == sections.TargetHomepage {
		target.Value = ""
	} else if target.Value == "" {
		return sections.Target{}, ErrBadRequest("value is required for " + string(kind) + " pages.")
	}
	return target, nil
}

// Build resolves every enabled section of target in placement order. A section
// whose feed cannot be resolved is kept with no items. Preview plans skip the cache.
func (b *PlanBuilder) Build(ctx context.Context, target sections.Target, preview bool) (Plan, error) {
	key := target.Key()
	switch {
	case preview || b.cache == nil:
		b.metrics.ObservePlanCache("bypass")
	default:
		if cached, ok := b.cache.Get(key); ok {
			b.metrics.ObservePlanCache("hit")
			return cached.(Plan), nil
		}
		b.metrics.ObservePlanCache("miss")
	}

	start := time.Now()
	list, err := b.store.ListSections(ctx, SectionFilter{Target: &target, EnabledOnly: true})
	if err != nil {
		return Plan{}, WrapError(err, "list sections")
	}
	sections.Sort(list)

	entries := make([]PlanEntry, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, section := range list {
		g.Go(func() error {
			result, err := b.resolver.Resolve(gctx, section)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				b.log.Warn("section feed unavailable",
					zap.String("section", section.ID),
					zap.String("template", section.Template.Name),
					zap.Error(err))
				result = feed.Result{}
			}
			if result.Items == nil {
				result.Items = []articles.Article{}
			}
			entries[i] = PlanEntry{Section: section, Items: result.Items, Zones: result.Zones}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Plan{}, err
	}

	plan := Plan{Target: target, GeneratedAt: b.now().UTC(), Sections: entries}
	b.metrics.ObservePlanBuild(time.Since(start))
	if !preview && b.cache != nil {
		b.cache.SetDefault(key, plan)
	}
	return plan, nil
}

// Invalidate drops every cached plan.
func (b *PlanBuilder) Invalidate() {
	if b.cache != nil {
		b.cache.Flush()
	}
}
