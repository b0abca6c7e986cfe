package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"newsdesk-sections/internal/articles"
	"newsdesk-sections/internal/feed"
	"newsdesk-sections/internal/sections"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]bool
}

func (s *stubSource) Query(ctx context.Context, q articles.Query) ([]articles.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, category := range q.Categories {
		if s.failFor[category] {
			return nil, &articles.StatusError{Status: http.StatusServiceUnavailable, Body: "down"}
		}
	}
	items := []articles.Article{}
	for i := 0; i < q.Limit; i++ {
		key := string(rune('a' + i))
		items = append(items, articles.Article{Key: key, Title: key})
	}
	return items, nil
}

func (s *stubSource) Lookup(context.Context, []string) (map[string]articles.Article, error) {
	return map[string]articles.Article{}, nil
}

func (s *stubSource) queryCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestPlanner(t *testing.T, ttl time.Duration) (*PlanBuilder, *SectionService, *stubSource) {
	t.Helper()
	svc, store, _ := newTestService(t)
	source := &stubSource{failFor: map[string]bool{}}
	resolver := feed.NewResolver(source).WithClock(func() time.Time { return fixedNow })
	planner := NewPlanBuilder(store, resolver, PlanConfig{CacheTTL: ttl, Concurrency: 2}, NewMetrics(), zap.NewNop())
	planner.now = func() time.Time { return fixedNow }
	svc.OnChange(func(ChangeEvent) { planner.Invalidate() })
	return planner, svc, source
}

func entryTitles(plan Plan) []string {
	out := []string{}
	for _, entry := range plan.Sections {
		out = append(out, entry.Section.Title)
	}
	return out
}

func TestPlanOrdersAndExcludesDisabled(t *testing.T) {
	planner, svc, _ := newTestPlanner(t, 0)
	ctx := t.Context()

	_, err := svc.Create(ctx, homepageRecord("Second", "main_v1", 5))
	require.NoError(t, err)
	_, err = svc.Create(ctx, homepageRecord("First", "hero_v1", 0))
	require.NoError(t, err)
	hidden := homepageRecord("Hidden", "list_v1", 1)
	hidden.Enabled = false
	_, err = svc.Create(ctx, hidden)
	require.NoError(t, err)
	elsewhere := homepageRecord("Elsewhere", "list_v1", 0)
	elsewhere.Target = sections.Target{Type: sections.TargetPath, Value: "/sport"}
	_, err = svc.Create(ctx, elsewhere)
	require.NoError(t, err)

	plan, err := planner.Build(ctx, sections.Target{Type: sections.TargetHomepage}, false)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"First", "Second"}, entryTitles(plan)); diff != "" {
		t.Fatalf("plan order mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, plan.Sections[0].Items, 1)
	assert.Len(t, plan.Sections[1].Items, 4)
	assert.Equal(t, fixedNow, plan.GeneratedAt)
}

func TestPlanCacheHitAndInvalidation(t *testing.T) {
	planner, svc, source := newTestPlanner(t, time.Minute)
	ctx := t.Context()
	home := sections.Target{Type: sections.TargetHomepage}

	created, err := svc.Create(ctx, homepageRecord("Grid", "main_v1", 0))
	require.NoError(t, err)

	_, err = planner.Build(ctx, home, false)
	require.NoError(t, err)
	_, err = planner.Build(ctx, home, false)
	require.NoError(t, err)
	assert.Equal(t, 1, source.queryCalls())

	_, err = planner.Build(ctx, home, true)
	require.NoError(t, err)
	assert.Equal(t, 2, source.queryCalls())

	disabled := false
	_, err = svc.Update(ctx, created.ID, sections.Patch{Enabled: &disabled})
	require.NoError(t, err)
	plan, err := planner.Build(ctx, home, false)
	require.NoError(t, err)
	assert.Empty(t, plan.Sections)
}

func TestPlanRendersFailedSectionEmpty(t *testing.T) {
	planner, svc, source := newTestPlanner(t, 0)
	ctx := t.Context()
	source.failFor["politics"] = true

	broken := homepageRecord("Politics", "main_v1", 0)
	broken.Feed.Categories = []string{"politics"}
	_, err := svc.Create(ctx, broken)
	require.NoError(t, err)
	_, err = svc.Create(ctx, homepageRecord("Latest", "list_v1", 1))
	require.NoError(t, err)

	plan, err := planner.Build(ctx, sections.Target{Type: sections.TargetHomepage}, false)
	require.NoError(t, err)
	require.Len(t, plan.Sections, 2)
	assert.NotNil(t, plan.Sections[0].Items)
	assert.Empty(t, plan.Sections[0].Items)
	assert.Len(t, plan.Sections[1].Items, 4)
}

func TestPlanCancelledContext(t *testing.T) {
	planner, svc, _ := newTestPlanner(t, 0)
	_, err := svc.Create(t.Context(), homepageRecord("Grid", "main_v1", 0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = planner.Build(ctx, sections.Target{Type: sections.TargetHomepage}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseTarget(t *testing.T) {
	home, err := ParseTarget("", "ignored")
	require.NoError(t, err)
	assert.Equal(t, sections.Target{Type: sections.TargetHomepage}, home)

	category, err := ParseTarget("Category", "world")
	require.NoError(t, err)
	assert.Equal(t, sections.Target{Type: sections.TargetCategory, Value: "world"}, category)

	_, err = ParseTarget("path", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	_, err = ParseTarget("tag", "x")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}
