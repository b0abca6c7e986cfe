package feed

import (
	"testing"

	"newsdesk-sections/internal/articles"
	"newsdesk-sections/internal/sections"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	canonical := list("lead", "a", "b", "c", "d", "e")

	tests := []struct {
		name string
		opts WindowOptions
		want []string
	}{
		{"whole list", WindowOptions{}, []string{"lead", "a", "b", "c", "d", "e"}},
		{"offset and limit", WindowOptions{Offset: 1, Limit: 3}, []string{"a", "b", "c"}},
		{"limit past end", WindowOptions{Offset: 4, Limit: 5}, []string{"d", "e"}},
		{"offset past end", WindowOptions{Offset: 10, Limit: 2}, []string{}},
		{"negative offset", WindowOptions{Offset: -3, Limit: 2}, []string{"lead", "a"}},
		{"skip lead tops up", WindowOptions{Offset: 0, Limit: 3, SkipLead: true}, []string{"a", "b", "c"}},
		{"skip lead outside window", WindowOptions{Offset: 2, Limit: 2, SkipLead: true}, []string{"b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keys(Window(canonical, tt.opts)))
		})
	}
}

func TestWindowSkipLeadRemovesRepeatsOfLead(t *testing.T) {
	canonical := list("lead", "a", "lead", "b", "c")
	got := Window(canonical, WindowOptions{Offset: 1, Limit: 3, SkipLead: true})
	assert.Equal(t, []string{"a", "b", "c"}, keys(got))
}

func TestSameItemIgnoresMissingKeys(t *testing.T) {
	assert.False(t, SameItem(articles.Article{Title: "x"}, articles.Article{Title: "x"}))
	assert.True(t, SameItem(article("1"), article("1")))
	assert.False(t, SameItem(article("1"), article("2")))
}

func TestResolveListKeepsKeylessItems(t *testing.T) {
	src := newFakeSource()
	src.results = func(articles.Query) []articles.Article {
		return []articles.Article{{Title: "one"}, {Title: "two"}, article("k"), article("k")}
	}
	result, err := resolver(src).Resolve(t.Context(), section("rail_v3", 5, feedAuto()))
	if assert.NoError(t, err) {
		assert.Len(t, result.Items, 3)
	}
}

func feedAuto() sections.Feed {
	return sections.Feed{Mode: sections.ModeAuto}
}
