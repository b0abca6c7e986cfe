// Package templates maps section templates to their HTML renderers.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"newsdesk-sections/internal/articles"
	"newsdesk-sections/internal/sections"
)

//go:embed html/*.tmpl
var htmlFiles embed.FS

// View is everything a renderer needs for one section.
type View struct {
	Section sections.Section
	Items   []articles.Article
	Zones   map[sections.ZoneName][]articles.Article
}

type Renderer interface {
	Name() string
	Render(w io.Writer, view View) error
}

type htmlRenderer struct {
	name    string
	def     string
	columns int
	set     *template.Template
}

type renderData struct {
	View
	Template string
	Columns  int
	Lead     *articles.Article
	Rest     []articles.Article
	Promo    sections.PromoCustom
	NewsCard sections.NewsCardCustom
	Ad       sections.AdCustom
}

func (r htmlRenderer) Name() string { return r.name }

func (r htmlRenderer) Render(w io.Writer, view View) error {
	data := renderData{View: view, Template: r.name, Columns: r.columns, Rest: view.Items}
	if len(view.Items) > 0 {
		lead := view.Items[0]
		data.Lead = &lead
		data.Rest = view.Items[1:]
	}
	switch custom := view.Section.Custom.(type) {
	case sections.PromoCustom:
		data.Promo = custom
	case sections.NewsCardCustom:
		data.NewsCard = custom
	case sections.AdCustom:
		data.Ad = custom
	}
	if err := r.set.ExecuteTemplate(w, r.def, data); err != nil {
		return fmt.Errorf("render %s: %w", r.name, err)
	}
	return nil
}

// Registry resolves templates to renderers. Unknown templates get the list renderer.
type Registry struct {
	set       *template.Template
	renderers map[sections.TemplateID]Renderer
	fallback  Renderer
}

func NewRegistry() (*Registry, error) {
	set, err := template.New("sections").Funcs(funcs).ParseFS(htmlFiles, "html/*.tmpl")
	if err != nil {
		return nil, err
	}
	r := &Registry{set: set, renderers: map[sections.TemplateID]Renderer{}}
	add := func(id sections.TemplateID, def string, columns int) {
		r.renderers[id] = htmlRenderer{name: string(id), def: def, columns: columns, set: set}
	}
	add(sections.TemplateList, "list", 1)
	add(sections.TemplateHeroV1, "hero", 1)
	add(sections.TemplateHeroV2, "hero_overlay", 1)
	add(sections.TemplateFeatureV1, "feature", 1)
	add(sections.TemplateFeatureV2, "feature_split", 1)
	add(sections.TemplateMainV1, "grid", 2)
	add(sections.TemplateMainV2, "grid", 3)
	add(sections.TemplateMainV3, "grid", 4)
	add(sections.TemplateMainV4, "lead_grid", 3)
	add(sections.TemplateRailV1, "rail_numbered", 1)
	add(sections.TemplateRailV2, "rail_thumbs", 1)
	add(sections.TemplateRailV3, "rail_headlines", 1)
	add(sections.TemplateRailV4, "rail_compact", 1)
	add(sections.TemplateRailPromo, "promo", 1)
	add(sections.TemplateRailNewsCard, "news_card", 1)
	add(sections.TemplateTopV1, "top", 3)
	add(sections.TemplateTopV2, "top", 2)
	add(sections.TemplateAdLeader, "ad", 1)
	add(sections.TemplateAdRail, "ad", 1)
	add(sections.TemplateAdInline, "ad", 1)
	r.fallback = r.renderers[sections.TemplateList]
	return r, nil
}

// MustRegistry panics when the embedded templates fail to parse.
func MustRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup normalizes a template identifier and returns its renderer.
func (r *Registry) Lookup(name string) Renderer {
	return r.For(sections.ResolveTemplate(name))
}

// For returns the renderer of an already resolved template.
func (r *Registry) For(t sections.Template) Renderer {
	if renderer, ok := r.renderers[t.ID]; ok {
		return renderer
	}
	return r.fallback
}

var funcs = template.FuncMap{
	"zone": func(zones map[sections.ZoneName][]articles.Article, name string) []articles.Article {
		return zones[sections.ZoneName(name)]
	},
	"inc": func(i int) int { return i + 1 },
	"aspectClass": func(aspect string) string {
		return "aspect-" + strings.ReplaceAll(aspect, ":", "x")
	},
	"date": func(a articles.Article) string {
		if a.PublishedAt == nil {
			return ""
		}
		return a.PublishedAt.Format("2 Jan 2006")
	},
	"href": func(a articles.Article) string {
		if a.URL != "" {
			return a.URL
		}
		if a.Slug != "" {
			return "/articles/" + a.Slug
		}
		return "#"
	},
}
