// Package articles holds the canonical article shape used by section rendering
// and the client for the upstream content API that owns articles.
package articles

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/k3a/html2text"
)

// Article is the canonical, read-only copy of an upstream article.
type Article struct {
	Key         string     `json:"key"`
	ID          string     `json:"id,omitempty"`
	Slug        string     `json:"slug,omitempty"`
	URL         string     `json:"url,omitempty"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Category    string     `json:"category,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Priority    int        `json:"priority,omitempty"`
}

// RawArticle is an article as the upstream API sends it. Field spellings vary
// between upstream versions, so several aliases are accepted.
type RawArticle struct {
	ID           json.RawMessage `json:"id"`
	MongoID      string          `json:"_id"`
	Slug         string          `json:"slug"`
	URL          string          `json:"url"`
	GUID         string          `json:"guid"`
	Title        string          `json:"title"`
	Summary      string          `json:"summary"`
	Excerpt      string          `json:"excerpt"`
	ImageURL     string          `json:"imageUrl"`
	Cover        json.RawMessage `json:"cover"`
	ThumbnailURL string          `json:"thumbnailUrl"`
	Category     json.RawMessage `json:"category"`
	PublishedAt  string          `json:"publishedAt"`
	Priority     int             `json:"priority"`
}

// Normalize maps an upstream article onto the canonical shape. This is the
// only place alias fields are consulted.
func Normalize(raw RawArticle) Article {
	id := scalarString(raw.ID)
	a := Article{
		ID:       firstNonEmpty(id, raw.MongoID),
		Slug:     strings.TrimSpace(raw.Slug),
		URL:      strings.TrimSpace(raw.URL),
		Title:    strings.TrimSpace(raw.Title),
		Summary:  plainText(firstNonEmpty(raw.Summary, raw.Excerpt)),
		ImageURL: firstNonEmpty(raw.ImageURL, objectField(raw.Cover, "url"), raw.ThumbnailURL),
		Category: firstNonEmpty(objectField(raw.Category, "name"), objectField(raw.Category, "slug")),
		Priority: raw.Priority,
	}
	a.Key = firstNonEmpty(id, raw.MongoID, raw.Slug, raw.URL, raw.GUID)
	if published, ok := parseTime(raw.PublishedAt); ok {
		a.PublishedAt = &published
	}
	return a
}

func NormalizeAll(raws []RawArticle) []Article {
	items := make([]Article, 0, len(raws))
	for _, raw := range raws {
		items = append(items, Normalize(raw))
	}
	return items
}

// Matches reports whether ref names this article by any of its identities.
func (a Article) Matches(ref string) bool {
	if ref == "" {
		return false
	}
	return ref == a.Key || ref == a.ID || ref == a.Slug
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// scalarString accepts a JSON string or number.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}
	return ""
}

// objectField accepts either a bare string or an object holding field.
func objectField(raw json.RawMessage, field string) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if value, ok := obj[field].(string); ok {
		return value
	}
	return ""
}

func plainText(value string) string {
	if !strings.ContainsAny(value, "<&") {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(html2text.HTML2Text(value))
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}
