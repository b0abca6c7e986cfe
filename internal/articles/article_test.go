package articles

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRaw(t *testing.T, payload string) RawArticle {
	t.Helper()
	var raw RawArticle
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return raw
}

func TestNormalizeIdentityPriority(t *testing.T) {
	tests := []struct {
		payload string
		key     string
	}{
		{`{"id":"1","_id":"m","slug":"s","url":"u","guid":"g"}`, "1"},
		{`{"id":42}`, "42"},
		{`{"_id":"m","slug":"s"}`, "m"},
		{`{"slug":"s","url":"u"}`, "s"},
		{`{"url":"https://x/y","guid":"g"}`, "https://x/y"},
		{`{"guid":"g"}`, "g"},
		{`{"title":"no identity"}`, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.key, Normalize(decodeRaw(t, tt.payload)).Key, tt.payload)
	}
}

func TestNormalizeImagePriority(t *testing.T) {
	assert.Equal(t, "a", Normalize(decodeRaw(t, `{"imageUrl":"a","cover":{"url":"b"},"thumbnailUrl":"c"}`)).ImageURL)
	assert.Equal(t, "b", Normalize(decodeRaw(t, `{"imageUrl":" ","cover":{"url":"b"},"thumbnailUrl":"c"}`)).ImageURL)
	assert.Equal(t, "b", Normalize(decodeRaw(t, `{"cover":"b","thumbnailUrl":"c"}`)).ImageURL)
	assert.Equal(t, "c", Normalize(decodeRaw(t, `{"cover":null,"thumbnailUrl":"c"}`)).ImageURL)
	assert.Empty(t, Normalize(decodeRaw(t, `{"title":"t"}`)).ImageURL)
}

func TestNormalizeSummaryAndCategory(t *testing.T) {
	a := Normalize(decodeRaw(t, `{"summary":"<p>Budget <b>vote</b> today</p>","category":"Politics"}`))
	assert.Equal(t, "Budget vote today", a.Summary)
	assert.Equal(t, "Politics", a.Category)

	b := Normalize(decodeRaw(t, `{"excerpt":"Plain","category":{"slug":"world"}}`))
	assert.Equal(t, "Plain", b.Summary)
	assert.Equal(t, "world", b.Category)
}

func TestNormalizePublishedAt(t *testing.T) {
	assert.NotNil(t, Normalize(decodeRaw(t, `{"publishedAt":"2026-04-01"}`)).PublishedAt)
	assert.Nil(t, Normalize(decodeRaw(t, `{"publishedAt":"yesterday"}`)).PublishedAt)
}
