package articles

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://content.example.com"

func newMockedClient(t *testing.T, ttl time.Duration) (*Client, map[string]int) {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	outcomes := map[string]int{}
	client := NewClient(Config{
		BaseURL:    testBaseURL + "/",
		CacheTTL:   ttl,
		HTTPClient: httpClient,
		Observe: func(op, outcome string) {
			outcomes[op+":"+outcome]++
		},
	})
	return client, outcomes
}

func TestQuerySendsFeedAndNormalizes(t *testing.T) {
	client, outcomes := newMockedClient(t, 0)

	var received Query
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/articles/query",
		func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(body, &received)
			return httpmock.NewStringResponse(http.StatusOK, `{"items":[
				{"_id":"m1","title":"First","cover":{"url":"https://img/1.jpg"},"publishedAt":"2026-02-01T10:00:00Z"},
				{"slug":"second","title":"Second","thumbnailUrl":"https://img/2.jpg","category":{"name":"World"}}
			]}`), nil
		})

	items, err := client.Query(t.Context(), Query{Categories: []string{"world"}, SortBy: "publishedAt", Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, []string{"world"}, received.Categories)
	assert.Equal(t, 2, received.Limit)

	assert.Equal(t, "m1", items[0].Key)
	assert.Equal(t, "https://img/1.jpg", items[0].ImageURL)
	require.NotNil(t, items[0].PublishedAt)
	assert.Equal(t, 2026, items[0].PublishedAt.Year())

	assert.Equal(t, "second", items[1].Key)
	assert.Equal(t, "https://img/2.jpg", items[1].ImageURL)
	assert.Equal(t, "World", items[1].Category)
	assert.Equal(t, 1, outcomes["query:ok"])
}

func TestQueryCachesResults(t *testing.T) {
	client, _ := newMockedClient(t, time.Minute)
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/articles/query",
		httpmock.NewStringResponder(http.StatusOK, `[{"id":"a","title":"A"}]`))

	q := Query{Tags: []string{"x"}, Limit: 1}
	_, err := client.Query(t.Context(), q)
	require.NoError(t, err)
	items, err := client.Query(t.Context(), q)
	require.NoError(t, err)

	assert.Equal(t, "a", items[0].Key)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestQueryNon2xx(t *testing.T) {
	client, outcomes := newMockedClient(t, 0)
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/articles/query",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "maintenance"))

	_, err := client.Query(t.Context(), Query{Limit: 3})
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
	assert.Equal(t, "maintenance", statusErr.Body)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, 1, outcomes["query:error"])
}

func TestNon2xxBodyIsClippedOnRuneBoundary(t *testing.T) {
	client, _ := newMockedClient(t, 0)
	body := "x" + strings.Repeat("é", maxErrorBody)
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/articles/query",
		httpmock.NewStringResponder(http.StatusBadGateway, body))

	_, err := client.Query(t.Context(), Query{Limit: 3})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, utf8.ValidString(statusErr.Body))
	assert.Len(t, statusErr.Body, maxErrorBody-1)
	assert.True(t, strings.HasPrefix(body, statusErr.Body))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "ab", clip("abc", 2))
	assert.Equal(t, "a", clip("aé", 2))
	assert.Equal(t, "", clip("日本", 2))
}

func TestLookupMatchesByAnyIdentity(t *testing.T) {
	client, _ := newMockedClient(t, 0)
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/articles/query",
		httpmock.NewStringResponder(http.StatusOK, `[{"id":"1","title":"One"},{"_id":"abc","slug":"two","title":"Two"}]`))

	found, err := client.Lookup(t.Context(), []string{"1", "two", "missing"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "One", found["1"].Title)
	assert.Equal(t, "abc", found["two"].Key)
	_, ok := found["missing"]
	assert.False(t, ok)
}

func TestLookupEmptySkipsUpstream(t *testing.T) {
	client, _ := newMockedClient(t, 0)
	found, err := client.Lookup(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestSearchAcceptsBothShapes(t *testing.T) {
	client, _ := newMockedClient(t, 0)

	httpmock.RegisterResponderWithQuery(http.MethodGet, testBaseURL+"/api/articles",
		map[string]string{"q": "budget", "limit": "5"},
		httpmock.NewStringResponder(http.StatusOK, `[{"id":"1","title":"Budget"}]`))
	httpmock.RegisterResponderWithQuery(http.MethodGet, testBaseURL+"/api/articles",
		map[string]string{"q": "election", "limit": "20"},
		httpmock.NewStringResponder(http.StatusOK, `{"items":[{"id":"2","title":"Election"},{"id":"3","title":"Poll"}]}`))

	bare, err := client.Search(t.Context(), "budget", 5)
	require.NoError(t, err)
	assert.Len(t, bare, 1)

	wrapped, err := client.Search(t.Context(), " election ", 0)
	require.NoError(t, err)
	assert.Len(t, wrapped, 2)
}

func TestSetCoverFlushesCache(t *testing.T) {
	client, _ := newMockedClient(t, time.Minute)
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/api/articles/query",
		httpmock.NewStringResponder(http.StatusOK, `[{"id":"a"}]`))

	var patched map[string]map[string]string
	httpmock.RegisterResponder(http.MethodPatch, testBaseURL+"/api/articles/a",
		func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(body, &patched)
			return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
		})

	q := Query{Limit: 1}
	_, err := client.Query(t.Context(), q)
	require.NoError(t, err)
	require.NoError(t, client.SetCover(t.Context(), "a", "https://img/new.jpg"))
	_, err = client.Query(t.Context(), q)
	require.NoError(t, err)

	assert.Equal(t, "https://img/new.jpg", patched["cover"]["url"])
	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 2, info["POST "+testBaseURL+"/api/articles/query"])
}

func TestDecodeList(t *testing.T) {
	raws, err := DecodeList([]byte(`  `))
	require.NoError(t, err)
	assert.Empty(t, raws)

	_, err = DecodeList([]byte(`{"data":[]}`))
	assert.Error(t, err)

	_, err = DecodeList([]byte(`{"items":`))
	assert.Error(t, err)
}
