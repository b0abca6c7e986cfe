package articles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 4 << 20
	maxErrorBody    = 512
)

// Query is a feed query against the upstream content API.
type Query struct {
	IDs             []string `json:"ids,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	SortBy          string   `json:"sortBy,omitempty"`
	TimeWindowHours int      `json:"timeWindowHours,omitempty"`
	Limit           int      `json:"limit"`
	Offset          int      `json:"offset,omitempty"`
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	CacheTTL   time.Duration
	HTTPClient *http.Client
	// Observe is called once per upstream call with the operation name and
	// "ok" or "error".
	Observe func(op, outcome string)
}

// Client talks to the upstream content API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache
	observe func(op, outcome string)
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	var queryCache *cache.Cache
	if cfg.CacheTTL > 0 {
		queryCache = cache.New(cfg.CacheTTL, cfg.CacheTTL*2)
	}
	observe := cfg.Observe
	if observe == nil {
		observe = func(string, string) {}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		cache:   queryCache,
		observe: observe,
	}
}

// Query runs a feed query. Results are cached per query when a TTL is configured.
func (c *Client) Query(ctx context.Context, q Query) ([]Article, error) {
	key := ""
	if c.cache != nil {
		encoded, _ := json.Marshal(q)
		key = "query:" + string(encoded)
		if cached, ok := c.cache.Get(key); ok {
			return append([]Article{}, cached.([]Article)...), nil
		}
	}
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	raws, err := c.fetchList(ctx, "query", http.MethodPost, "/api/articles/query", body)
	if err != nil {
		return nil, err
	}
	items := NormalizeAll(raws)
	if c.cache != nil {
		c.cache.SetDefault(key, items)
	}
	return append([]Article{}, items...), nil
}

// Lookup resolves article references. The result is keyed by the requested
// reference; references the upstream does not know are absent.
func (c *Client) Lookup(ctx context.Context, ids []string) (map[string]Article, error) {
	found := map[string]Article{}
	if len(ids) == 0 {
		return found, nil
	}
	items, err := c.Query(ctx, Query{IDs: ids, Limit: len(ids)})
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		for _, item := range items {
			if item.Matches(id) {
				found[id] = item
				break
			}
		}
	}
	return found, nil
}

// Search backs the pin picker.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{}
	params.Set("q", strings.TrimSpace(term))
	params.Set("limit", strconv.Itoa(limit))
	raws, err := c.fetchList(ctx, "search", http.MethodGet, "/api/articles?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(raws), nil
}

// SetCover forwards a cover image assignment. Cached queries are dropped so
// the next plan sees the new image.
func (c *Client) SetCover(ctx context.Context, articleID, imageURL string) error {
	payload, err := json.Marshal(map[string]any{"cover": map[string]string{"url": imageURL}})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, "cover", http.MethodPatch, "/api/articles/"+url.PathEscape(articleID), payload)
	if err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Flush()
	}
	return nil
}

func (c *Client) fetchList(ctx context.Context, op, method, path string, body []byte) ([]RawArticle, error) {
	data, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return nil, err
	}
	raws, err := DecodeList(data)
	if err != nil {
		c.observe(op, "error")
		return nil, fmt.Errorf("decode %s response: %w", op, err)
	}
	return raws, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, "error")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.observe(op, "error")
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(op, "error")
		return nil, &StatusError{Status: resp.StatusCode, Body: clip(strings.TrimSpace(string(data)), maxErrorBody)}
	}
	c.observe(op, "ok")
	return data, nil
}

// clip cuts text to at most n bytes without splitting a rune.
func clip(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

// DecodeList accepts either a bare JSON array or an object with an items array.
func DecodeList(data []byte) ([]RawArticle, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return []RawArticle{}, nil
	}
	if trimmed[0] == '[' {
		var raws []RawArticle
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, err
		}
		return raws, nil
	}
	var wrapped struct {
		Items *[]RawArticle `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Items == nil {
		return nil, errors.New("response has no items")
	}
	return *wrapped.Items, nil
}
