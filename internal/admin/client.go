// Package admin is the editor side of section configuration: a REST client
// for the sections API, the editor state used by sectionctl and the section
// form model.
package admin

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

	"newsdesk-sections/internal/articles"
	"newsdesk-sections/internal/sections"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
)

// HTTPError is a non-2xx answer from the sections API.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%d %s", e.Status, e.Body)
}

// Plan mirrors the plan endpoint response.
type Plan struct {
	Target      sections.Target `json:"target"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Sections    []PlanEntry     `json:"sections"`
}

// PlanEntry is one rendered section. Top templates fill Zones instead of Items.
type PlanEntry struct {
	Section sections.Section                         `json:"section"`
	Items   []articles.Article                       `json:"items"`
	Zones   map[sections.ZoneName][]articles.Article `json:"zones,omitempty"`
}

// Count is the number of articles the entry renders across items and zones.
func (e PlanEntry) Count() int {
	n := len(e.Items)
	for _, zone := range e.Zones {
		n += len(zone)
	}
	return n
}

// Client calls the sections REST API. No call is retried.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) List(ctx context.Context) ([]sections.Section, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/sections", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[sections.Section](data)
}

func (c *Client) Get(ctx context.Context, id string) (sections.Section, error) {
	var section sections.Section
	err := c.doJSON(ctx, http.MethodGet, "/api/sections/"+url.PathEscape(id), nil, &section)
	return section, err
}

func (c *Client) Create(ctx context.Context, record sections.Record) (sections.Section, error) {
	var section sections.Section
	err := c.doJSON(ctx, http.MethodPost, "/api/sections", record, &section)
	return section, err
}

func (c *Client) Update(ctx context.Context, id string, patch sections.Patch) (sections.Section, error) {
	var section sections.Section
	err := c.doJSON(ctx, http.MethodPatch, "/api/sections/"+url.PathEscape(id), patch, &section)
	return section, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/sections/"+url.PathEscape(id), nil)
	return err
}

// Plan fetches the render plan of a page. Preview plans bypass the server cache.
func (c *Client) Plan(ctx context.Context, target sections.Target, preview bool) (Plan, error) {
	params := url.Values{}
	params.Set("sectionType", string(target.Type))
	if target.Value != "" {
		params.Set("value", target.Value)
	}
	if preview {
		params.Set("mode", "preview")
	}
	var plan Plan
	err := c.doJSON(ctx, http.MethodGet, "/api/sections/plan?"+params.Encode(), nil, &plan)
	return plan, err
}

// SearchArticles backs the pin picker.
func (c *Client) SearchArticles(ctx context.Context, term string, limit int) ([]articles.Article, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(term))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	data, err := c.do(ctx, http.MethodGet, "/api/articles?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return decodeItems[articles.Article](data)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = encoded
	}
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
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
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: errorText(data)}
	}
	return data, nil
}

// errorText prefers the message of a JSON error body and falls back to the raw text.
func errorText(data []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(data))
}

func decodeItems[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		items := []T{}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var wrapped struct {
		Items *[]T `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Items == nil {
		return nil, errors.New("response has no items")
	}
	return *wrapped.Items, nil
}
