package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"newsdesk-sections/internal/sections"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPI = "http://sections.test"

func mockedClient(t *testing.T) *Client {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClient(testAPI+"/", httpClient)
}

const listBody = `[{"id":"s1","title":"Lead","template":"HERO-V1","capacity":9,"target":{"type":"homepage"},"enabled":true,"placementIndex":0}]`

func TestClientListAcceptsBareArrayAndItems(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testAPI+"/api/sections", httpmock.NewStringResponder(http.StatusOK, listBody))

	items, err := client.List(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, sections.TemplateHeroV1, items[0].Template.ID)
	assert.Equal(t, 1, items[0].Capacity)

	httpmock.RegisterResponder(http.MethodGet, testAPI+"/api/sections", httpmock.NewStringResponder(http.StatusOK, `{"items":`+listBody+`}`))
	items, err = client.List(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s1", items[0].ID)

	httpmock.RegisterResponder(http.MethodGet, testAPI+"/api/sections", httpmock.NewStringResponder(http.StatusOK, `{"sections":[]}`))
	_, err = client.List(t.Context())
	assert.Error(t, err)
}

func TestClientErrorCarriesStatusAndBody(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testAPI+"/api/sections/nope",
		httpmock.NewStringResponder(http.StatusNotFound, `{"message":"Section not found"}`))
	httpmock.RegisterResponder(http.MethodDelete, testAPI+"/api/sections/s1",
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream down\n"))

	_, err := client.Get(t.Context(), "nope")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "404 Section not found", err.Error())

	err = client.Delete(t.Context(), "s1")
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "502 upstream down", err.Error())
	assert.Equal(t, 1, httpmock.GetCallCountInfo()["DELETE "+testAPI+"/api/sections/s1"])
}

func TestClientUpdateSendsOnlyPatchedFields(t *testing.T) {
	client := mockedClient(t)
	var sent map[string]any
	httpmock.RegisterResponder(http.MethodPatch, testAPI+"/api/sections/s1",
		func(req *http.Request) (*http.Response, error) {
			data, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(data, &sent); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"id":"s1","title":"Lead","template":"list_v1","capacity":3,"target":{"type":"homepage"},"placementIndex":4}`), nil
		})

	index := 4
	updated, err := client.Update(t.Context(), "s1", sections.Patch{PlacementIndex: &index})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"placementIndex": float64(4)}, sent)
	assert.Equal(t, 4, updated.PlacementIndex)
}

func TestClientPlanAndSearchQueries(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponderWithQuery(http.MethodGet, testAPI+"/api/sections/plan",
		map[string]string{"sectionType": "category", "value": "world", "mode": "preview"},
		httpmock.NewStringResponder(http.StatusOK, `{"target":{"type":"category","value":"world"},"sections":[
			{"section":{"id":"s1","title":"World","template":"list_v1","capacity":2,"target":{"type":"category","value":"world"}},
			 "items":[{"key":"a","title":"A"}]}]}`))
	httpmock.RegisterResponderWithQuery(http.MethodGet, testAPI+"/api/articles",
		map[string]string{"q": "budget", "limit": "5"},
		httpmock.NewStringResponder(http.StatusOK, `{"items":[{"key":"a1","title":"Budget day"}]}`))

	plan, err := client.Plan(t.Context(), sections.Target{Type: sections.TargetCategory, Value: "world"}, true)
	require.NoError(t, err)
	require.Len(t, plan.Sections, 1)
	assert.Equal(t, "World", plan.Sections[0].Section.Title)
	assert.Equal(t, "a", plan.Sections[0].Items[0].Key)

	assert.Equal(t, 1, plan.Sections[0].Count())

	found, err := client.SearchArticles(t.Context(), " budget ", 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Budget day", found[0].Title)
}

func TestClientPlanDecodesZones(t *testing.T) {
	client := mockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, `=~^`+testAPI+`/api/sections/plan`,
		httpmock.NewStringResponder(http.StatusOK, `{"target":{"type":"homepage"},"sections":[
			{"section":{"id":"s1","title":"Front","template":"top_v1","capacity":1,"target":{"type":"homepage"}},
			 "items":[],
			 "zones":{"lead":[{"key":"a","title":"A"}],"popular":[{"key":"b","title":"B"},{"key":"c","title":"C"}]}}]}`))

	plan, err := client.Plan(t.Context(), sections.Target{Type: sections.TargetHomepage}, false)
	require.NoError(t, err)
	require.Len(t, plan.Sections, 1)
	entry := plan.Sections[0]
	assert.Empty(t, entry.Items)
	require.Len(t, entry.Zones[sections.ZoneLead], 1)
	assert.Equal(t, "a", entry.Zones[sections.ZoneLead][0].Key)
	assert.Len(t, entry.Zones[sections.ZonePopular], 2)
	assert.Equal(t, 3, entry.Count())
}
