package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"newsdesk-sections/internal/sections"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	items    map[string]sections.Section
	calls    []string
	patches  []sections.Patch
	created  []sections.Record
	failOn   map[string]error
	lists    int
	entered  chan struct{}
	release  chan struct{}
	sequence int
}

func newFakeAPI(items ...sections.Section) *fakeAPI {
	api := &fakeAPI{items: map[string]sections.Section{}, failOn: map[string]error{}}
	for _, item := range items {
		api.items[item.ID] = item
	}
	return api
}

func (f *fakeAPI) List(ctx context.Context) ([]sections.Section, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if err := f.failOn["list"]; err != nil {
		return nil, err
	}
	out := make([]sections.Section, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeAPI) Create(_ context.Context, record sections.Record) (sections.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	f.created = append(f.created, record)
	if err := f.failOn["create"]; err != nil {
		return sections.Section{}, err
	}
	f.sequence++
	record.ID = fmt.Sprintf("new-%d", f.sequence)
	section, err := sections.Build(record)
	if err != nil {
		return sections.Section{}, err
	}
	f.items[section.ID] = section
	return section, nil
}

func (f *fakeAPI) Update(_ context.Context, id string, patch sections.Patch) (sections.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update "+id)
	f.patches = append(f.patches, patch)
	if err := f.failOn[id]; err != nil {
		return sections.Section{}, err
	}
	current, ok := f.items[id]
	if !ok {
		return sections.Section{}, &HTTPError{Status: 404, Body: "Section not found"}
	}
	merged := patch.Apply(current.Record())
	section, err := sections.Build(merged)
	if err != nil {
		return sections.Section{}, err
	}
	section.CreatedAt = current.CreatedAt
	f.items[id] = section
	return section, nil
}

func (f *fakeAPI) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete "+id)
	if err := f.failOn[id]; err != nil {
		return err
	}
	delete(f.items, id)
	return nil
}

func (f *fakeAPI) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func section(id string, placement int, created int) sections.Section {
	s, err := sections.Build(sections.Record{
		ID:             id,
		Title:          "Section " + id,
		Template:       "list_v1",
		Capacity:       3,
		Target:         sections.Target{Type: sections.TargetHomepage},
		Enabled:        true,
		PlacementIndex: placement,
	})
	if err != nil {
		panic(err)
	}
	s.CreatedAt = baseTime.Add(time.Duration(created) * time.Minute)
	return s
}

func ids(items []sections.Section) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func loadedEditor(t *testing.T, api *fakeAPI) *Editor {
	t.Helper()
	editor := NewEditor(api)
	require.NoError(t, editor.Load(t.Context()))
	return editor
}

func TestEditorLoadSortsByPlacementThenCreation(t *testing.T) {
	api := newFakeAPI(section("c", 1, 0), section("a", 2, 0), section("b", 1, -5), section("d", 0, 9))
	editor := loadedEditor(t, api)

	assert.Equal(t, []string{"d", "b", "c", "a"}, ids(editor.Sections()))
}

func TestEditorMoveSwapsPlacementWithNeighbour(t *testing.T) {
	api := newFakeAPI(section("A", 0, 0), section("B", 1, 1))
	editor := loadedEditor(t, api)

	require.NoError(t, editor.Move(t.Context(), "B", -1))

	assert.Equal(t, []string{"update B", "update A"}, api.callLog())
	require.Len(t, api.patches, 2)
	assert.Equal(t, 0, *api.patches[0].PlacementIndex)
	assert.Equal(t, 1, *api.patches[1].PlacementIndex)
	items := editor.Sections()
	assert.Equal(t, []string{"B", "A"}, ids(items))
	assert.Equal(t, 0, items[0].PlacementIndex)
	assert.Equal(t, 1, items[1].PlacementIndex)
}

func TestEditorMoveWithEqualIndicesStillMoves(t *testing.T) {
	api := newFakeAPI(section("A", 0, 0), section("B", 0, 1))
	editor := loadedEditor(t, api)

	require.NoError(t, editor.Move(t.Context(), "B", -1))

	assert.Equal(t, []string{"update B"}, api.callLog())
	items := editor.Sections()
	assert.Equal(t, []string{"B", "A"}, ids(items))
	assert.Equal(t, -1, items[0].PlacementIndex)

	require.NoError(t, editor.Move(t.Context(), "B", 1))
	assert.Equal(t, []string{"A", "B"}, ids(editor.Sections()))
}

func TestEditorMoveAtEdge(t *testing.T) {
	api := newFakeAPI(section("A", 0, 0), section("B", 1, 1))
	editor := loadedEditor(t, api)

	assert.ErrorIs(t, editor.Move(t.Context(), "A", -1), ErrAtEdge)
	assert.ErrorIs(t, editor.Move(t.Context(), "B", 1), ErrAtEdge)
	assert.ErrorIs(t, editor.Move(t.Context(), "missing", 1), ErrUnknown)
	assert.Error(t, editor.Move(t.Context(), "A", 2))
	assert.Empty(t, api.callLog())
}

func TestEditorMovePartialFailureReloads(t *testing.T) {
	api := newFakeAPI(section("A", 0, 0), section("B", 1, 1))
	editor := loadedEditor(t, api)
	api.failOn["A"] = errors.New("500 boom")

	err := editor.Move(t.Context(), "B", -1)

	var partial *PartialReorderError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "B", partial.Moved)
	assert.Equal(t, "A", partial.Neighbour)
	assert.Equal(t, 2, api.lists)
	items := editor.Sections()
	assert.Equal(t, []string{"A", "B"}, ids(items))
	assert.Equal(t, 0, items[0].PlacementIndex)
	assert.Equal(t, 0, items[1].PlacementIndex)
}

func TestEditorMoveFirstFailureLeavesState(t *testing.T) {
	api := newFakeAPI(section("A", 0, 0), section("B", 1, 1))
	editor := loadedEditor(t, api)
	api.failOn["B"] = errors.New("500 boom")

	require.Error(t, editor.Move(t.Context(), "B", -1))

	assert.Equal(t, []string{"update B"}, api.callLog())
	assert.Equal(t, 1, api.lists)
	assert.Equal(t, []string{"A", "B"}, ids(editor.Sections()))
}

func TestEditorToggleSendsSingleField(t *testing.T) {
	api := newFakeAPI(section("A", 0, 0))
	editor := loadedEditor(t, api)

	updated, err := editor.Toggle(t.Context(), "A")
	require.NoError(t, err)

	assert.False(t, updated.Enabled)
	require.Len(t, api.patches, 1)
	enabled := false
	assert.Equal(t, sections.Patch{Enabled: &enabled}, api.patches[0])
	assert.False(t, editor.Sections()[0].Enabled)
}

func TestEditorToggleFailureLeavesState(t *testing.T) {
	api := newFakeAPI(section("A", 0, 0))
	editor := loadedEditor(t, api)
	api.failOn["A"] = errors.New("503")

	_, err := editor.Toggle(t.Context(), "A")
	require.Error(t, err)
	assert.True(t, editor.Sections()[0].Enabled)
}

func TestEditorDeleteNeedsConfirmation(t *testing.T) {
	api := newFakeAPI(section("A", 0, 0), section("B", 1, 1))
	editor := loadedEditor(t, api)

	var asked string
	err := editor.Delete(t.Context(), "A", func(s sections.Section) bool {
		asked = s.Title
		return false
	})
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, "Section A", asked)
	assert.ErrorIs(t, editor.Delete(t.Context(), "A", nil), ErrNotConfirmed)
	assert.Empty(t, api.callLog())

	require.NoError(t, editor.Delete(t.Context(), "A", func(sections.Section) bool { return true }))
	assert.Equal(t, []string{"delete A"}, api.callLog())
	assert.Equal(t, []string{"B"}, ids(editor.Sections()))
}

func TestEditorRejectsConcurrentOperations(t *testing.T) {
	api := newFakeAPI(section("A", 0, 0))
	editor := NewEditor(api)
	api.entered = make(chan struct{})
	api.release = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- editor.Load(context.Background()) }()
	<-api.entered

	_, err := editor.Toggle(t.Context(), "A")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, editor.Load(t.Context()), ErrBusy)

	close(api.release)
	require.NoError(t, <-done)
	api.entered = nil
	assert.Equal(t, []string{"A"}, ids(editor.Sections()))
}

func TestEditorSaveCreatesWithForcedCapacity(t *testing.T) {
	api := newFakeAPI()
	editor := NewEditor(api)

	form := NewForm()
	form.Title = "Lead story"
	form.SetTemplate("hero_v1")
	form.Capacity = 12
	saved, err := editor.Save(t.Context(), form)
	require.NoError(t, err)

	require.Len(t, api.created, 1)
	assert.Equal(t, 1, api.created[0].Capacity)
	assert.Equal(t, map[string]any{}, api.created[0].Custom)
	assert.Equal(t, "", api.created[0].Side)
	assert.Equal(t, 1, saved.Capacity)
	assert.Equal(t, []string{saved.ID}, ids(editor.Sections()))
}

func TestEditorSaveUpdatesExisting(t *testing.T) {
	api := newFakeAPI(section("A", 0, 0))
	editor := loadedEditor(t, api)

	form := FromSection(editor.Sections()[0])
	form.Title = "Renamed"
	form.Enabled = false
	saved, err := editor.Save(t.Context(), form)
	require.NoError(t, err)

	assert.Equal(t, []string{"update A"}, api.callLog())
	require.NotNil(t, api.patches[0].Enabled)
	assert.False(t, *api.patches[0].Enabled)
	assert.Equal(t, "Renamed", saved.Title)
	assert.Equal(t, "Renamed", editor.Sections()[0].Title)
}

func TestEditorSaveInvalidFormSendsNothing(t *testing.T) {
	api := newFakeAPI()
	editor := NewEditor(api)

	form := NewForm()
	form.Title = "Promo"
	form.SetTemplate("rail_promo_v1")
	_, err := editor.Save(t.Context(), form)

	assert.True(t, sections.IsValidation(err))
	assert.Empty(t, api.callLog())
}
