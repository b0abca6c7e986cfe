package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"newsdesk-sections/internal/sections"
)

var (
	ErrBusy         = errors.New("another operation is in progress")
	ErrNotConfirmed = errors.New("deletion not confirmed")
	ErrAtEdge       = errors.New("section has no neighbour in that direction")
	ErrUnknown      = errors.New("section not loaded")
)

// PartialReorderError reports a move whose first PATCH landed and whose
// second did not. The editor reloads after it, so the listing shows what the
// server actually holds.
type PartialReorderError struct {
	Moved     string
	Neighbour string
	Err       error
}

func (e *PartialReorderError) Error() string {
	return fmt.Sprintf("moved %s but could not update %s: %v", e.Moved, e.Neighbour, e.Err)
}

func (e *PartialReorderError) Unwrap() error { return e.Err }

// API is the part of the sections API the editor drives.
type API interface {
	List(ctx context.Context) ([]sections.Section, error)
	Create(ctx context.Context, record sections.Record) (sections.Section, error)
	Update(ctx context.Context, id string, patch sections.Patch) (sections.Section, error)
	Delete(ctx context.Context, id string) error
}

// Editor holds the admin listing. Only one operation runs at a time; a second
// one started meanwhile fails with ErrBusy. Failed calls leave the listing as
// it was.
type Editor struct {
	api   API
	mu    sync.Mutex
	busy  bool
	items []sections.Section
}

func NewEditor(api API) *Editor {
	return &Editor{api: api}
}

// Sections returns the listing in display order.
func (e *Editor) Sections() []sections.Section {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sections.Section{}, e.items...)
}

func (e *Editor) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return ErrBusy
	}
	e.busy = true
	return nil
}

func (e *Editor) end() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
}

func (e *Editor) Load(ctx context.Context) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()
	return e.reload(ctx)
}

func (e *Editor) reload(ctx context.Context) error {
	items, err := e.api.List(ctx)
	if err != nil {
		return err
	}
	sections.Sort(items)
	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
	return nil
}

// Move swaps the placement of a section with its neighbour in display order,
// delta -1 moving it up and +1 down. The two updates are separate calls.
func (e *Editor) Move(ctx context.Context, id string, delta int) error {
	if delta != -1 && delta != 1 {
		return fmt.Errorf("move delta must be -1 or 1, got %d", delta)
	}
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	items := e.Sections()
	index := indexOf(items, id)
	if index < 0 {
		return ErrUnknown
	}
	other := index + delta
	if other < 0 || other >= len(items) {
		return ErrAtEdge
	}
	moved, neighbour := items[index], items[other]
	movedTo, neighbourTo := neighbour.PlacementIndex, moved.PlacementIndex
	if movedTo == neighbourTo {
		movedTo = neighbour.PlacementIndex + delta
	}

	updated, err := e.api.Update(ctx, moved.ID, sections.Patch{PlacementIndex: &movedTo})
	if err != nil {
		return err
	}
	e.replace(updated)
	if neighbourTo == neighbour.PlacementIndex {
		e.resort()
		return nil
	}
	updated, err = e.api.Update(ctx, neighbour.ID, sections.Patch{PlacementIndex: &neighbourTo})
	if err != nil {
		partial := &PartialReorderError{Moved: moved.ID, Neighbour: neighbour.ID, Err: err}
		if reloadErr := e.reload(ctx); reloadErr != nil {
			return errors.Join(partial, reloadErr)
		}
		return partial
	}
	e.replace(updated)
	e.resort()
	return nil
}

// Toggle flips the enabled flag with a single field update.
func (e *Editor) Toggle(ctx context.Context, id string) (sections.Section, error) {
	if err := e.begin(); err != nil {
		return sections.Section{}, err
	}
	defer e.end()

	items := e.Sections()
	index := indexOf(items, id)
	if index < 0 {
		return sections.Section{}, ErrUnknown
	}
	enabled := !items[index].Enabled
	updated, err := e.api.Update(ctx, id, sections.Patch{Enabled: &enabled})
	if err != nil {
		return sections.Section{}, err
	}
	e.replace(updated)
	return updated, nil
}

// Delete removes a section after confirm approves it. A nil or declining
// confirm sends nothing.
func (e *Editor) Delete(ctx context.Context, id string, confirm func(sections.Section) bool) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	items := e.Sections()
	index := indexOf(items, id)
	if index < 0 {
		return ErrUnknown
	}
	if confirm == nil || !confirm(items[index]) {
		return ErrNotConfirmed
	}
	if err := e.api.Delete(ctx, id); err != nil {
		return err
	}
	e.mu.Lock()
	if i := indexOf(e.items, id); i >= 0 {
		e.items = append(e.items[:i:i], e.items[i+1:]...)
	}
	e.mu.Unlock()
	return nil
}

// Save creates the form's section, or replaces every editable field of an
// existing one.
func (e *Editor) Save(ctx context.Context, form Form) (sections.Section, error) {
	payload, err := form.Payload()
	if err != nil {
		return sections.Section{}, err
	}
	if err := e.begin(); err != nil {
		return sections.Section{}, err
	}
	defer e.end()

	var saved sections.Section
	if form.ID == "" {
		saved, err = e.api.Create(ctx, payload)
	} else {
		saved, err = e.api.Update(ctx, form.ID, sections.FullPatch(payload))
	}
	if err != nil {
		return sections.Section{}, err
	}
	e.mu.Lock()
	if i := indexOf(e.items, saved.ID); i >= 0 {
		e.items[i] = saved
	} else {
		e.items = append(e.items, saved)
	}
	sections.Sort(e.items)
	e.mu.Unlock()
	return saved, nil
}

func (e *Editor) replace(section sections.Section) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.items, section.ID); i >= 0 {
		e.items[i] = section
	}
}

func (e *Editor) resort() {
	e.mu.Lock()
	sections.Sort(e.items)
	e.mu.Unlock()
}

func indexOf(items []sections.Section, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
