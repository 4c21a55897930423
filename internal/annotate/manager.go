// Package annotate manages spatially anchored text annotations: the
// place-pick-draft flow, the persisted list for the active model, and the
// 3D markers derived from it.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forma3d/formaview/internal/storage"
	"github.com/forma3d/formaview/pkg/math"
)

// ErrEmptyBody rejects drafts whose body is empty after trimming. Checked
// before any store call.
var ErrEmptyBody = errors.New("annotation body is empty")

// State is the annotation placement state.
type State int

const (
	// Viewing shows markers; picking is disabled.
	Viewing State = iota
	// Placing arms the next surface pick to start a draft.
	Placing
	// Drafting holds a picked position while the text prompt is open.
	Drafting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Placing:
		return "placing"
	case Drafting:
		return "drafting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Manager drives the annotation lifecycle for the active model. All
// positions are in the model's normalized local space, which is the space
// surface picks already arrive in.
type Manager struct {
	store storage.AnnotationStore

	modelID string
	author  storage.User

	state    State
	draftPos math.Vec3

	list     []storage.Annotation
	selected string
}

// NewManager creates a manager with no bound model.
func NewManager(store storage.AnnotationStore) *Manager {
	return &Manager{store: store}
}

// Bind switches the manager to a newly active persisted model and refreshes
// the annotation list from storage. Any in-progress draft is dropped.
func (m *Manager) Bind(ctx context.Context, modelID string, author storage.User) error {
	m.modelID = modelID
	m.author = author
	m.state = Viewing
	m.selected = ""
	m.list = nil
	return m.Refresh(ctx)
}

// Unbind detaches the manager (local drag-in file: no identity, no
// annotations).
func (m *Manager) Unbind() {
	m.modelID = ""
	m.state = Viewing
	m.selected = ""
	m.list = nil
}

// State returns the current placement state.
func (m *Manager) State() State {
	return m.state
}

// CanPlace reports whether placements are possible: a persisted model is
// bound and the user is authenticated.
func (m *Manager) CanPlace() bool {
	return m.modelID != "" && m.author.ID != ""
}

// EnterPlacing arms pick-to-place. A no-op (returning false) for local
// files or anonymous users.
func (m *Manager) EnterPlacing() bool {
	if !m.CanPlace() || m.state != Viewing {
		return false
	}
	m.state = Placing
	m.selected = ""
	return true
}

// CancelPlacing returns to viewing without a pick.
func (m *Manager) CancelPlacing() {
	if m.state == Placing {
		m.state = Viewing
	}
}

// OnPick records a confirmed surface point as the draft anchor and opens
// the drafting prompt. Picks outside the placing state are ignored.
func (m *Manager) OnPick(point math.Vec3) bool {
	if m.state != Placing {
		return false
	}
	m.draftPos = point
	m.state = Drafting
	return true
}

// SubmitDraft validates and persists the draft, appends the server-returned
// annotation, and returns to viewing. On a store failure the draft is
// discarded, the prior list stays intact, and the error is surfaced; there
// is no retry.
func (m *Manager) SubmitDraft(ctx context.Context, body string) error {
	if m.state != Drafting {
		return fmt.Errorf("submit in %s state", m.state)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyBody
	}

	m.state = Viewing
	created, err := m.store.CreateAnnotation(ctx, storage.Annotation{
		ModelID:  m.modelID,
		AuthorID: m.author.ID,
		Position: m.draftPos,
		Body:     body,
	})
	if err != nil {
		return fmt.Errorf("persist annotation: %w", err)
	}

	m.list = append(m.list, created)
	// Storage owns the canonical ordering; re-read it after every submit.
	return m.Refresh(ctx)
}

// CancelDraft discards the draft and returns to viewing.
func (m *Manager) CancelDraft() {
	if m.state == Drafting {
		m.state = Viewing
	}
}

// SelectAnnotation opens the read-only detail view for a marker. Only valid
// while viewing; placement state is unaffected.
func (m *Manager) SelectAnnotation(id string) (storage.Annotation, bool) {
	if m.state != Viewing {
		return storage.Annotation{}, false
	}
	for _, a := range m.list {
		if a.ID == id {
			m.selected = id
			return a, true
		}
	}
	return storage.Annotation{}, false
}

// Selected returns the currently selected annotation id, empty when none.
func (m *Manager) Selected() string {
	return m.selected
}

// ClearSelection closes the detail view.
func (m *Manager) ClearSelection() {
	m.selected = ""
}

// Delete removes an annotation. The store enforces that only the author may
// delete; this just passes identity through.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteAnnotation(ctx, id, m.author.ID); err != nil {
		return err
	}
	if m.selected == id {
		m.selected = ""
	}
	return m.Refresh(ctx)
}

// Annotations returns the current list, ascending by creation time as
// ordered by storage.
func (m *Manager) Annotations() []storage.Annotation {
	return m.list
}

// Refresh re-reads the annotation list from storage. The previous list is
// kept on failure.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.modelID == "" {
		return nil
	}
	list, err := m.store.ListAnnotations(ctx, m.modelID)
	if err != nil {
		return fmt.Errorf("refresh annotations: %w", err)
	}
	m.list = list
	return nil
}
