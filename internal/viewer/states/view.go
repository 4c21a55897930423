package states

import (
	"context"
	"errors"
	"fmt"
	gomath "math"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/forma3d/formaview/internal/annotate"
	"github.com/forma3d/formaview/internal/engine/camera"
	"github.com/forma3d/formaview/internal/engine/input"
	"github.com/forma3d/formaview/internal/engine/picking"
	"github.com/forma3d/formaview/internal/engine/render"
	"github.com/forma3d/formaview/internal/engine/ui2d"
	"github.com/forma3d/formaview/internal/engine/window"
	"github.com/forma3d/formaview/internal/interact"
	"github.com/forma3d/formaview/internal/loader"
	"github.com/forma3d/formaview/internal/logger"
	"github.com/forma3d/formaview/internal/scene"
	"github.com/forma3d/formaview/internal/storage"
	"github.com/forma3d/formaview/pkg/math"
)

const (
	fieldOfView = float32(gomath.Pi / 4)
	nearPlane   = 0.1
	farPlane    = 100.0

	// markerPickRadius is slightly larger than the drawn marker so small
	// markers stay clickable.
	markerPickRadius = 0.06
)

// ViewState is the 3D viewer: orbit inspection, layer toggles, and the
// annotation placement flow for one loaded model.
type ViewState struct {
	loader      *loader.Loader
	session     *scene.Session
	annotations *annotate.Manager
	camera      *camera.OrbitCamera
	tracker     *interact.Tracker
	renderer    *render.Renderer
	ui          *ui2d.Renderer
	window      *window.Window
	user        storage.User

	// Back is wired by the application and returns to the gallery.
	Back func()

	// Exactly one of modelID and localPath is set before entering.
	modelID   string
	localPath string

	Draft    string
	ErrorMsg string

	lastMouseX    int
	lastMouseY    int
	primaryHeld   bool
	secondaryHeld bool
}

// NewViewState creates the viewing state.
func NewViewState(
	ld *loader.Loader,
	session *scene.Session,
	annotations *annotate.Manager,
	cam *camera.OrbitCamera,
	tracker *interact.Tracker,
	renderer *render.Renderer,
	ui *ui2d.Renderer,
	win *window.Window,
	user storage.User,
) *ViewState {
	return &ViewState{
		loader:      ld,
		session:     session,
		annotations: annotations,
		camera:      cam,
		tracker:     tracker,
		renderer:    renderer,
		ui:          ui,
		window:      win,
		user:        user,
	}
}

// SetModel selects a stored model to load on the next Enter.
func (s *ViewState) SetModel(id string) {
	s.modelID = id
	s.localPath = ""
}

// SetFile selects a local file to load on the next Enter. Local files are
// ephemeral; annotating stays disabled for them.
func (s *ViewState) SetFile(path string) {
	s.localPath = path
	s.modelID = ""
}

// Enter loads the selected model and binds the annotation manager to it.
func (s *ViewState) Enter() error {
	s.ErrorMsg = ""
	s.Draft = ""

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var (
		model *scene.Model
		err   error
	)
	if s.localPath != "" {
		model, err = s.loader.LoadFile(ctx, s.localPath)
	} else {
		model, err = s.loader.Load(ctx, s.modelID)
	}
	if err != nil {
		if errors.Is(err, scene.ErrStaleLoad) {
			return nil
		}
		s.ErrorMsg = err.Error()
		logger.Error("load failed", zap.Error(err))
		if s.Back != nil {
			s.Back()
		}
		return nil
	}

	s.renderer.UploadModel(model)

	if err := s.annotations.Bind(ctx, model.ID, s.user); err != nil {
		// The model is still viewable without its annotation list.
		s.ErrorMsg = err.Error()
		logger.Warn("annotation refresh failed", zap.Error(err))
	}

	if s.window != nil {
		s.window.SetTitle("FormaView - " + model.Name)
	}
	return nil
}

// Exit unbinds annotations and releases the loaded model.
func (s *ViewState) Exit() error {
	if s.annotations.State() == annotate.Drafting {
		s.annotations.CancelDraft()
		input.StopTextInput()
	}
	s.annotations.Unbind()
	s.session.Close()
	if s.window != nil {
		s.window.SetTitle("FormaView")
	}
	return nil
}

// Update keeps the cursor-mode tracker in sync with the placement flag.
func (s *ViewState) Update(dt float64) error {
	s.tracker.SetPlacing(s.annotations.State() == annotate.Placing)
	return nil
}

// Render draws the model, its annotation markers, and the overlay.
func (s *ViewState) Render() error {
	w, h := s.window.GetSize()
	if h == 0 {
		return nil
	}

	proj := math.Perspective(fieldOfView, float32(w)/float32(h), nearPlane, farPlane)
	viewProj := proj.Mul(s.camera.ViewMatrix())

	s.renderer.DrawModel(s.session.Model(), viewProj)
	s.renderer.DrawMarkers(s.annotations.Markers(), viewProj)

	s.renderOverlay()
	return nil
}

// renderOverlay queues the layer panel, annotation prompts, and status
// lines for the 2D pass.
func (s *ViewState) renderOverlay() {
	sw, sh := s.ui.ScreenSize()
	w, h := float32(sw), float32(sh)

	const margin = 16
	const rowH = 20
	const textScale = 2

	if model := s.session.Model(); model != nil {
		descriptors := model.Layers()
		if len(descriptors) > 0 {
			panelH := float32(len(descriptors))*rowH + 34
			s.ui.DrawPanel(margin, margin, 260, panelH, ui2d.ColorPanelBg, ui2d.ColorPanelBorder)
			s.ui.DrawText(margin+8, margin+8, "layers", textScale, ui2d.ColorTextDim)
			for i, d := range descriptors {
				rowY := float32(margin+28) + float32(i)*rowH
				mark := "[ ]"
				color := ui2d.ColorTextDim
				if d.Visible {
					mark = "[x]"
					color = ui2d.ColorText
				}
				if i < 9 {
					s.ui.DrawText(margin+8, rowY, fmt.Sprintf("%d %s %s", i+1, mark, d.Name), textScale, color)
				} else {
					s.ui.DrawText(margin+8, rowY, fmt.Sprintf("  %s %s", mark, d.Name), textScale, color)
				}
			}
		}
	}

	switch s.annotations.State() {
	case annotate.Placing:
		s.ui.DrawText(margin, h-margin-16, "click a surface to annotate, esc cancels", textScale, ui2d.ColorHighlight)
	case annotate.Drafting:
		boxW := w - 2*margin
		s.ui.DrawPanel(margin, h-margin-52, boxW, 36, ui2d.ColorInputBg, ui2d.ColorPanelBorder)
		s.ui.DrawText(margin+8, h-margin-42, "annotation: "+s.Draft+"_", textScale, ui2d.ColorText)
	default:
		if id := s.annotations.Selected(); id != "" {
			for _, a := range s.annotations.Annotations() {
				if a.ID == id {
					s.ui.DrawPanel(margin, h-margin-52, w-2*margin, 36, ui2d.ColorPanelBg, ui2d.ColorPanelBorder)
					body := truncateText(s.ui, a.Body, textScale, w-2*margin-16)
					s.ui.DrawText(margin+8, h-margin-42, body, textScale, ui2d.ColorText)
					break
				}
			}
		}
	}

	if s.ErrorMsg != "" {
		s.ui.DrawText(margin, h-margin-76, s.ErrorMsg, textScale, ui2d.ColorError)
	}
}

// HandleInput processes one input event.
func (s *ViewState) HandleInput(event input.Event) error {
	switch event.Type {
	case input.EventMouseDown:
		s.handleMouseDown(event)
	case input.EventMouseUp:
		s.primaryHeld = false
		s.secondaryHeld = false
		s.tracker.PointerUp()
	case input.EventMouseMove:
		s.handleMouseMove(event)
	case input.EventMouseWheel:
		s.tracker.Wheel()
		s.camera.HandleZoom(float32(event.WheelY))
	case input.EventMouseLeave:
		s.primaryHeld = false
		s.secondaryHeld = false
		s.tracker.PointerLeave()
	case input.EventTextInput:
		if s.annotations.State() == annotate.Drafting {
			s.Draft += event.Text
		}
	case input.EventKeyDown:
		s.handleKey(event.Key)
	}
	return nil
}

func (s *ViewState) handleMouseDown(event input.Event) {
	s.lastMouseX = event.MouseX
	s.lastMouseY = event.MouseY

	switch event.Button {
	case sdl.BUTTON_LEFT:
		if s.tracker.PrimaryDown() {
			s.handlePlacementPick(event.MouseX, event.MouseY)
			return
		}
		// A click on a marker opens its annotation instead of orbiting.
		if id, ok := s.markerAt(event.MouseX, event.MouseY); ok {
			if _, selected := s.annotations.SelectAnnotation(id); selected {
				s.tracker.PointerUp()
				return
			}
		}
		s.primaryHeld = true
	case sdl.BUTTON_RIGHT:
		s.tracker.SecondaryDown()
		s.secondaryHeld = true
	}
}

func (s *ViewState) handleMouseMove(event input.Event) {
	dx := float32(event.MouseX - s.lastMouseX)
	dy := float32(event.MouseY - s.lastMouseY)
	s.lastMouseX = event.MouseX
	s.lastMouseY = event.MouseY

	if s.primaryHeld {
		s.camera.HandleDrag(dx, dy)
	} else if s.secondaryHeld {
		s.camera.HandlePan(dx, dy)
	}
}

func (s *ViewState) handleKey(key sdl.Scancode) {
	drafting := s.annotations.State() == annotate.Drafting

	switch key {
	case sdl.SCANCODE_ESCAPE:
		switch s.annotations.State() {
		case annotate.Drafting:
			s.annotations.CancelDraft()
			s.Draft = ""
			input.StopTextInput()
		case annotate.Placing:
			s.annotations.CancelPlacing()
		default:
			if s.annotations.Selected() != "" {
				s.annotations.ClearSelection()
			} else if s.Back != nil {
				s.Back()
			}
		}

	case sdl.SCANCODE_RETURN:
		if drafting {
			s.submitDraft()
		}

	case sdl.SCANCODE_BACKSPACE:
		if drafting && len(s.Draft) > 0 {
			runes := []rune(s.Draft)
			s.Draft = string(runes[:len(runes)-1])
		}

	case sdl.SCANCODE_A:
		if !drafting && s.annotations.State() == annotate.Viewing {
			if !s.annotations.EnterPlacing() {
				s.ErrorMsg = "sign in to annotate stored models"
			}
		}

	case sdl.SCANCODE_DELETE:
		if id := s.annotations.Selected(); id != "" && !drafting {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.annotations.Delete(ctx, id); err != nil {
				s.ErrorMsg = err.Error()
			}
		}

	default:
		if !drafting {
			s.handleLayerKey(key)
		}
	}
}

// handleLayerKey toggles the Nth layer in display order with the 1-9 keys.
func (s *ViewState) handleLayerKey(key sdl.Scancode) {
	if key < sdl.SCANCODE_1 || key > sdl.SCANCODE_9 {
		return
	}
	model := s.session.Model()
	if model == nil {
		return
	}
	ordinal := int(key - sdl.SCANCODE_1)
	descriptors := model.Layers()
	if ordinal >= len(descriptors) {
		return
	}
	d := descriptors[ordinal]
	model.SetLayerVisible(d.Index, !d.Visible)
}

func (s *ViewState) handlePlacementPick(mouseX, mouseY int) {
	hit, ok := s.pickSurface(mouseX, mouseY)
	if !ok {
		// Clicking past the model stays in placing mode.
		return
	}
	if s.annotations.OnPick(hit.Point) {
		s.Draft = ""
		input.StartTextInput()
	}
}

func (s *ViewState) submitDraft() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := s.annotations.SubmitDraft(ctx, s.Draft)
	switch {
	case errors.Is(err, annotate.ErrEmptyBody):
		// Keep the prompt open; the draft needs text.
		s.ErrorMsg = "annotation text is required"
		return
	case err != nil:
		s.ErrorMsg = err.Error()
	default:
		s.ErrorMsg = ""
	}
	s.Draft = ""
	input.StopTextInput()
}

// pickSurface casts a ray through the pointer into the model.
func (s *ViewState) pickSurface(mouseX, mouseY int) (picking.Hit, bool) {
	ray, ok := s.screenRay(mouseX, mouseY)
	if !ok {
		return picking.Hit{}, false
	}
	return picking.PickModel(ray, s.session.Model())
}

// markerAt returns the annotation id of the nearest marker under the
// pointer, if any.
func (s *ViewState) markerAt(mouseX, mouseY int) (string, bool) {
	ray, ok := s.screenRay(mouseX, mouseY)
	if !ok {
		return "", false
	}

	bestID := ""
	bestT := float32(gomath.MaxFloat32)
	for _, mk := range s.annotations.Markers() {
		if t, hit := raySphere(ray, mk.Position, markerPickRadius); hit && t < bestT {
			bestID = mk.AnnotationID
			bestT = t
		}
	}

	// A marker behind the model surface is not clickable.
	if bestID != "" {
		if surface, hit := picking.PickModel(ray, s.session.Model()); hit && surface.Distance < bestT-markerPickRadius {
			return "", false
		}
	}
	return bestID, bestID != ""
}

func (s *ViewState) screenRay(mouseX, mouseY int) (picking.Ray, bool) {
	w, h := s.window.GetSize()
	if w == 0 || h == 0 {
		return picking.Ray{}, false
	}
	proj := math.Perspective(fieldOfView, float32(w)/float32(h), nearPlane, farPlane)
	viewProj := proj.Mul(s.camera.ViewMatrix())
	inv := viewProj.Inverse()
	return picking.ScreenToRay(float32(mouseX), float32(mouseY), float32(w), float32(h), inv), true
}

// raySphere intersects a ray with a sphere, returning the nearest positive
// distance.
func raySphere(r picking.Ray, center math.Vec3, radius float32) (float32, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sqrtDisc := float32(gomath.Sqrt(float64(disc)))
	t := -b - sqrtDisc
	if t < 0 {
		t = -b + sqrtDisc
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
