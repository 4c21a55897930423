package states

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/forma3d/formaview/internal/engine/input"
	"github.com/forma3d/formaview/internal/engine/ui2d"
	"github.com/forma3d/formaview/internal/logger"
	"github.com/forma3d/formaview/internal/storage"
)

// BrowseState shows the model gallery: every stored model, newest first.
// A model can be opened for viewing, and a dropped file is uploaded and
// then opened.
type BrowseState struct {
	store storage.ModelStore
	blobs storage.BlobStore
	ui    *ui2d.Renderer
	user  storage.User

	// OpenModel and OpenFile are wired by the application and switch to
	// the viewing state.
	OpenModel func(id string)
	OpenFile  func(path string)

	Models   []storage.ModelRecord
	Selected int
	MineOnly bool
	ErrorMsg string
}

// NewBrowseState creates the gallery state.
func NewBrowseState(store storage.ModelStore, blobs storage.BlobStore, ui *ui2d.Renderer, user storage.User) *BrowseState {
	return &BrowseState{
		store: store,
		blobs: blobs,
		ui:    ui,
		user:  user,
	}
}

// Enter refreshes the gallery from storage. A failed refresh leaves the
// gallery usable; R retries.
func (s *BrowseState) Enter() error {
	s.ErrorMsg = ""
	if err := s.refresh(); err != nil {
		s.ErrorMsg = describeError(err)
	}
	return nil
}

// Exit is called when leaving this state.
func (s *BrowseState) Exit() error {
	return nil
}

// Update is called every frame.
func (s *BrowseState) Update(dt float64) error {
	return nil
}

// Render draws the gallery overlay.
func (s *BrowseState) Render() error {
	sw, sh := s.ui.ScreenSize()
	w, h := float32(sw), float32(sh)

	const margin = 24
	const rowH = 22
	const textScale = 2

	s.ui.DrawText(margin, margin, "FormaView", 3, ui2d.ColorHighlight)

	header := "all models"
	if s.MineOnly {
		header = "my models"
	}
	s.ui.DrawText(margin, margin+30, header, textScale, ui2d.ColorTextDim)

	listY := float32(margin + 58)
	listH := h - listY - 2*margin
	s.ui.DrawPanel(margin, listY, w-2*margin, listH, ui2d.ColorPanelBg, ui2d.ColorPanelBorder)

	if len(s.Models) == 0 {
		s.ui.DrawText(margin+10, listY+10, "no models yet, drop a .3dm file to upload", textScale, ui2d.ColorTextDim)
	}
	for i, m := range s.Models {
		rowY := listY + 6 + float32(i)*rowH
		if rowY+rowH > listY+listH {
			break
		}
		if i == s.Selected {
			s.ui.DrawRect(margin+2, rowY-2, w-2*margin-4, rowH, ui2d.ColorRowActive)
		}
		name := truncateText(s.ui, m.Name, textScale, w-2*margin-20)
		s.ui.DrawText(margin+10, rowY, name, textScale, ui2d.ColorText)
	}

	hints := "up/down select  enter open  r refresh  drop file to upload"
	if s.user.ID != "" {
		hints += "  m mine"
	}
	s.ui.DrawText(margin, h-margin-16, hints, textScale, ui2d.ColorTextDim)

	if s.ErrorMsg != "" {
		s.ui.DrawText(margin, h-margin-40, s.ErrorMsg, textScale, ui2d.ColorError)
	}
	return nil
}

// HandleInput processes one input event.
func (s *BrowseState) HandleInput(event input.Event) error {
	switch event.Type {
	case input.EventKeyDown:
		switch event.Key {
		case sdl.SCANCODE_UP:
			if s.Selected > 0 {
				s.Selected--
			}
		case sdl.SCANCODE_DOWN:
			if s.Selected < len(s.Models)-1 {
				s.Selected++
			}
		case sdl.SCANCODE_RETURN:
			if s.Selected >= 0 && s.Selected < len(s.Models) && s.OpenModel != nil {
				s.OpenModel(s.Models[s.Selected].ID)
			}
		case sdl.SCANCODE_R:
			if err := s.refresh(); err != nil {
				s.ErrorMsg = describeError(err)
			}
		case sdl.SCANCODE_M:
			if s.user.ID != "" {
				s.MineOnly = !s.MineOnly
				if err := s.refresh(); err != nil {
					s.ErrorMsg = describeError(err)
				}
			}
		}

	case input.EventFileDrop:
		s.handleDrop(event.Path)
	}
	return nil
}

// handleDrop uploads a dropped file and opens it, or opens it locally
// when no account is signed in.
func (s *BrowseState) handleDrop(path string) {
	s.ErrorMsg = ""

	if s.user.ID == "" {
		// Anonymous: view the file without persisting it.
		if s.OpenFile != nil {
			s.OpenFile(path)
		}
		return
	}

	if err := s.upload(path); err != nil {
		s.ErrorMsg = err.Error()
		logger.Warn("upload failed", zap.String("path", path), zap.Error(err))
	}
}

func (s *BrowseState) upload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	// The ceiling is enforced before any bytes leave the machine; the
	// quota error message carries the concrete numbers for the user.
	var quotaErr *storage.QuotaExceededError
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	name := filepath.Base(path)
	storagePath, err := s.blobs.Upload(ctx, name, data, s.user.ID)
	if err != nil {
		if errors.As(err, &quotaErr) {
			return quotaErr
		}
		return err
	}

	rec, err := s.store.CreateModel(ctx, name, storagePath, s.user.ID)
	if err != nil {
		return err
	}
	logger.Info("model uploaded",
		zap.String("id", rec.ID),
		zap.String("name", rec.Name),
		zap.Int("bytes", len(data)))

	if err := s.refresh(); err != nil {
		return err
	}
	if s.OpenModel != nil {
		s.OpenModel(rec.ID)
	}
	return nil
}

func (s *BrowseState) refresh() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var models []storage.ModelRecord
	var err error
	if s.MineOnly && s.user.ID != "" {
		models, err = s.store.ListModelsByOwner(ctx, s.user.ID)
	} else {
		models, err = s.store.ListModels(ctx)
	}
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	s.Models = models
	if s.Selected >= len(models) {
		s.Selected = len(models) - 1
	}
	if s.Selected < 0 {
		s.Selected = 0
	}
	return nil
}

// truncateText shortens text with an ellipsis when it would overflow maxW
// at the given scale. Glyphs are fixed width, so one sample sizes them all.
func truncateText(ui *ui2d.Renderer, text string, scale, maxW float32) string {
	if tw, _ := ui.MeasureText(text, scale); tw <= maxW {
		return text
	}
	gw, _ := ui.MeasureText("m", scale)
	n := int(maxW/gw) - 3
	runes := []rune(text)
	if n < 1 {
		n = 1
	}
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[:n]) + "..."
}

// describeError keeps transport failures actionable instead of opaque.
func describeError(err error) string {
	if storage.IsNetworkError(err) {
		return "connection problem, press R to retry"
	}
	return err.Error()
}
