// Package viewer implements the main application loop and wires the
// storage, scene, and annotation collaborators together.
package viewer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/forma3d/formaview/internal/annotate"
	"github.com/forma3d/formaview/internal/config"
	"github.com/forma3d/formaview/internal/decoder"
	"github.com/forma3d/formaview/internal/engine/camera"
	"github.com/forma3d/formaview/internal/engine/input"
	"github.com/forma3d/formaview/internal/engine/render"
	"github.com/forma3d/formaview/internal/engine/ui2d"
	"github.com/forma3d/formaview/internal/engine/window"
	"github.com/forma3d/formaview/internal/interact"
	"github.com/forma3d/formaview/internal/loader"
	"github.com/forma3d/formaview/internal/logger"
	"github.com/forma3d/formaview/internal/scene"
	"github.com/forma3d/formaview/internal/storage"
	"github.com/forma3d/formaview/internal/viewer/states"
)

// Stores bundles the persistence collaborators the viewer talks to.
type Stores struct {
	Models      storage.ModelStore
	Annotations storage.AnnotationStore
	Blobs       storage.BlobStore
	Users       storage.UserStore
	// Fetch downloads signed URLs; nil selects the HTTP transport.
	Fetch loader.FetchFunc
}

// OpenStores connects the backends named by the configuration, or the
// in-memory stand-ins when offline is set.
func OpenStores(ctx context.Context, cfg *config.Config) (Stores, error) {
	if cfg.Storage.Offline {
		logger.Info("running offline, using in-memory storage")
		mem := storage.NewMemory()
		return Stores{
			Models:      mem,
			Annotations: mem,
			Blobs:       mem,
			Users:       mem,
			Fetch:       mem.Fetch,
		}, nil
	}

	db, err := storage.Open(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		return Stores{}, fmt.Errorf("database: %w", err)
	}
	pg := storage.NewPostgres(db)

	blobs, err := storage.NewObjectStore(storage.ObjectStoreConfig{
		Endpoint:  cfg.Storage.S3.Endpoint,
		AccessKey: cfg.Storage.S3.AccessKey,
		SecretKey: cfg.Storage.S3.SecretKey,
		Bucket:    cfg.Storage.S3.Bucket,
		UseSSL:    cfg.Storage.S3.UseSSL,
	})
	if err != nil {
		return Stores{}, fmt.Errorf("object store: %w", err)
	}

	return Stores{
		Models:      pg,
		Annotations: pg,
		Blobs:       blobs,
		Users:       pg,
	}, nil
}

// App is the viewer application.
type App struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *render.Renderer
	ui       *ui2d.Renderer
	input    *input.Input
	states   *states.Manager

	session     *scene.Session
	loader      *loader.Loader
	annotations *annotate.Manager
	camera      *camera.OrbitCamera
	tracker     *interact.Tracker

	browse *states.BrowseState
	view   *states.ViewState
}

// New creates the application: window, GL renderer, stores, and states.
func New(cfg *config.Config, stores Stores, dec decoder.Decoder) (*App, error) {
	logger.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Bool("offline", cfg.Storage.Offline),
	)

	a := &App{cfg: cfg}

	var err error
	a.window, err = window.New(window.Config{
		Title:      "FormaView",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer after window, since the GL context must exist.
	a.renderer, err = render.New(cfg.Graphics.Width, cfg.Graphics.Height)
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.ui, err = ui2d.New(cfg.Graphics.Width, cfg.Graphics.Height)
	if err != nil {
		a.renderer.Close()
		a.window.Close()
		return nil, fmt.Errorf("failed to create overlay renderer: %w", err)
	}

	a.input = input.New()
	a.session = scene.NewSession()
	a.loader = loader.New(stores.Models, stores.Blobs, dec, a.session)
	if stores.Fetch != nil {
		a.loader.SetFetch(stores.Fetch)
	}
	a.annotations = annotate.NewManager(stores.Annotations)
	a.camera = camera.NewOrbitCamera()
	a.tracker = interact.NewTracker()
	a.states = states.NewManager()

	user := a.signIn(stores.Users)

	a.browse = states.NewBrowseState(stores.Models, stores.Blobs, a.ui, user)
	a.view = states.NewViewState(
		a.loader, a.session, a.annotations,
		a.camera, a.tracker, a.renderer, a.ui, a.window, user,
	)

	a.browse.OpenModel = func(id string) {
		a.view.SetModel(id)
		a.states.Change(a.view)
	}
	a.browse.OpenFile = func(path string) {
		a.view.SetFile(path)
		a.states.Change(a.view)
	}
	a.view.Back = func() {
		a.states.Change(a.browse)
	}

	if cfg.Viewer.OpenModel != "" {
		a.view.SetModel(cfg.Viewer.OpenModel)
		a.states.Change(a.view)
	} else {
		a.states.Change(a.browse)
	}

	logger.Info("viewer initialized")
	return a, nil
}

// signIn authenticates the configured account. Without credentials the
// viewer stays anonymous: browsing and viewing work, annotating does not.
func (a *App) signIn(users storage.UserStore) storage.User {
	if a.cfg.Account.Email == "" {
		logger.Info("no account configured, viewing anonymously")
		return storage.User{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user, err := users.AuthenticateUser(ctx, a.cfg.Account.Email, a.cfg.Account.Password)
	if err != nil {
		logger.Warn("sign-in failed, continuing anonymously",
			zap.String("email", a.cfg.Account.Email),
			zap.Error(err))
		return storage.User{}
	}
	logger.Info("signed in", zap.String("email", user.Email))
	return user
}

// Run starts the main loop.
func (a *App) Run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting viewer loop")

	for a.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if a.input.Update() {
			a.running = false
			break
		}

		for _, event := range a.input.Events() {
			switch event.Type {
			case input.EventWindowResize:
				a.renderer.Resize(event.Width, event.Height)
				a.ui.Resize(event.Width, event.Height)
			case input.EventQuit:
				a.running = false
			}
			if err := a.states.HandleInput(event); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
		}

		// 2. Update the active state
		if err := a.states.Update(dt); err != nil {
			return fmt.Errorf("update error: %w", err)
		}
		a.window.SetCursor(cursorFor(a.tracker.Mode()))

		// 3. Render: the active state draws its 3D pass immediately and
		// queues overlay elements, flushed on top by the 2D pass.
		a.renderer.Begin()
		a.ui.Begin()
		if err := a.states.Render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		a.renderer.End()
		a.ui.End()

		// 4. Present
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			if a.cfg.Viewer.ShowFPS {
				logger.Debug("fps",
					zap.Int("count", frameCount),
					zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
			}
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// cursorFor maps an interaction mode to a pointer shape.
func cursorFor(m interact.Mode) window.Cursor {
	switch m {
	case interact.Placing:
		return window.CursorCrosshair
	case interact.Rotating, interact.Panning:
		return window.CursorMove
	default:
		return window.CursorArrow
	}
}

// Close cleans up application resources.
func (a *App) Close() {
	logger.Info("closing viewer")

	a.session.Close()
	if a.ui != nil {
		a.ui.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
