// Package loader runs the model load pipeline: record lookup, signed
// download, decode, normalization, and installation into the session.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/forma3d/formaview/internal/decoder"
	"github.com/forma3d/formaview/internal/logger"
	"github.com/forma3d/formaview/internal/scene"
	"github.com/forma3d/formaview/internal/storage"
)

// FetchFunc downloads the bytes behind a signed URL. Swappable so offline
// runs and tests can serve from the in-memory store.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// HTTPFetch is the production FetchFunc. The read is capped just above the
// upload ceiling so a misbehaving endpoint cannot balloon memory.
func HTTPFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download model: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, storage.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download model: %w", err)
	}
	return data, nil
}

// Loader turns a model id (or a local path) into the installed scene model.
type Loader struct {
	models  storage.ModelStore
	blobs   storage.BlobStore
	decode  decoder.Decoder
	session *scene.Session
	fetch   FetchFunc
}

func New(models storage.ModelStore, blobs storage.BlobStore, dec decoder.Decoder, session *scene.Session) *Loader {
	return &Loader{
		models:  models,
		blobs:   blobs,
		decode:  dec,
		session: session,
		fetch:   HTTPFetch,
	}
}

// SetFetch replaces the download transport.
func (l *Loader) SetFetch(f FetchFunc) {
	l.fetch = f
}

// Load fetches a stored model and installs it as the active scene. Any
// failure before installation leaves the previously installed model
// untouched. If another load starts while this one is in flight, the
// finished result is disposed and scene.ErrStaleLoad is returned.
func (l *Loader) Load(ctx context.Context, modelID string) (*scene.Model, error) {
	ticket := l.session.StartLoad()

	rec, err := l.models.GetModel(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", modelID, err)
	}

	url, err := l.blobs.SignedURL(ctx, rec.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sign download for %s: %w", rec.StoragePath, err)
	}

	data, err := l.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	model, err := l.build(ctx, data, rec.Name)
	if err != nil {
		return nil, err
	}
	model.ID = rec.ID

	if err := l.session.Install(ticket, model); err != nil {
		return nil, err
	}
	logger.Info("model loaded",
		zap.String("id", rec.ID),
		zap.String("name", rec.Name),
		zap.Int("objects", len(model.Objects())),
		zap.Int("layers", len(model.Layers())))
	return model, nil
}

// LoadFile opens a local file dropped onto the window. The result is
// ephemeral: it has no persisted identity, so annotations stay disabled.
func (l *Loader) LoadFile(ctx context.Context, path string) (*scene.Model, error) {
	ticket := l.session.StartLoad()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	model, err := l.build(ctx, data, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	if err := l.session.Install(ticket, model); err != nil {
		return nil, err
	}
	logger.Info("local file loaded",
		zap.String("name", model.Name),
		zap.Int("objects", len(model.Objects())))
	return model, nil
}

func (l *Loader) build(ctx context.Context, data []byte, name string) (*scene.Model, error) {
	raw, err := l.decode.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	model := scene.Normalize(raw)
	model.Name = name
	return model, nil
}
