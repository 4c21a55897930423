package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/forma3d/formaview/internal/decoder"
	"github.com/forma3d/formaview/internal/scene"
	"github.com/forma3d/formaview/internal/storage"
)

// triangleDecoder accepts anything except the literal payload "bad" and
// returns a one-triangle scene named after nothing in the bytes.
func triangleDecoder() decoder.Decoder {
	return decoder.Func(func(_ context.Context, data []byte) (*decoder.RawScene, error) {
		if string(data) == "bad" {
			return nil, decoder.DecodeErrorf("truncated chunk table")
		}
		return &decoder.RawScene{
			Nodes: []decoder.RawNode{{
				Name:      "mesh",
				Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
				Indices:   []uint32{0, 1, 2},
			}},
		}, nil
	})
}

func seedModel(t *testing.T, store *storage.Memory, name string, payload []byte) storage.ModelRecord {
	t.Helper()
	ctx := context.Background()
	path, err := store.Upload(ctx, name, payload, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	rec, err := store.CreateModel(ctx, name, path, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func newTestLoader(store *storage.Memory, session *scene.Session) *Loader {
	l := New(store, store, triangleDecoder(), session)
	l.SetFetch(store.Fetch)
	return l
}

func TestLoadInstallsModel(t *testing.T) {
	store := storage.NewMemory()
	session := scene.NewSession()
	defer session.Close()

	rec := seedModel(t, store, "bracket.3dm", []byte("geometry"))
	l := newTestLoader(store, session)

	model, err := l.Load(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if model.ID != rec.ID || model.Name != "bracket.3dm" {
		t.Errorf("identity: id=%q name=%q", model.ID, model.Name)
	}
	if session.Model() != model {
		t.Error("loaded model should be the session's active model")
	}
	if len(model.Objects()) != 1 {
		t.Errorf("objects = %d, want 1", len(model.Objects()))
	}
}

func TestLoadUnknownModel(t *testing.T) {
	store := storage.NewMemory()
	session := scene.NewSession()
	defer session.Close()

	l := newTestLoader(store, session)
	_, err := l.Load(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if session.Model() != nil {
		t.Error("failed load must not install anything")
	}
}

func TestLoadDecodeFailureKeepsPriorModel(t *testing.T) {
	store := storage.NewMemory()
	session := scene.NewSession()
	defer session.Close()

	good := seedModel(t, store, "good.3dm", []byte("geometry"))
	bad := seedModel(t, store, "bad.3dm", []byte("bad"))
	l := newTestLoader(store, session)

	prior, err := l.Load(context.Background(), good.ID)
	if err != nil {
		t.Fatal(err)
	}

	_, err = l.Load(context.Background(), bad.ID)
	if !errors.Is(err, decoder.ErrDecode) {
		t.Fatalf("got %v, want ErrDecode", err)
	}
	if session.Model() != prior {
		t.Error("prior model must stay installed after a decode failure")
	}
	if prior.Disposed() {
		t.Error("prior model must not be disposed by a failed load")
	}
}

func TestSupersededLoadNeverInstalls(t *testing.T) {
	store := storage.NewMemory()
	session := scene.NewSession()
	defer session.Close()

	first := seedModel(t, store, "first.3dm", []byte("geometry"))
	second := seedModel(t, store, "second.3dm", []byte("geometry"))

	l := New(store, store, triangleDecoder(), session)
	var winner *scene.Model
	started := false
	l.SetFetch(func(ctx context.Context, url string) ([]byte, error) {
		// While the first download is in flight the user picks another
		// model, and that load completes before this one returns.
		if !started {
			started = true
			inner := newTestLoader(store, session)
			m, err := inner.Load(ctx, second.ID)
			if err != nil {
				t.Fatal(err)
			}
			winner = m
		}
		return store.Fetch(ctx, url)
	})

	_, err := l.Load(context.Background(), first.ID)
	if !errors.Is(err, scene.ErrStaleLoad) {
		t.Fatalf("got %v, want ErrStaleLoad", err)
	}
	if session.Model() != winner {
		t.Error("the newer load must stay installed")
	}
	if winner.Disposed() {
		t.Error("winning model must remain live")
	}
}

func TestLoadFileIsEphemeral(t *testing.T) {
	session := scene.NewSession()
	defer session.Close()

	path := filepath.Join(t.TempDir(), "dropped.3dm")
	if err := os.WriteFile(path, []byte("geometry"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New(storage.NewMemory(), storage.NewMemory(), triangleDecoder(), session)
	model, err := l.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if model.ID != "" {
		t.Errorf("local file must have no persisted identity, got %q", model.ID)
	}
	if model.Name != "dropped.3dm" {
		t.Errorf("name = %q", model.Name)
	}
	if session.Model() != model {
		t.Error("local file should still install into the session")
	}
}
