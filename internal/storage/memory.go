package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process implementation of the stores, used by tests and
// offline runs. Signed URLs use the "mem://" scheme and resolve through
// Fetch rather than HTTP.
type Memory struct {
	mu          sync.Mutex
	models      map[string]ModelRecord
	annotations map[string]Annotation
	blobs       map[string][]byte
	seq         map[string]int
	nextSeq     int

	// Now stamps created records; overridable in tests.
	Now func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		models:      make(map[string]ModelRecord),
		annotations: make(map[string]Annotation),
		blobs:       make(map[string][]byte),
		seq:         make(map[string]int),
		Now:         time.Now,
	}
}

func (m *Memory) GetModel(_ context.Context, id string) (ModelRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.models[id]
	if !ok {
		return ModelRecord{}, fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

func (m *Memory) ListModels(_ context.Context) ([]ModelRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ModelRecord, 0, len(m.models))
	for _, rec := range m.models {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.seq[out[i].ID] > m.seq[out[j].ID]
	})
	return out, nil
}

func (m *Memory) ListModelsByOwner(ctx context.Context, ownerID string) ([]ModelRecord, error) {
	all, err := m.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, rec := range all {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) CreateModel(_ context.Context, name, storagePath, ownerID string) (ModelRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := ModelRecord{
		ID:          uuid.NewString(),
		Name:        name,
		StoragePath: storagePath,
		OwnerID:     ownerID,
		CreatedAt:   m.Now(),
	}
	m.models[rec.ID] = rec
	m.nextSeq++
	m.seq[rec.ID] = m.nextSeq
	return rec, nil
}

func (m *Memory) ListAnnotations(_ context.Context, modelID string) ([]Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Annotation
	for _, a := range m.annotations {
		if a.ModelID == modelID {
			out = append(out, a)
		}
	}
	// Ascending creation time; insertion order breaks timestamp ties so the
	// ordering stays stable across calls.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return m.seq[out[i].ID] < m.seq[out[j].ID]
	})
	return out, nil
}

func (m *Memory) CreateAnnotation(_ context.Context, a Annotation) (Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = m.Now()
	m.annotations[a.ID] = a
	m.nextSeq++
	m.seq[a.ID] = m.nextSeq
	return a, nil
}

func (m *Memory) DeleteAnnotation(_ context.Context, id, authorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.annotations[id]
	if !ok {
		return fmt.Errorf("annotation %s: %w", id, ErrNotFound)
	}
	if a.AuthorID != authorID {
		return fmt.Errorf("annotation %s: %w", id, ErrForbidden)
	}
	delete(m.annotations, id)
	return nil
}

func (m *Memory) Upload(_ context.Context, fileName string, data []byte, ownerID string) (string, error) {
	if int64(len(data)) > MaxUploadBytes {
		return "", &QuotaExceededError{SizeBytes: int64(len(data)), LimitBytes: MaxUploadBytes}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	storagePath := fmt.Sprintf("%s/%s", ownerID, fileName)
	m.blobs[storagePath] = data
	return storagePath, nil
}

func (m *Memory) SignedURL(_ context.Context, storagePath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[storagePath]; !ok {
		return "", fmt.Errorf("blob %s: %w", storagePath, ErrNotFound)
	}
	return "mem://" + storagePath, nil
}

// Fetch resolves a "mem://" URL issued by SignedURL.
func (m *Memory) Fetch(_ context.Context, url string) ([]byte, error) {
	const scheme = "mem://"
	if len(url) < len(scheme) || url[:len(scheme)] != scheme {
		return nil, fmt.Errorf("unexpected url %q", url)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[url[len(scheme):]]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", url[len(scheme):], ErrNotFound)
	}
	return data, nil
}

// AuthenticateUser accepts any credentials and returns a deterministic local
// account, keeping offline runs usable without a user table.
func (m *Memory) AuthenticateUser(_ context.Context, email, _ string) (User, error) {
	return User{ID: "local-" + email, Email: email, DisplayName: email}, nil
}
