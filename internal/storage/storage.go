// Package storage provides the persistence collaborators: the relational
// store for model and annotation records and the object store for the raw
// file bytes.
package storage

import (
	"context"
	"time"

	"github.com/forma3d/formaview/pkg/math"
)

// ModelRecord is a stored CAD file's metadata row.
type ModelRecord struct {
	ID          string
	Name        string
	StoragePath string
	OwnerID     string
	CreatedAt   time.Time
}

// Annotation is a text comment anchored to a point in the model's normalized
// local coordinate space. Immutable once persisted, except for deletion by
// its author.
type Annotation struct {
	ID        string
	ModelID   string
	AuthorID  string
	Position  math.Vec3
	Body      string
	CreatedAt time.Time
}

// User is an authenticated account.
type User struct {
	ID          string
	Email       string
	DisplayName string
}

// ModelStore reads and writes model metadata rows.
type ModelStore interface {
	// GetModel returns one model, ErrNotFound when absent.
	GetModel(ctx context.Context, id string) (ModelRecord, error)
	// ListModels returns all models, newest first (public gallery).
	ListModels(ctx context.Context) ([]ModelRecord, error)
	// ListModelsByOwner returns one user's models, newest first.
	ListModelsByOwner(ctx context.Context, ownerID string) ([]ModelRecord, error)
	// CreateModel inserts the metadata row for an uploaded file.
	CreateModel(ctx context.Context, name, storagePath, ownerID string) (ModelRecord, error)
}

// AnnotationStore reads and writes spatial annotations.
type AnnotationStore interface {
	// ListAnnotations returns a model's annotations ascending by creation
	// time. Equal timestamps keep the store's own stable order.
	ListAnnotations(ctx context.Context, modelID string) ([]Annotation, error)
	// CreateAnnotation persists a draft and returns it with the
	// server-assigned id and timestamp.
	CreateAnnotation(ctx context.Context, a Annotation) (Annotation, error)
	// DeleteAnnotation removes an annotation. Only the author may delete;
	// others get ErrForbidden.
	DeleteAnnotation(ctx context.Context, id, authorID string) error
}

// UserStore authenticates accounts.
type UserStore interface {
	// AuthenticateUser verifies credentials, ErrInvalidCredentials on
	// mismatch or unknown email.
	AuthenticateUser(ctx context.Context, email, password string) (User, error)
}

// BlobStore holds the raw file bytes.
type BlobStore interface {
	// Upload stores the file under a fresh path and returns it. Payloads
	// over MaxUploadBytes fail with QuotaExceededError before any network
	// call; the object store enforces the same ceiling authoritatively.
	Upload(ctx context.Context, fileName string, data []byte, ownerID string) (string, error)
	// SignedURL returns a time-limited download URL for a stored path.
	SignedURL(ctx context.Context, storagePath string) (string, error)
}
