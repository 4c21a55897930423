package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forma3d/formaview/pkg/math"
)

func TestMemoryGetModelNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.GetModel(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryModelRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.CreateModel(ctx, "tower.3dm", "u1/abc.3dm", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Error("created model should carry an id")
	}

	got, err := m.GetModel(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "tower.3dm" || got.OwnerID != "u1" {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryAnnotationOrdering(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return stamp }

	// Three annotations, the middle one on a later timestamp.
	first, _ := m.CreateAnnotation(ctx, Annotation{ModelID: "m1", AuthorID: "a", Body: "first"})
	stamp = stamp.Add(time.Second)
	later, _ := m.CreateAnnotation(ctx, Annotation{ModelID: "m1", AuthorID: "a", Body: "later"})
	stamp = stamp.Add(-time.Second)
	second, _ := m.CreateAnnotation(ctx, Annotation{ModelID: "m1", AuthorID: "a", Body: "second"})

	list, err := m.ListAnnotations(ctx, "m1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d annotations", len(list))
	}

	// Ascending by time; the timestamp collision keeps insertion order.
	wantIDs := []string{first.ID, second.ID, later.ID}
	for i, want := range wantIDs {
		if list[i].ID != want {
			t.Errorf("position %d: got %q (%s), want %q", i, list[i].ID, list[i].Body, want)
		}
	}
}

func TestMemoryDeleteAnnotationAuthorOnly(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a, _ := m.CreateAnnotation(ctx, Annotation{
		ModelID: "m1", AuthorID: "author", Body: "mine",
		Position: math.Vec3{X: 1, Y: 2, Z: 3},
	})

	if err := m.DeleteAnnotation(ctx, a.ID, "stranger"); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-author delete: got %v, want ErrForbidden", err)
	}
	if err := m.DeleteAnnotation(ctx, a.ID, "author"); err != nil {
		t.Errorf("author delete: %v", err)
	}
	if err := m.DeleteAnnotation(ctx, a.ID, "author"); !errors.Is(err, ErrNotFound) {
		t.Errorf("repeat delete: got %v, want ErrNotFound", err)
	}
}

func TestMemoryUploadQuota(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	big := make([]byte, MaxUploadBytes+1)
	_, err := m.Upload(ctx, "huge.3dm", big, "u1")

	var quota *QuotaExceededError
	if !errors.As(err, &quota) {
		t.Fatalf("expected QuotaExceededError, got %v", err)
	}
	if quota.SizeBytes != int64(len(big)) || quota.LimitBytes != MaxUploadBytes {
		t.Errorf("quota error = %+v", quota)
	}
}

func TestMemoryBlobFetch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	data := []byte{1, 2, 3, 4}
	path, err := m.Upload(ctx, "part.3dm", data, "u1")
	if err != nil {
		t.Fatal(err)
	}

	url, err := m.SignedURL(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	got, err := m.Fetch(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Errorf("fetched %v, want %v", got, data)
	}

	if _, err := m.SignedURL(ctx, "missing/blob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing blob: got %v", err)
	}
}
