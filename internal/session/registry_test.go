package session

import (
	"context"
	"testing"
	"time"

	"github.com/tulisan/ocr-uploader/internal/clipboard"
	"github.com/tulisan/ocr-uploader/internal/models"
	"github.com/tulisan/ocr-uploader/internal/storage"
	"github.com/tulisan/ocr-uploader/internal/uploader"
)

type nopProcessor struct{}

func (nopProcessor) Process(context.Context, models.ImageFile) (*models.OCRResult, error) {
	return &models.OCRResult{}, nil
}

func newRegistry(store *storage.MemoryStore, idle time.Duration) (*Registry, *int) {
	created := 0
	r := NewRegistry(func(string) *uploader.Uploader {
		created++
		return uploader.New(nopProcessor{}, store, clipboard.Disabled{})
	}, idle, nil)
	return r, &created
}

func TestGetReusesSession(t *testing.T) {
	r, created := newRegistry(storage.NewMemoryStore("/p"), time.Minute)
	ctx := context.Background()

	a := r.Get(ctx, "s1")
	b := r.Get(ctx, "s1")
	c := r.Get(ctx, "s2")

	if a != b {
		t.Error("same session should map to the same uploader")
	}
	if a == c {
		t.Error("different sessions should not share state")
	}
	if *created != 2 || r.Len() != 2 {
		t.Errorf("created = %d, len = %d, want 2", *created, r.Len())
	}
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	store := storage.NewMemoryStore("/p")
	r, _ := newRegistry(store, time.Minute)
	ctx := context.Background()
	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	idle := r.Get(ctx, "idle")
	idle.Select(ctx, []models.ImageFile{{Name: "a.png", ContentType: "image/png", Data: []byte{1}}})
	if store.Len() != 1 {
		t.Fatalf("previews = %d, want 1", store.Len())
	}

	now = now.Add(2 * time.Minute)
	r.Get(ctx, "active")

	if r.Len() != 1 {
		t.Errorf("len = %d, want only the active session", r.Len())
	}
	if store.Len() != 0 {
		t.Errorf("evicted session preview not released, previews = %d", store.Len())
	}
	if r.Get(ctx, "idle") == idle {
		t.Error("evicted session should start fresh")
	}
}

func TestCloseReleasesAll(t *testing.T) {
	store := storage.NewMemoryStore("/p")
	r, _ := newRegistry(store, time.Minute)
	ctx := context.Background()

	r.Get(ctx, "a").Select(ctx, []models.ImageFile{{Name: "a.png", ContentType: "image/png"}})
	r.Get(ctx, "b").Select(ctx, []models.ImageFile{{Name: "b.gif", ContentType: "image/gif"}})

	r.Close(ctx)

	if r.Len() != 0 || store.Len() != 0 {
		t.Errorf("len = %d previews = %d after Close", r.Len(), store.Len())
	}
}
