package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tulisan/ocr-uploader/internal/models"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("/preview")
	file := models.ImageFile{Name: "note.jpg", ContentType: "image/jpeg", Data: []byte("abc")}

	p, err := store.Put(ctx, file)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if p.URL != "/preview/"+p.Key {
		t.Errorf("URL = %q, want /preview/%s", p.URL, p.Key)
	}

	got, ok := store.Open(p.Key)
	if !ok || string(got.Data) != "abc" || got.ContentType != "image/jpeg" {
		t.Fatalf("Open() = %+v, %v", got, ok)
	}

	if err := store.Release(ctx, p); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, ok := store.Open(p.Key); ok {
		t.Error("preview still present after Release")
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestMemoryStoreKeysAreUnique(t *testing.T) {
	store := NewMemoryStore("/preview/")
	a, _ := store.Put(context.Background(), models.ImageFile{Name: "a.png"})
	b, _ := store.Put(context.Background(), models.ImageFile{Name: "a.png"})
	if a.Key == b.Key {
		t.Fatalf("duplicate key %q", a.Key)
	}
	if strings.Contains(a.URL, "//") {
		t.Errorf("URL has doubled slash: %q", a.URL)
	}
}

func TestObjectName(t *testing.T) {
	now := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	got := ObjectName(now, "k1", "image/png")
	if got != "previews/2026/03/k1.png" {
		t.Errorf("ObjectName() = %q", got)
	}
}

func TestGetFileExtension(t *testing.T) {
	tests := map[string]string{
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
		"image/gif":       ".gif",
		"image/bmp":       ".bmp",
		"application/pdf": ".bin",
	}
	for ct, want := range tests {
		if got := GetFileExtension(ct); got != want {
			t.Errorf("GetFileExtension(%q) = %q, want %q", ct, got, want)
		}
	}
}
