package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/pkondrashkov/gallery-api/internal/application/port"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

func TestLoadImageCatalogCachedMissThenHit(t *testing.T) {
	storage := &scriptedObjectStorage{
		pages: []port.ObjectPage{
			objectPage("", "albums/a.jpg", "albums/b.png"),
		},
	}
	cache := newMockCache()
	loader := newCatalogUseCase(storage, LoadImageCatalogConfig{})
	uc := NewLoadImageCatalogCachedUseCase(loader, cache, logger.New("error"))

	first, err := uc.Execute(context.Background(), "albums")
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 items, got %d", len(first))
	}
	if storage.listCalls != 1 {
		t.Fatalf("expected one listing, got %d", storage.listCalls)
	}

	// The cache write happens off the request path, wait for it to land.
	deadline := time.Now().Add(2 * time.Second)
	for cache.size() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("cache was never populated")
		}
		time.Sleep(5 * time.Millisecond)
	}

	second, err := uc.Execute(context.Background(), "albums")
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected 2 cached items, got %d", len(second))
	}
	if storage.listCalls != 1 {
		t.Fatalf("expected cache hit to skip storage, got %d list calls", storage.listCalls)
	}
}

func TestLoadImageCatalogCachedWithoutCache(t *testing.T) {
	storage := &scriptedObjectStorage{
		pages: []port.ObjectPage{
			objectPage("", "albums/a.jpg"),
		},
	}
	loader := newCatalogUseCase(storage, LoadImageCatalogConfig{})
	uc := NewLoadImageCatalogCachedUseCase(loader, nil, logger.New("error"))

	dtos, err := uc.Execute(context.Background(), "albums")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(dtos) != 1 || dtos[0].Key != "albums/a.jpg" {
		t.Fatalf("unexpected result: %+v", dtos)
	}
}
