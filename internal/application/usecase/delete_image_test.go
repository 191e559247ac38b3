package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

func newDeleteUseCase(storage *galleryMockStorage, metadata *mockMetadataRepo, events *mockEventPublisher, notifier *mockNotifier, cache *mockCache) *DeleteImageUseCase {
	uc := &DeleteImageUseCase{
		config: DeleteImageConfig{KeyPrefix: "gallery"},
		logger: logger.New("error"),
	}
	uc.storage = storage
	if metadata != nil {
		uc.metadata = metadata
	}
	if events != nil {
		uc.events = events
	}
	if notifier != nil {
		uc.notifier = notifier
	}
	if cache != nil {
		uc.cache = cache
	}
	return uc
}

func TestDeleteImageSuccess(t *testing.T) {
	storage := &galleryMockStorage{}
	metadata := &mockMetadataRepo{}
	events := &mockEventPublisher{}
	notifier := &mockNotifier{}
	cache := newMockCache()
	cache.values["gallery:catalog:gallery"] = []byte("[]")

	uc := newDeleteUseCase(storage, metadata, events, notifier, cache)

	if err := uc.Execute(context.Background(), DeleteImageCommand{Key: "gallery/abc.jpg"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(storage.deletedKeys) != 1 || storage.deletedKeys[0] != "gallery/abc.jpg" {
		t.Fatalf("unexpected deleted keys: %v", storage.deletedKeys)
	}
	if len(metadata.deleted) != 1 || metadata.deleted[0] != "gallery/abc.jpg" {
		t.Fatalf("expected metadata delete, got %v", metadata.deleted)
	}
	if len(events.subjects) != 1 || events.subjects[0] != "image.deleted" {
		t.Fatalf("unexpected event subjects: %v", events.subjects)
	}
	if len(notifier.events) != 1 || notifier.events[0].Action != "deleted" {
		t.Fatalf("expected deleted broadcast, got %v", notifier.events)
	}
	if cache.size() != 0 {
		t.Fatal("expected catalog cache invalidation")
	}
}

func TestDeleteImageKeyValidation(t *testing.T) {
	uc := newDeleteUseCase(&galleryMockStorage{}, nil, nil, nil, nil)

	if err := uc.Execute(context.Background(), DeleteImageCommand{Key: "  "}); err == nil {
		t.Fatal("expected error for blank key")
	}

	err := uc.Execute(context.Background(), DeleteImageCommand{Key: "private/secret.jpg"})
	if err == nil || !strings.Contains(err.Error(), "outside the gallery prefix") {
		t.Fatalf("expected prefix rejection, got %v", err)
	}
}

func TestDeleteImageStorageFailure(t *testing.T) {
	storage := &galleryMockStorage{deleteErr: errors.New("bucket offline")}
	uc := newDeleteUseCase(storage, nil, nil, nil, nil)

	err := uc.Execute(context.Background(), DeleteImageCommand{Key: "gallery/abc.jpg"})
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}
