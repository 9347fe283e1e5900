package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/imageshark/imageshark/internal/domain"
)

func TestNewArtifactKey(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	key := NewArtifactKey(at)

	want := fmt.Sprintf("converted_image_%d", at.UnixMilli())
	if key != want {
		t.Fatalf("expected %s, got %s", want, key)
	}
	if !ValidArtifactKey(key) {
		t.Fatalf("minted key %s failed validation", key)
	}
}

func TestValidArtifactKey(t *testing.T) {
	bad := []string{
		"",
		"converted_image_",
		"converted_image_abc",
		"other_prefix_1700000000000",
		"converted_image_1700000000000extra",
	}
	for _, key := range bad {
		if ValidArtifactKey(key) {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}

func TestMemoryArtifactStore_PutGet(t *testing.T) {
	s := NewMemoryArtifactStore(4)
	ctx := context.Background()

	key := NewArtifactKey(time.Now())
	if err := s.Put(ctx, key, "data:image/png;base64,AAAA"); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "data:image/png;base64,AAAA" {
		t.Fatalf("unexpected payload: %s", got)
	}

	if _, err := s.Get(ctx, "converted_image_1"); !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestMemoryArtifactStore_CapacityLimit(t *testing.T) {
	s := NewMemoryArtifactStore(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.Put(ctx, fmt.Sprintf("converted_image_%d", i), "data:image/png;base64,AAAA"); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	err := s.Put(ctx, "converted_image_99", "data:image/png;base64,BBBB")
	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure when full, got %v", err)
	}

	// Overwriting an existing key does not count against the cap.
	if err := s.Put(ctx, "converted_image_0", "data:image/png;base64,CCCC"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}
