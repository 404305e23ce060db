package repositories

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestFilesystemStoreRoundTrip(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}
	ctx := context.Background()

	blob := []byte{0x02, 0xDE, 0xAD, 0xBE, 0xEF}
	if err := store.Put(ctx, "sess-1", blob); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("Get() = %x, want %x", got, blob)
	}

	ok, err := store.Exists(ctx, "sess-1")
	if err != nil || !ok {
		t.Errorf("Exists() = %v, %v, want true", ok, err)
	}

	// Overwrite replaces the blob in place.
	if err := store.Put(ctx, "sess-1", []byte{0x01}); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	if got, _ := store.Get(ctx, "sess-1"); len(got) != 1 {
		t.Errorf("Get() after overwrite = %x", got)
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := store.Exists(ctx, "sess-1"); ok {
		t.Error("Exists() = true after delete")
	}
}

func TestFilesystemStoreMissing(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}
	ctx := context.Background()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Get() error = %v, want ErrBlobNotFound", err)
	}
	// Deleting an absent blob is not an error.
	if err := store.Delete(ctx, "nope"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestFilesystemStoreHostileSessionIDs(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}
	ctx := context.Background()

	// IDs with path syntax must stay inside the store directory.
	ids := []string{"../escape", "a/b/c", ".", "id with spaces"}
	for _, id := range ids {
		if err := store.Put(ctx, id, []byte{0x01}); err != nil {
			t.Errorf("Put(%q) error = %v", id, err)
			continue
		}
		if got, err := store.Get(ctx, id); err != nil || len(got) != 1 {
			t.Errorf("Get(%q) = %x, %v", id, got, err)
		}
	}
}

func TestFilesystemStoreContextCancelled(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, "sess-1", []byte{0x01}); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
}
