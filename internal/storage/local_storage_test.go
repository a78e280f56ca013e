package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorage(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewLocalStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	ctx := context.Background()
	content := []byte("raw image bytes")

	t.Run("Put", func(t *testing.T) {
		obj, err := store.Put(ctx, "raw/abc.jpg", content, "image/jpeg")
		if err != nil {
			t.Fatalf("Failed to put object: %v", err)
		}
		if obj.Size != int64(len(content)) || obj.ContentType != "image/jpeg" {
			t.Errorf("Unexpected object %+v", obj)
		}
		if _, err := os.Stat(filepath.Join(tmpDir, "raw", "abc.jpg")); err != nil {
			t.Errorf("Object was not written: %v", err)
		}
	})

	t.Run("Content", func(t *testing.T) {
		got, err := os.ReadFile(filepath.Join(tmpDir, "raw", "abc.jpg"))
		if err != nil {
			t.Fatalf("Failed to read object: %v", err)
		}
		if string(got) != string(content) {
			t.Errorf("Expected %q, got %q", content, got)
		}
	})

	t.Run("RejectsTraversal", func(t *testing.T) {
		for _, key := range []string{"../etc/passwd", "raw/../../x", ""} {
			if _, err := store.Put(ctx, key, content, ""); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Expected ErrInvalidKey for %q, got %v", key, err)
			}
		}
	})

	t.Run("DeleteRejectsTraversal", func(t *testing.T) {
		if err := store.Delete(ctx, "../abc.jpg"); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Expected ErrInvalidKey, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "raw/abc.jpg"); err != nil {
			t.Fatalf("Failed to delete object: %v", err)
		}
		if _, err := os.Stat(filepath.Join(tmpDir, "raw", "abc.jpg")); !os.IsNotExist(err) {
			t.Errorf("Object still exists after delete")
		}
	})
}
