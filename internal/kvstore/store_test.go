package kvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"campusconnect/internal/config"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, "token", "T1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "user", `{"userId":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := store.Get(ctx, "token")
	if err != nil || value != "T1" {
		t.Fatalf("expected T1, got %q (%v)", value, err)
	}
	if err := store.Delete(ctx, "token", "user", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected user deleted, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseStore(t, store)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	first, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := first.Set(context.Background(), "token", "T1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	second, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	value, err := second.Get(context.Background(), "token")
	if err != nil || value != "T1" {
		t.Fatalf("expected persisted token, got %q (%v)", value, err)
	}
}

func TestFileStoreCorruptFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, err := store.Get(context.Background(), "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected corrupt file to read as empty, got %v", err)
	}
	if err := store.Set(context.Background(), "token", "T2"); err != nil {
		t.Fatalf("expected set to overwrite corrupt file, got %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CAMPUSCONNECT_TEST_REDIS")
	if addr == "" {
		t.Skip("CAMPUSCONNECT_TEST_REDIS not set")
	}
	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, "campusconnect-test:"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), config.StorageConfig{Driver: "etcd"}, config.RedisConfig{})
	if err == nil {
		t.Fatalf("expected unknown driver to error")
	}
}
