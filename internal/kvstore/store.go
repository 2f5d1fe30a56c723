package kvstore

import (
	"context"
	"errors"
	"fmt"

	"campusconnect/internal/config"
)

var ErrNotFound = errors.New("key not found")

// Store is the client's durable key-value storage. Values read back from a
// Store are untrusted: callers must tolerate anything, including data written
// by another version of the client.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Open selects a backend by driver name. The returned close func releases
// connections held by the backend.
func Open(ctx context.Context, storage config.StorageConfig, redisCfg config.RedisConfig) (Store, func() error, error) {
	switch storage.Driver {
	case "", "file":
		store, err := NewFileStore(storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	case "redis":
		client, err := NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, storage.KeyPrefix), client.Close, nil
	case "memory":
		return NewMemoryStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", storage.Driver)
	}
}
