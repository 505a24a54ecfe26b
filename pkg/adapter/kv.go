package adapter

import "context"

// KVStore is a minimal key-value store holding one serialized value per key.
// Get returns model.ErrNotFound when the key is absent.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
