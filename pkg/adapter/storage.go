package adapter

import (
	"context"
	"errors"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// Storage implements KVStore using Cloud Storage, one object per key
type Storage struct {
	bucketName string
	prefix     string
	client     *storage.Client
}

// NewStorage creates a Cloud Storage backed store. Objects are named <prefix>/<key>.json.
func NewStorage(ctx context.Context, bucketName, prefix string, opts ...option.ClientOption) (*Storage, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &Storage{
		bucketName: bucketName,
		prefix:     prefix,
		client:     client,
	}, nil
}

// Close releases the underlying client
func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucketName).Object(path.Join(s.prefix, key+".json"))
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, goerr.Wrap(model.ErrNotFound, "storage", goerr.V("key", key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("key", key))
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V("key", key))
	}
	return data, nil
}

func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	writer := s.object(key).NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := writer.Write(value); err != nil {
		writer.Close()
		return goerr.Wrap(err, "failed to write to storage", goerr.V("key", key))
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit object", goerr.V("key", key))
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	err := s.object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return goerr.Wrap(err, "failed to delete from storage", goerr.V("key", key))
	}
	return nil
}
