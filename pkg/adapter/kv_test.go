package adapter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/codenest/promptcanvas/pkg/adapter"
	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"google.golang.org/api/option"
)

func testKVStore(t *testing.T, store adapter.KVStore) {
	ctx := context.Background()
	key := "test_" + uuid.NewString()

	_, err := store.Get(ctx, key)
	gt.True(t, errors.Is(err, model.ErrNotFound))

	gt.NoError(t, store.Put(ctx, key, []byte(`[{"url":"a"}]`)))
	got, err := store.Get(ctx, key)
	gt.NoError(t, err)
	gt.Equal(t, string(got), `[{"url":"a"}]`)

	gt.NoError(t, store.Put(ctx, key, []byte(`[]`)))
	got, err = store.Get(ctx, key)
	gt.NoError(t, err)
	gt.Equal(t, string(got), `[]`)

	gt.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	gt.True(t, errors.Is(err, model.ErrNotFound))

	// deleting an absent key is not an error
	gt.NoError(t, store.Delete(ctx, key))
}

func TestMemory(t *testing.T) {
	testKVStore(t, adapter.NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := adapter.NewMemory()

	value := []byte("abc")
	gt.NoError(t, store.Put(ctx, "k", value))
	value[0] = 'x'

	got, err := store.Get(ctx, "k")
	gt.NoError(t, err)
	gt.Equal(t, string(got), "abc")
}

func TestFileStore(t *testing.T) {
	store, err := adapter.NewFileStore(t.TempDir())
	gt.NoError(t, err)
	testKVStore(t, store)
}

func TestFileStoreLayout(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store, err := adapter.NewFileStore(dir)
	gt.NoError(t, err)

	gt.NoError(t, store.Put(ctx, "codenest_gallery_v1", []byte("[]")))

	data, err := os.ReadFile(filepath.Join(dir, "codenest_gallery_v1.json"))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "[]")

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.A(t, entries).Length(1)
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	store, err := adapter.NewFileStore(t.TempDir())
	gt.NoError(t, err)

	gt.Error(t, store.Put(ctx, "../escape", []byte("x")))
	_, err = store.Get(ctx, "a/b")
	gt.Error(t, err)
}

func TestNewFileStoreRequiresDir(t *testing.T) {
	_, err := adapter.NewFileStore("")
	gt.Error(t, err)
}

func TestStorage(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET is not set")
	}

	store, err := adapter.NewStorage(context.Background(), bucket, "promptcanvas-test")
	gt.NoError(t, err)
	defer store.Close()
	testKVStore(t, store)
}

func TestStorageClose(t *testing.T) {
	store, err := adapter.NewStorage(context.Background(), "promptcanvas-bucket", "p", option.WithoutAuthentication())
	gt.NoError(t, err)
	gt.NoError(t, store.Close())
}

func TestNewStorageRequiresBucket(t *testing.T) {
	_, err := adapter.NewStorage(context.Background(), "", "p", option.WithoutAuthentication())
	gt.Error(t, err)
}

func TestFirestore(t *testing.T) {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	store, err := adapter.NewFirestore(context.Background(), projectID, databaseID)
	gt.NoError(t, err)
	defer store.Close()
	testKVStore(t, store)
}
