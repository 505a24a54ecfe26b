package adapter

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const firestoreCollection = "promptcanvas"

type firestoreDoc struct {
	Value []byte `firestore:"value"`
}

// Firestore implements KVStore with one document per key
type Firestore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore creates a Firestore backed store
func NewFirestore(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &Firestore{client: client, collection: firestoreCollection}, nil
}

// Close releases the underlying client
func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := f.client.Collection(f.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, goerr.Wrap(model.ErrNotFound, "firestore", goerr.V("key", key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get document", goerr.V("key", key))
	}

	var doc firestoreDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode document", goerr.V("key", key))
	}
	return doc.Value, nil
}

func (f *Firestore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := f.client.Collection(f.collection).Doc(key).Set(ctx, firestoreDoc{Value: value}); err != nil {
		return goerr.Wrap(err, "failed to set document", goerr.V("key", key))
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, key string) error {
	if _, err := f.client.Collection(f.collection).Doc(key).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete document", goerr.V("key", key))
	}
	return nil
}
