package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/codenest/promptcanvas/pkg/adapter"
	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/codenest/promptcanvas/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// HistoryKey is the fixed storage key of the history list
	HistoryKey = "codenest_gallery_v1"
	// SessionKey is the storage key of the last displayed image's action state
	SessionKey = "codenest_session_v1"
)

// HistoryStore persists the bounded, newest-first generation history
type HistoryStore interface {
	// Save prepends rec, keeps the HistoryLimit most recent and writes the list back
	Save(ctx context.Context, rec model.GenerationRecord) error
	// Load returns the persisted list. Absent or corrupt data is an empty list.
	Load(ctx context.Context) []model.GenerationRecord
	// Clear removes all persisted history
	Clear(ctx context.Context) error
}

// SessionStore persists the session state between invocations
type SessionStore interface {
	LoadSession(ctx context.Context) (*model.Session, error)
	SaveSession(ctx context.Context, s *model.Session) error
}

// Repository implements HistoryStore and SessionStore over a KVStore.
// Operations are whole-value read-modify-write; mu only serializes writers in this process.
type Repository struct {
	kv adapter.KVStore
	mu sync.Mutex
}

// New creates a repository over kv
func New(kv adapter.KVStore) *Repository {
	return &Repository{kv: kv}
}

func (r *Repository) Load(ctx context.Context) []model.GenerationRecord {
	data, err := r.kv.Get(ctx, HistoryKey)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logging.From(ctx).Debug("history unreadable, treating as empty", "error", err)
		}
		return []model.GenerationRecord{}
	}

	var records []model.GenerationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logging.From(ctx).Debug("history corrupt, treating as empty", "error", err)
		return []model.GenerationRecord{}
	}
	if records == nil {
		return []model.GenerationRecord{}
	}
	return records
}

func (r *Repository) Save(ctx context.Context, rec model.GenerationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := model.Prepend(r.Load(ctx), rec)
	data, err := json.Marshal(records)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal history")
	}
	if err := r.kv.Put(ctx, HistoryKey, data); err != nil {
		return goerr.Wrap(err, "failed to write history")
	}
	return nil
}

func (r *Repository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.kv.Delete(ctx, HistoryKey); err != nil {
		return goerr.Wrap(err, "failed to clear history")
	}
	return nil
}

// Get returns the record at index (0 = newest)
func (r *Repository) Get(ctx context.Context, index int) (*model.GenerationRecord, error) {
	records := r.Load(ctx)
	if index < 0 || index >= len(records) {
		return nil, goerr.Wrap(model.ErrRecordIndex, "no such history entry",
			goerr.V("index", index), goerr.V("length", len(records)))
	}
	rec := records[index]
	return &rec, nil
}

// LoadSession returns the persisted session, or an empty one when nothing is stored
func (r *Repository) LoadSession(ctx context.Context) (*model.Session, error) {
	data, err := r.kv.Get(ctx, SessionKey)
	if errors.Is(err, model.ErrNotFound) {
		return &model.Session{}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read session")
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		logging.From(ctx).Debug("session corrupt, starting fresh", "error", err)
		return &model.Session{}, nil
	}
	return &s, nil
}

func (r *Repository) SaveSession(ctx context.Context, s *model.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal session")
	}
	if err := r.kv.Put(ctx, SessionKey, data); err != nil {
		return goerr.Wrap(err, "failed to write session")
	}
	return nil
}
