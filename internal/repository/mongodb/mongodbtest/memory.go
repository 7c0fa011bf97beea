// Package mongodbtest provides an in-memory mongodb.Repository for tests.
package mongodbtest

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/briquette/internal/domain/models"
	"github.com/mamadbah2/briquette/internal/repository/mongodb"
)

// Memory stores documents per collection in insertion order. Records go
// through a BSON round trip so tests see what MongoDB would hand back.
type Memory struct {
	mu          sync.Mutex
	collections map[string][]bson.M

	// CreateErr and ListErr, when set, are returned by the matching call.
	CreateErr error
	ListErr   error
}

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]bson.M)}
}

// Create implements mongodb.Repository.
func (m *Memory) Create(_ context.Context, collection string, record any) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}

	raw, err := bson.Marshal(record)
	if err != nil {
		return "", &mongodb.StoreWriteError{Collection: collection, Err: err}
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return "", &mongodb.StoreWriteError{Collection: collection, Err: err}
	}

	id := primitive.NewObjectID()
	doc["_id"] = id

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = append(m.collections[collection], doc)
	return id.Hex(), nil
}

// List implements mongodb.Repository. Only equality filters are supported.
func (m *Memory) List(_ context.Context, collection string, filter bson.M, limit int64) ([]models.Document, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Document, 0)
	for _, doc := range m.collections[collection] {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		if !matches(doc, filter) {
			continue
		}
		cp := make(models.Document, len(doc))
		for k, v := range doc {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out, nil
}

// Count returns the number of stored documents in collection.
func (m *Memory) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections[collection])
}

// Status implements the diagnostics view of a healthy store.
func (m *Memory) Status(context.Context) mongodb.Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	return mongodb.Status{Available: true, URLConfigured: true, DatabaseName: "memory", Collections: names}
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		if doc[k] != want {
			return false
		}
	}
	return true
}

var _ mongodb.Repository = (*Memory)(nil)
