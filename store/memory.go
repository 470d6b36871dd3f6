package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a map-backed Store with the same semantics as the Mongo
// implementation: idempotent deletes, atomic counter deltas and strictly
// monotonic server timestamps. Used by unit tests and the offline seeder.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string]Doc
	seq    int64
	lastTS time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Doc)}
}

func (m *MemoryStore) Create(_ context.Context, collection string, fields Doc) (string, error) {
	if _, err := splitCollectionPath(collection); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := fmt.Sprintf("%012x", m.seq)
	m.docs[collection+"/"+id] = m.applyLocked(nil, fields)
	return id, nil
}

func (m *MemoryStore) Set(_ context.Context, path string, fields Doc, merge bool) error {
	if _, err := splitDocPath(path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var base Doc
	if merge {
		base = m.docs[path]
	}
	m.docs[path] = m.applyLocked(base, fields)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, path string, fields Doc) error {
	if _, err := splitDocPath(path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	base, ok := m.docs[path]
	if !ok {
		return ErrNotFound
	}
	m.docs[path] = m.applyLocked(base, fields)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, path string) (Doc, error) {
	segs, err := splitDocPath(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return withID(doc, segs[len(segs)-1]), nil
}

func (m *MemoryStore) List(_ context.Context, collection string, orderBy string, desc bool, limit int) ([]Doc, error) {
	if _, err := splitCollectionPath(collection); err != nil {
		return nil, err
	}
	prefix := collection + "/"

	m.mu.Lock()
	var docs []Doc
	for path, doc := range m.docs {
		if !strings.HasPrefix(path, prefix) || strings.Contains(path[len(prefix):], "/") {
			continue
		}
		docs = append(docs, withID(doc, path[len(prefix):]))
	}
	m.mu.Unlock()

	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			i, j = j, i
		}
		return fieldLess(docs[i][orderBy], docs[j][orderBy])
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	if _, err := splitDocPath(path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, path)
	return nil
}

// applyLocked resolves sentinel values against base and returns the new doc.
func (m *MemoryStore) applyLocked(base Doc, fields Doc) Doc {
	doc := Doc{}
	for k, v := range base {
		doc[k] = v
	}
	for k, v := range fields {
		switch sv := v.(type) {
		case incrementValue:
			doc[k] = doc.Int(k) + sv.Delta
		case serverTimestamp:
			doc[k] = m.nextTimestampLocked()
		default:
			doc[k] = v
		}
	}
	return doc
}

// nextTimestampLocked assigns write times that never repeat or go backwards.
func (m *MemoryStore) nextTimestampLocked() time.Time {
	ts := time.Now().UTC()
	if !ts.After(m.lastTS) {
		ts = m.lastTS.Add(time.Microsecond)
	}
	m.lastTS = ts
	return ts
}

func withID(doc Doc, id string) Doc {
	out := Doc{}
	for k, v := range doc {
		out[k] = v
	}
	out["_id"] = id
	return out
}

func fieldLess(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, _ := b.(time.Time)
		return at.Before(bt)
	}
	if as, ok := a.(string); ok {
		bs, _ := b.(string)
		return as < bs
	}
	return Doc{"v": a}.Int("v") < Doc{"v": b}.Int("v")
}
