package store

import (
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps records in process memory. Nothing survives the
// process; it backs tests and the throwaway configurations used by
// one-shot commands.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]string)}
}

// Enumerate returns the names of all records starting with prefix, in
// lexical order.
func (s *MemoryStore) Enumerate(prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for name := range s.records {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// RecordFor returns the record with the given name.
func (s *MemoryStore) RecordFor(name string) (Record, error) {
	return &memoryRecord{store: s, name: name}, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

type memoryRecord struct {
	store *MemoryStore
	name  string
}

func (r *memoryRecord) Name() string {
	return r.name
}

func (r *memoryRecord) Get(key, def string) string {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.records[r.name]
	if !ok {
		return def
	}
	value, ok := rec[key]
	if !ok {
		return def
	}
	return value
}

func (r *memoryRecord) Set(key, value string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.records[r.name]
	if !ok {
		rec = make(map[string]string)
		r.store.records[r.name] = rec
	}
	rec[key] = value
	return nil
}

func (r *memoryRecord) Contains(key string) bool {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.records[r.name]
	if !ok {
		return false
	}
	_, ok = rec[key]
	return ok
}

func (r *memoryRecord) Keys() ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.records[r.name]
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *memoryRecord) Clear() error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.records, r.name)
	return nil
}
