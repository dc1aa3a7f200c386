package store

import (
	"sort"
	"sync"
	"sync/atomic"
)

type memDB struct {
	sync.Mutex
	namespaces map[string]*memStore
}

// NewMemory returns a process local DB, nothing survives Close.
func NewMemory() DB {
	return &memDB{namespaces: map[string]*memStore{}}
}

func (d *memDB) Namespace(name string) (Store, error) {
	d.Lock()
	defer d.Unlock()

	if n, ok := d.namespaces[name]; ok {
		return n, nil
	}
	ret := newMemStore()
	d.namespaces[name] = ret
	return ret, nil
}

func (d *memDB) Compact() error {
	return nil
}

func (d *memDB) Close() error {
	d.Lock()
	defer d.Unlock()
	d.namespaces = map[string]*memStore{}
	return nil
}

type memStore struct {
	mu      sync.RWMutex
	counter atomic.Int64
	arrays  map[ID]Record
}

func newMemStore() *memStore {
	return &memStore{arrays: map[ID]Record{}}
}

// NewMemoryStore returns a standalone in memory Store.
func NewMemoryStore() Store {
	return newMemStore()
}

func (s *memStore) Post(rec Record) (ID, error) {
	if err := rec.Valid(); err != nil {
		return 0, err
	}
	rec.Data = rec.Data.Clone()
	id := s.counter.Add(1) - 1

	s.mu.Lock()
	defer s.mu.Unlock()
	s.arrays[id] = rec
	return id, nil
}

func (s *memStore) Get(id ID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.arrays[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Data = rec.Data.Clone()
	return rec, nil
}

func (s *memStore) Delete(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.arrays, id)
	return nil
}

func (s *memStore) IDs() ([]ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]ID, 0, len(s.arrays))
	for id := range s.arrays {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
