// Package memory is an in-process implementation of cache storage.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/socialconnect/feed/internal/cache"
)

// DefaultCapacity is used when capacity passed to NewStorage is not positive.
const DefaultCapacity = 4096

type entry struct {
	key       string
	content   []byte
	expiresAt time.Time
}

type storage struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	ll       *list.List
	now      func() time.Time
}

// NewStorage returns LRU storage which keeps at most capacity entries.
func NewStorage(capacity int) cache.Storage {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &storage{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		ll:       list.New(),
		now:      time.Now,
	}
}

func (s *storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return nil, cache.ErrMiss
	}

	e := el.Value.(*entry)
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.remove(el)
		return nil, cache.ErrMiss
	}

	s.ll.MoveToFront(el)

	return e.content, nil
}

func (s *storage) Set(_ context.Context, key string, content []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	if el, ok := s.items[key]; ok {
		el.Value = &entry{key: key, content: content, expiresAt: expiresAt}
		s.ll.MoveToFront(el)
		return nil
	}

	s.items[key] = s.ll.PushFront(&entry{key: key, content: content, expiresAt: expiresAt})

	for s.ll.Len() > s.capacity {
		s.remove(s.ll.Back())
	}

	return nil
}

func (s *storage) Ping(_ context.Context) error {
	return nil
}

func (s *storage) remove(el *list.Element) {
	s.ll.Remove(el)
	delete(s.items, el.Value.(*entry).key)
}
