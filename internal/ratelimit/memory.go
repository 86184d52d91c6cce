package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = time.Minute

type window struct {
	count int
	start time.Time
	size  time.Duration
}

func (w *window) end() time.Time {
	return w.start.Add(w.size)
}

// MemoryStore хранит счётчики в памяти процесса. Экземпляры сервиса
// не делят счётчики между собой.
type MemoryStore struct {
	mu        sync.Mutex
	windows   map[string]*window
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore создаёт пустой MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Hit реализует Store.
func (s *MemoryStore) Hit(_ context.Context, key string, size time.Duration) (Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	w, ok := s.windows[key]
	if !ok || now.After(w.end()) {
		w = &window{start: now, size: size}
		s.windows[key] = w
	}
	w.count++
	return Counter{Count: w.count, ResetAt: w.end()}, nil
}

// Peek реализует Store.
func (s *MemoryStore) Peek(_ context.Context, key string) (Counter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || s.now().After(w.end()) {
		return Counter{}, false, nil
	}
	return Counter{Count: w.count, ResetAt: w.end()}, true, nil
}

// Len возвращает число хранимых окон, включая истёкшие, но ещё не удалённые.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for k, w := range s.windows {
		if now.After(w.end()) {
			delete(s.windows, k)
		}
	}
}
