package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// entry — один элемент кэша. Нулевое expiresAt означает «без срока».
type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Store — потокобезопасное in-memory хранилище ключ-значение с
// необязательным TTL. Просроченные записи не видны при чтении;
// физически они удаляются лениво либо фоновой очисткой.
// Вытеснения по памяти нет — рост ограничен только TTL.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string // ключи в порядке первой вставки
}

// NewStore создает пустое хранилище.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
	}
}

// Get возвращает значение по ключу. Просроченная запись неотличима
// от отсутствующей.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, false
	}
	return e.value, true
}

// Set сохраняет значение. ttl == 0 означает запись без срока действия,
// отрицательный ttl — уже просроченную. Повторная запись по существующему
// ключу сохраняет его позицию в порядке вставки.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	var expiresAt time.Time
	if ttl != 0 {
		expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		s.order = append(s.order, key)
	}
	s.entries[key] = entry{value: value, expiresAt: expiresAt}
}

// Has сообщает, есть ли по ключу живая запись.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete удаляет запись и возвращает true, если она существовала.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	s.removeFromOrder(key)
	return true
}

// Clear удаляет все записи и возвращает их количество.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = make(map[string]entry)
	s.order = nil
	return n
}

// Len возвращает количество живых записей.
func (s *Store) Len() int {
	return len(s.Keys(""))
}

// Keys возвращает ключи живых записей в порядке вставки.
// Непустой prefix отфильтровывает ключи по префиксу.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	keys := make([]string, 0, len(s.order))
	for _, key := range s.order {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		if e, ok := s.entries[key]; ok && !e.expired(now) {
			keys = append(keys, key)
		}
	}
	return keys
}

// CleanupExpired физически удаляет просроченные записи.
func (s *Store) CleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			s.removeFromOrder(key)
		}
	}
}

// StartCleanupTicker запускает периодическую фоновую очистку,
// останавливается по отмене контекста.
func (s *Store) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired()
			}
		}
	}()
}

// removeFromOrder вызывается под write-блокировкой.
func (s *Store) removeFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// GetAs возвращает значение по ключу, приведенное к типу T.
// Запись другого типа считается промахом.
func GetAs[T any](s *Store, key string) (T, bool) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
