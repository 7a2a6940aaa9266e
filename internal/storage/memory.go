package storage

import "sync"

// MemoryStore — хранилище в памяти процесса.
// Используется в тестах и в режиме --ephemeral, когда сессия
// не должна переживать завершение клиента.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore создает пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get возвращает значение ключа и признак его наличия.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.data[key]
	return val, ok, nil
}

// Set записывает значение ключа.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

// Remove удаляет ключ.
func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}
