package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore хранит ключи в одном JSON-файле.
// Файл читается один раз при создании, записи идут насквозь
// через временный файл и rename, чтобы перезапуск клиента
// не застал документ в полузаписанном виде.
type FileStore struct {
	path string
	mu   sync.Mutex
	data map[string]string
}

// NewFileStore открывает хранилище по указанному пути.
// Отсутствующий файл означает пустое хранилище.
func NewFileStore(path string) (*FileStore, error) {
	const op = "storage.NewFileStore"

	s := &FileStore{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Get возвращает значение ключа и признак его наличия.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.data[key]
	return val, ok, nil
}

// Set записывает значение ключа и сбрасывает документ на диск.
func (s *FileStore) Set(key, value string) error {
	const op = "storage.FileStore.Set"

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	if err := s.flush(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Remove удаляет ключ и сбрасывает документ на диск.
func (s *FileStore) Remove(key string) error {
	const op = "storage.FileStore.Remove"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	if err := s.flush(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// flush записывает документ во временный файл и атомарно подменяет основной.
// Вызывается только под мьютексом.
func (s *FileStore) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".portal-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
