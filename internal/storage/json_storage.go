package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"
)

// JSONStorage keeps every key in a single JSON object on disk.
// QuotaBytes caps the serialized size; zero disables the cap.
//
// A file that does not parse is moved aside to FilePath+".corrupt" and the
// store starts empty; Recovered then holds the moved file's path.
type JSONStorage struct {
	FilePath   string
	QuotaBytes int
	Recovered  string
	mu         sync.RWMutex
	Data       map[string]string
}

func NewJSONStorage(filePath string, quotaBytes int) (*JSONStorage, error) {
	s := &JSONStorage{
		FilePath:   filePath,
		QuotaBytes: quotaBytes,
		Data:       make(map[string]string),
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if err := s.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

var _ ports.KeyValueStore = (*JSONStorage)(nil)

func (s *JSONStorage) loadFromFile() error {
	file, err := os.ReadFile(s.FilePath)
	if err != nil {
		return err
	}
	data := make(map[string]string)
	if err := json.Unmarshal(file, &data); err != nil {
		return s.quarantine()
	}
	s.Data = data
	return nil
}

func (s *JSONStorage) quarantine() error {
	target := s.FilePath + ".corrupt"
	if err := os.Rename(s.FilePath, target); err != nil {
		return fmt.Errorf("%w: move corrupt store aside: %v", domain.ErrPersistenceUnavailable, err)
	}
	s.Recovered = target
	return nil
}

// saveToFile writes next to disk and only then makes it the live map,
// so a rejected write leaves the previous contents in place.
func (s *JSONStorage) saveToFile(next map[string]string) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if s.QuotaBytes > 0 && len(data) > s.QuotaBytes {
		return fmt.Errorf("%w: %d bytes exceeds quota of %d", domain.ErrPersistenceUnavailable, len(data), s.QuotaBytes)
	}
	if err := writeAtomic(s.FilePath, data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceUnavailable, err)
	}
	s.Data = next
	return nil
}

// writeAtomic writes to a temp file in the same directory and renames it
// over path, so readers see either the old or the new contents.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *JSONStorage) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Data[key]
	return v, ok, nil
}

func (s *JSONStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.copyData()
	next[key] = value
	return s.saveToFile(next)
}

func (s *JSONStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Data[key]; !ok {
		return nil
	}
	next := s.copyData()
	delete(next, key)
	return s.saveToFile(next)
}

func (s *JSONStorage) Close() error { return nil }

func (s *JSONStorage) copyData() map[string]string {
	next := make(map[string]string, len(s.Data)+1)
	for k, v := range s.Data {
		next[k] = v
	}
	return next
}
