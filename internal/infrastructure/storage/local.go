package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// KeyValueStore — абстракция локального долговечного хранилища.
// Ядро хранит ровно две логические записи: агрегат игровых данных
// и маркер текущего забега.
type KeyValueStore interface {
	// Get возвращает значение и признак его существования.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// FileStore — файловая реализация: одно значение = один файл в SaveDir.
// Запись атомарна: во временный файл с последующим rename, чтобы
// падение посреди записи не оставило полуобновлённый агрегат.
type FileStore struct {
	SaveDir string
}

// NewFileStore создает директорию, если её нет.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir %s: %w", dir, err)
	}
	return &FileStore{SaveDir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.SaveDir, key+".json")
}

func (s *FileStore) Get(key string) (string, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return string(b), true, nil
}

func (s *FileStore) Set(key, value string) error {
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("storage: commit %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %s: %w", key, err)
	}
	return nil
}
