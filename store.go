package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// StorageKey names the single slot holding the analytics document. It is
// the file name stem for the file backend and the row key for sqlite.
const StorageKey = "bex_sites_analytics"

// BlobStore is the persistence boundary for the analytics document: one
// named slot, read whole, written whole. ok is false when the slot has
// never been written.
type BlobStore interface {
	Get() (data []byte, ok bool, err error)
	Put(data []byte) error
}

// FileBlobStore keeps the document in a single JSON file.
type FileBlobStore struct {
	path string
}

func NewFileBlobStore(path string) *FileBlobStore {
	return &FileBlobStore{path: path}
}

func (s *FileBlobStore) Get() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *FileBlobStore) Put(data []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0644)
}

// SQLiteBlobStore keeps the document as a single row in a key/value
// table. Same whole-document semantics as the file backend.
type SQLiteBlobStore struct {
	db  *sql.DB
	key string
}

func OpenSQLiteBlobStore(path string) (*SQLiteBlobStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key        TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteBlobStore{db: db, key: StorageKey}, nil
}

func (s *SQLiteBlobStore) Get() ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM blobs WHERE key = ?`, s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *SQLiteBlobStore) Put(data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO blobs (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		s.key, data,
	)
	return err
}

func (s *SQLiteBlobStore) Close() error {
	return s.db.Close()
}

// OpenBlobStore selects the backend from config. The returned closer is
// a no-op for the file backend.
func OpenBlobStore(cfg Config) (BlobStore, func() error, error) {
	switch cfg.StorageBackend {
	case "file":
		return NewFileBlobStore(cfg.StoragePath), func() error { return nil }, nil
	case "sqlite":
		s, err := OpenSQLiteBlobStore(cfg.StoragePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
