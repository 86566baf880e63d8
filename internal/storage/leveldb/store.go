// Package leveldb stores session records in a local LevelDB database. It is
// the default durable store for a single client.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// Store satisfies session.Store over a LevelDB handle.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates the database directory at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("LevelDB 路径不能为空")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("打开 LevelDB 失败: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a database that lives only in process memory.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("打开内存 LevelDB 失败: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the record under key; a missing key is reported as absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, err := s.db.Get([]byte(key), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("读取 LevelDB 会话记录失败: %w", err)
	}
	return string(value), true, nil
}

// Set overwrites the record under key and syncs it to disk.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Put([]byte(key), []byte(value), &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("写入 LevelDB 会话记录失败: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
