package inmemdb

import (
	"context"

	"github.com/trezcool/edupoints/core/session"
)

type kvStorage struct {
	db *kvTable
}

var _ session.Storage = (*kvStorage)(nil) // interface compliance check

func NewKVStorage(db *DB) session.Storage {
	return &kvStorage{db: db.kv}
}

func (s *kvStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.db.RLock()
	defer s.db.RUnlock()

	value, ok := s.db.table[key]
	if !ok {
		return nil, session.ErrNoRecord
	}
	return append([]byte(nil), value...), nil
}

func (s *kvStorage) Set(_ context.Context, key string, value []byte) error {
	s.db.Lock()
	defer s.db.Unlock()

	s.db.table[key] = append([]byte(nil), value...)
	return nil
}

func (s *kvStorage) Delete(_ context.Context, key string) error {
	s.db.Lock()
	defer s.db.Unlock()

	delete(s.db.table, key)
	return nil
}
