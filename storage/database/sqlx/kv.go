package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core/session"
)

type kvStorage struct {
	db *sqlx.DB
}

var _ session.Storage = (*kvStorage)(nil) // interface compliance check

// NewKVStorage returns a session.Storage backed by the kv_store table (see database.Migrate).
func NewKVStorage(db *sqlx.DB) session.Storage {
	return &kvStorage{db: db}
}

func (s *kvStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	q := s.db.Rebind(`SELECT value FROM kv_store WHERE key = ?`)
	if err := s.db.GetContext(ctx, &value, q, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, session.ErrNoRecord
		}
		return nil, errors.Wrap(err, "selecting key")
	}
	return value, nil
}

func (s *kvStorage) Set(ctx context.Context, key string, value []byte) error {
	q := s.db.Rebind(`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	_, err := s.db.ExecContext(ctx, q, key, value, time.Now().UTC())
	return errors.Wrap(err, "upserting key")
}

func (s *kvStorage) Delete(ctx context.Context, key string) error {
	q := s.db.Rebind(`DELETE FROM kv_store WHERE key = ?`)
	_, err := s.db.ExecContext(ctx, q, key)
	return errors.Wrap(err, "deleting key")
}
