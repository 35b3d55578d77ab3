package redisdb

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/session"
)

type kvStorage struct {
	rdb redis.Cmdable
}

var _ session.Storage = (*kvStorage)(nil) // interface compliance check

func NewKVStorage(rdb redis.Cmdable) session.Storage {
	return &kvStorage{rdb: rdb}
}

func (s *kvStorage) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, session.ErrNoRecord
		}
		return nil, wrapErr(err, "getting", key)
	}
	return value, nil
}

// Set stores value without expiration: a session lasts until logout.
func (s *kvStorage) Set(ctx context.Context, key string, value []byte) error {
	return wrapErr(s.rdb.Set(ctx, key, value, 0).Err(), "setting", key)
}

func (s *kvStorage) Delete(ctx context.Context, key string) error {
	return wrapErr(s.rdb.Del(ctx, key).Err(), "deleting", key)
}

// wrapErr turns a closed client into a shutdown error: no session can be served anymore.
func wrapErr(err error, op, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.ErrClosed) {
		return core.NewShutdownError(fmt.Sprintf("redis client closed while %s %q", op, key))
	}
	return errors.Wrapf(err, "%s %q", op, key)
}
