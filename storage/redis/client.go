package redisdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/edupoints/core"
)

const (
	dialTimeout = 10 * time.Second
	ioTimeout   = 30 * time.Second
	pingTimeout = 5 * time.Second
)

// NewClient connects to the Redis server configured by conf.Storage.Redis.
func NewClient(conf *core.Config) (*redis.Client, error) {
	rconf := conf.Storage.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         rconf.Address,
		Password:     rconf.Password,
		DB:           rconf.DB,
		PoolSize:     rconf.PoolSize,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		PoolTimeout:  ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", rconf.Address)
	}
	return rdb, nil
}
