// Package storage opens the backend configured by conf.Storage.Driver.
package storage

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/reward"
	"github.com/trezcool/edupoints/core/session"
	"github.com/trezcool/edupoints/storage/database"
	inmemdb "github.com/trezcool/edupoints/storage/database/inmem"
	sqlxrepos "github.com/trezcool/edupoints/storage/database/sqlx"
	redisdb "github.com/trezcool/edupoints/storage/redis"
)

// Drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Backend struct {
	Sessions session.Storage
	Rewards  reward.Repository

	closers []func() error
}

func (b *Backend) Close() error {
	var firstErr error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Open connects to the configured backend. The redis driver keeps rewards in memory.
func Open(ctx context.Context, conf *core.Config) (*Backend, error) {
	switch conf.Storage.Driver {
	case DriverMemory, "":
		db := inmemdb.Open()
		return &Backend{
			Sessions: inmemdb.NewKVStorage(db),
			Rewards:  inmemdb.NewRewardRepository(db),
		}, nil

	case DriverSQLite, DriverPostgres:
		db, err := database.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if err = database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Backend{
			Sessions: sqlxrepos.NewKVStorage(db),
			Rewards:  sqlxrepos.NewRewardRepository(db),
			closers:  []func() error{db.Close},
		}, nil

	case DriverRedis:
		rdb, err := redisdb.NewClient(conf)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Sessions: redisdb.NewKVStorage(rdb),
			Rewards:  inmemdb.NewRewardRepository(inmemdb.Open()),
			closers:  []func() error{rdb.Close},
		}, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", conf.Storage.Driver)
}
