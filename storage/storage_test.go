package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/session"
)

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		driver string
		dsn    string
	}{
		{name: "memory", driver: DriverMemory},
		{name: "sqlite", driver: DriverSQLite, dsn: ":memory:"},
		{name: "redis", driver: DriverRedis},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			conf := core.NewTestConfig()
			conf.Storage.Driver = tc.driver
			conf.Storage.DSN = tc.dsn
			conf.Storage.Redis.Address = mr.Addr()

			backend, err := Open(ctx, conf)
			require.NoError(t, err)
			defer backend.Close()

			require.NoError(t, backend.Sessions.Set(ctx, session.Key, []byte("v")))
			value, err := backend.Sessions.Get(ctx, session.Key)
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), value)

			rewards, err := backend.Rewards.QueryRewards(ctx)
			require.NoError(t, err)
			assert.Empty(t, rewards)
		})
	}
}

func TestOpen_unsupportedDriver(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Storage.Driver = "mongo"

	_, err := Open(context.Background(), conf)
	assert.EqualError(t, err, `unsupported storage driver "mongo"`)
}
