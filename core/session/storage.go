package session

import (
	"context"

	"github.com/pkg/errors"
)

// Key is the persisted key holding the current user.
const Key = "user"

var ErrNoRecord = errors.New("no record")

// Storage is the durable key-value storage a session persists to.
// Get returns ErrNoRecord when the key is absent; Delete of an absent key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type namespaced struct {
	Storage
	prefix string
}

// Namespaced scopes every key of storage under ns, so that one backend can hold many sessions.
func Namespaced(storage Storage, ns string) Storage {
	return &namespaced{Storage: storage, prefix: "session:" + ns + ":"}
}

func (s *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return s.Storage.Get(ctx, s.prefix+key)
}

func (s *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return s.Storage.Set(ctx, s.prefix+key, value)
}

func (s *namespaced) Delete(ctx context.Context, key string) error {
	return s.Storage.Delete(ctx, s.prefix+key)
}
