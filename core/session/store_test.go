package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/mockgen"
	"github.com/trezcool/edupoints/core/user"
)

// memStorage is a minimal Storage recording its calls.
type memStorage struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (s *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNoRecord
	}
	return v, nil
}

func (s *memStorage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

func openTestStore(t *testing.T, storage Storage, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithDelay(0), WithGenerator(mockgen.NewSeeded(42))}, opts...)
	s, err := Open(context.Background(), storage, opts...)
	require.NoError(t, err)
	return s
}

func TestOpen_empty(t *testing.T) {
	s := openTestStore(t, newMemStorage())

	assert.Equal(t, StateUnauthenticated, s.State())
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.IsAuthenticating())
	_, ok := s.CurrentUser()
	assert.False(t, ok)
	_, ok = s.LastError()
	assert.False(t, ok)
}

func TestStore_Login_teacher(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	s := openTestStore(t, storage)

	acct, err := s.Login(ctx, "a@b.com", "secret", user.RoleTeacher)
	require.NoError(t, err)

	teacher, ok := acct.(*user.Teacher)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", teacher.Email)
	assert.Equal(t, user.RoleTeacher, teacher.Role)
	assert.Len(t, teacher.ClassIDs, 3)

	assert.Equal(t, StateAuthenticated, s.State())
	assert.True(t, s.IsAuthenticated())
	cur, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, acct, cur)

	// persisted
	data, err := storage.Get(ctx, Key)
	require.NoError(t, err)
	stored, err := user.UnmarshalAccount(data)
	require.NoError(t, err)
	assert.Equal(t, acct, stored)
}

func TestStore_CurrentUser_isACopy(t *testing.T) {
	s := openTestStore(t, newMemStorage())
	_, err := s.Login(context.Background(), "a@b.com", "secret", user.RoleTeacher)
	require.NoError(t, err)

	cur, _ := s.CurrentUser()
	cur.(*user.Teacher).ClassIDs[0] = "changed"
	cur.SetEmail("x@y.com")

	again, _ := s.CurrentUser()
	assert.Equal(t, "a@b.com", again.Identity().Email)
	assert.NotEqual(t, "changed", again.(*user.Teacher).ClassIDs[0])
}

func TestStore_restore(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	s := openTestStore(t, storage)
	acct, err := s.Login(ctx, "a@b.com", "secret", user.RoleStudent)
	require.NoError(t, err)

	// a new store over the same storage, as after a restart
	restored := openTestStore(t, storage)
	assert.Equal(t, StateAuthenticated, restored.State())
	cur, ok := restored.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, acct, cur)
}

func TestStore_restore_malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{not json"},
		{name: "unknown role", data: `{"id":"u1","role":"admin"}`},
		{name: "missing id", data: `{"role":"student"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			storage := newMemStorage()
			storage.data[Key] = []byte(tc.data)

			s := openTestStore(t, storage)
			assert.Equal(t, StateUnauthenticated, s.State())
			assert.False(t, s.IsAuthenticated())
			assert.False(t, storage.has(Key))
		})
	}
}

func TestOpen_storageError(t *testing.T) {
	storage := newMemStorage()
	storage.getErr = errors.New("connection refused")

	s, err := Open(context.Background(), storage, WithDelay(0))
	assert.Error(t, err)
	require.NotNil(t, s)
	assert.Equal(t, StateUnauthenticated, s.State())
}

func TestStore_Logout(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	s := openTestStore(t, storage)
	_, err := s.Login(ctx, "a@b.com", "secret", user.RoleStudent)
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, StateUnauthenticated, s.State())
	assert.False(t, s.IsAuthenticated())
	assert.False(t, storage.has(Key))

	// idempotent
	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, StateUnauthenticated, openTestStore(t, storage).State())
}

func TestStore_Login_failure(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	var fail bool
	gen := mockgen.NewSeeded(42)
	s := openTestStore(t, storage, WithAccountFactory(func(role user.Role) (user.Account, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return gen.Account(role), nil
	}))

	prev, err := s.Login(ctx, "a@b.com", "secret", user.RoleTeacher)
	require.NoError(t, err)

	fail = true
	acct, err := s.Login(ctx, "c@d.com", "secret", user.RoleStudent)
	assert.Nil(t, acct)
	require.Error(t, err)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok)
	assert.Equal(t, ErrLoginFailed, vErr.Err)

	assert.Equal(t, StateError, s.State())
	msg, ok := s.LastError()
	assert.True(t, ok)
	assert.Equal(t, LoginFailedMessage, msg)

	// the previous account stays current and persisted
	cur, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, prev, cur)
	assert.Equal(t, prev, openTestStore(t, storage).mustCurrentUser(t))

	// the next attempt clears the error
	fail = false
	_, err = s.Login(ctx, "c@d.com", "secret", user.RoleStudent)
	require.NoError(t, err)
	_, ok = s.LastError()
	assert.False(t, ok)
	assert.Equal(t, StateAuthenticated, s.State())
}

func TestStore_Login_storageFailure(t *testing.T) {
	storage := newMemStorage()
	storage.setErr = errors.New("disk full")
	s := openTestStore(t, storage)

	_, err := s.Login(context.Background(), "a@b.com", "secret", user.RoleStudent)
	assert.Error(t, err)
	assert.Equal(t, StateError, s.State())
	assert.False(t, s.IsAuthenticated())
}

func TestStore_Login_delay(t *testing.T) {
	s := openTestStore(t, newMemStorage(), WithDelay(100*time.Millisecond))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Login(context.Background(), "a@b.com", "secret", user.RoleStudent)
	}()

	assert.Eventually(t, s.IsAuthenticating, time.Second, 5*time.Millisecond)
	<-done
	assert.False(t, s.IsAuthenticating())
	assert.True(t, s.IsAuthenticated())
}

func TestStore_Login_canceled(t *testing.T) {
	s := openTestStore(t, newMemStorage(), WithDelay(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Login(ctx, "a@b.com", "secret", user.RoleStudent)
	assert.Error(t, err)
	assert.Equal(t, StateError, s.State())
}

func TestStore_concurrentLogins(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	s := openTestStore(t, storage)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			role := user.RoleStudent
			if i%2 == 0 {
				role = user.RoleTeacher
			}
			_, _ = s.Login(ctx, "a@b.com", "secret", role)
		}(i)
	}
	wg.Wait()

	// memory and storage agree on the last login
	cur, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, cur, openTestStore(t, storage).mustCurrentUser(t))
}

func (s *Store) mustCurrentUser(t *testing.T) user.Account {
	t.Helper()
	acct, ok := s.CurrentUser()
	require.True(t, ok)
	return acct
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "State(9)", State(9).String())
}
