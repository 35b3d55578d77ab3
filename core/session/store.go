package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/mockgen"
	"github.com/trezcool/edupoints/core/user"
)

// DefaultLoginDelay is the simulated latency of a login call.
const DefaultLoginDelay = 1000 * time.Millisecond

const LoginFailedMessage = "Login failed. Please check your credentials and try again."

var ErrLoginFailed = errors.New(LoginFailedMessage)

type State int

// States
const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
	StateError
)

var stateNames = map[State]string{
	StateLoading:         "loading",
	StateUnauthenticated: "unauthenticated",
	StateAuthenticated:   "authenticated",
	StateError:           "error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AccountFactory builds the account a login resolves to.
type AccountFactory func(role user.Role) (user.Account, error)

type Option func(*Store)

func WithDelay(d time.Duration) Option {
	return func(s *Store) { s.delay = d }
}

func WithAccountFactory(f AccountFactory) Option {
	return func(s *Store) { s.factory = f }
}

func WithGenerator(gen *mockgen.Generator) Option {
	return WithAccountFactory(func(role user.Role) (user.Account, error) {
		return gen.Account(role), nil
	})
}

func WithLogger(logger core.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Store tracks at most one authenticated account, persisted under Key.
// Login and Logout are serialized; the read side never waits on them.
type Store struct {
	storage Storage
	factory AccountFactory
	delay   time.Duration
	logger  core.Logger

	transition sync.Mutex

	mu      sync.RWMutex
	state   State
	acct    user.Account
	lastErr string
}

// Open reads the persisted account. A malformed record is discarded.
// The returned error only reports a storage failure; the Store is then Unauthenticated.
func Open(ctx context.Context, storage Storage, opts ...Option) (*Store, error) {
	s := &Store{
		storage: storage,
		delay:   DefaultLoginDelay,
		state:   StateLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		WithGenerator(mockgen.NewUnseeded())(s)
	}
	return s, s.restore(ctx)
}

func (s *Store) restore(ctx context.Context) error {
	s.transition.Lock()
	defer s.transition.Unlock()

	acct, err := s.read(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct != nil {
		s.state = StateAuthenticated
		s.acct = acct
	} else {
		s.state = StateUnauthenticated
	}
	return err
}

func (s *Store) read(ctx context.Context) (user.Account, error) {
	data, err := s.storage.Get(ctx, Key)
	if err != nil {
		if errors.Cause(err) == ErrNoRecord {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading stored user")
	}

	acct, err := user.UnmarshalAccount(data)
	if err != nil {
		s.warn("Error parsing stored user", err)
		if err = s.storage.Delete(ctx, Key); err != nil {
			return nil, errors.Wrap(err, "discarding stored user")
		}
		return nil, nil
	}
	return acct, nil
}

// Login simulates an API call, then authenticates a mock account of the given role under email.
// The password is not checked.
func (s *Store) Login(ctx context.Context, email, password string, role user.Role) (user.Account, error) {
	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	s.state = StateLoading
	s.lastErr = ""
	s.mu.Unlock()

	acct, err := s.login(ctx, email, role)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// the previous account, if any, stays current
		s.state = StateError
		s.lastErr = LoginFailedMessage
		if s.logger != nil {
			s.logger.Error("Login error", err)
		}
		return nil, core.NewValidationError(ErrLoginFailed)
	}
	s.state = StateAuthenticated
	s.acct = acct
	return acct.Clone(), nil
}

func (s *Store) login(ctx context.Context, email string, role user.Role) (user.Account, error) {
	if err := core.Sleep(ctx, s.delay); err != nil {
		return nil, errors.Wrap(err, "simulating login call")
	}

	acct, err := s.factory(role)
	if err != nil {
		return nil, errors.Wrap(err, "creating account")
	}
	acct.SetEmail(email)

	data, err := user.MarshalAccount(acct)
	if err != nil {
		return nil, errors.Wrap(err, "encoding account")
	}
	if err = s.storage.Set(ctx, Key, data); err != nil {
		return nil, errors.Wrap(err, "storing user")
	}
	return acct, nil
}

// Logout always clears the session. The error only reports a failure to remove the persisted key.
func (s *Store) Logout(ctx context.Context) error {
	s.transition.Lock()
	defer s.transition.Unlock()

	err := s.storage.Delete(ctx, Key)

	s.mu.Lock()
	s.state = StateUnauthenticated
	s.acct = nil
	s.lastErr = ""
	s.mu.Unlock()

	return errors.Wrap(err, "removing stored user")
}

// CurrentUser returns a copy of the current account.
func (s *Store) CurrentUser() (user.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.acct == nil {
		return nil, false
	}
	return s.acct.Clone(), true
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acct != nil
}

func (s *Store) IsAuthenticating() bool {
	return s.State() == StateLoading
}

func (s *Store) LastError() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr, s.lastErr != ""
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, err)
	}
}
