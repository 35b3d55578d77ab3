// Package loader sequences simulated page loads.
//
// Each Load takes a new generation token before waiting out its simulated latency. When it wakes up
// and a newer Load has started meanwhile, its work is skipped and ErrStale is returned, so rapid
// re-navigation never publishes an outdated result.
package loader

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edupoints/core"
)

var ErrStale = errors.New("request superseded")

type Loader struct {
	mu         sync.Mutex
	generation uint64
}

func (l *Loader) next() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	return l.generation
}

func (l *Loader) isCurrent(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation == gen
}

// Load waits delay, then runs fn unless a newer Load was started in the meantime.
func (l *Loader) Load(ctx context.Context, delay time.Duration, fn func() error) error {
	gen := l.next()
	if err := core.Sleep(ctx, delay); err != nil {
		return errors.Wrap(err, "loading")
	}
	if !l.isCurrent(gen) {
		return ErrStale
	}
	return fn()
}

// Registry hands out one Loader per key (eg. browsing session + page).
type Registry struct {
	mu      sync.Mutex
	loaders map[string]*Loader
}

func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]*Loader)}
}

func (r *Registry) Get(key string) *Loader {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loaders[key]
	if !ok {
		l = new(Loader)
		r.loaders[key] = l
	}
	return l
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loaders)
}

// Forget drops every loader whose key starts with prefix.
func (r *Registry) Forget(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.loaders {
		if strings.HasPrefix(key, prefix) {
			delete(r.loaders, key)
		}
	}
}
