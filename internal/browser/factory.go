package browser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/raysh454/brandscout/internal/logging"
)

// BackendConstructor constructs a Fetcher given the options and logger.
type BackendConstructor func(opts Options, logger logging.Logger) (Fetcher, error)

// DefaultBackend is used when no backend is configured.
const DefaultBackend = "chromedp"

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
)

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally. Calling RegisterBackend with the same name overwrites the previous
// constructor.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// NewFetcher constructs the named backend. It returns an error if the named
// backend has not been registered.
func NewFetcher(backend string, opts Options, logger logging.Logger) (Fetcher, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = DefaultBackend
	}

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("browser backend %q not registered: available backends=%v", backend, ListBackends())
	}

	f, err := ctor(opts.withDefaults(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct browser backend %q: %w", backend, err)
	}
	if f == nil {
		return nil, errors.New("browser backend constructor returned nil")
	}
	return f, nil
}

// ListBackends returns the sorted list of registered backend names.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
