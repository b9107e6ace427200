package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pelagiclabs/docvault/core"
)

// Engine runs queries against one or more backends. The first backend is
// the default for single-backend searches.
type Engine struct {
	backends []Backend
	byName   map[string]Backend
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a search engine over the given backends.
func NewEngine(backends []Backend, opts ...Option) (*Engine, error) {
	if len(backends) == 0 {
		return nil, ErrBackendRequired
	}

	byName := make(map[string]Backend, len(backends))
	for _, backend := range backends {
		byName[backend.Name()] = backend
	}

	e := &Engine{
		backends: backends,
		byName:   byName,
		logger:   slog.Default().With("component", "search-engine"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Backends returns the names of the registered backends, in registration
// order.
func (e *Engine) Backends() []string {
	names := make([]string, len(e.backends))
	for i, backend := range e.backends {
		names[i] = backend.Name()
	}
	return names
}

// Search runs the query against the default backend.
func (e *Engine) Search(ctx context.Context, query string, matchCount int, filter map[string]string) ([]*core.SearchResult, error) {
	return e.backends[0].Search(ctx, query, matchCount, filter)
}

// MultiResult holds the outcome of a fan-out search.
type MultiResult struct {
	// PerBackend maps backend name to its results. Failed backends are
	// present in Errors instead.
	PerBackend map[string][]*core.SearchResult

	// Combined merges all backend results by descending similarity,
	// capped at twice the requested match count.
	Combined []*core.SearchResult

	// Errors maps backend name to its failure, if any.
	Errors map[string]error
}

// SearchMulti runs the query against the named backends, or all backends
// when names is empty. A failing backend is recorded and skipped rather
// than failing the whole search; an error is returned only when no backend
// succeeded or a name is unknown.
func (e *Engine) SearchMulti(ctx context.Context, query string, names []string, matchCount int, monitor Monitor) (*MultiResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if len(names) == 0 {
		names = e.Backends()
	}

	backends := make([]Backend, 0, len(names))
	for _, name := range names {
		backend, ok := e.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
		}
		backends = append(backends, backend)
	}

	monitor.Start(query, names)
	result := &MultiResult{
		PerBackend: make(map[string][]*core.SearchResult, len(backends)),
		Errors:     make(map[string]error),
	}

	for _, backend := range backends {
		results, err := backend.Search(ctx, query, matchCount, nil)
		if err != nil {
			e.logger.Warn("search backend failed", "backend", backend.Name(), "err", err)
			monitor.BackendFailed(backend.Name(), err)
			result.Errors[backend.Name()] = err
			continue
		}
		monitor.BackendResults(backend.Name(), results)
		result.PerBackend[backend.Name()] = results
		result.Combined = append(result.Combined, results...)
	}

	if len(result.PerBackend) == 0 {
		return nil, ErrAllBackendsFailed
	}

	sort.SliceStable(result.Combined, func(i, j int) bool {
		return result.Combined[i].Similarity > result.Combined[j].Similarity
	})
	if limit := 2 * matchCount; len(result.Combined) > limit {
		result.Combined = result.Combined[:limit]
	}

	monitor.Finish(result.Combined)
	return result, nil
}
