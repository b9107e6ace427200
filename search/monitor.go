package search

import "github.com/pelagiclabs/docvault/core"

// Monitor provides hooks to observe a search as it runs.
// Implement this interface to track per-backend progress and results.
type Monitor interface {
	Start(query string, backends []string)
	BackendResults(backend string, results []*core.SearchResult)
	BackendFailed(backend string, err error)
	Finish(combined []*core.SearchResult)
}

// noopMonitor is a no-op implementation of Monitor.
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ []string)                     {}
func (n *noopMonitor) BackendResults(_ string, _ []*core.SearchResult) {}
func (n *noopMonitor) BackendFailed(_ string, _ error)                {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                  {}
