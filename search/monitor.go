package search

import "github.com/practicalaiml/askdocs/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	Finish(results []*core.ScoredChunk)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                     {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)    {}
func (n *noopMonitor) Finish(_ []*core.ScoredChunk)       {}
