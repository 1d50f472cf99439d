package search

import "github.com/poiesic/retrievit/core"

// Monitor provides hooks to observe a query evaluation.
// Implement this interface to track state transitions and intermediate
// candidates during a search.
type Monitor interface {
	Start(queryId, text string)
	StateChange(from, to State)
	AfterBroadSearch(candidates []*core.Candidate, partial bool)
	AfterScoring(candidates []*core.Candidate)
	AfterCalibrating(candidates []*core.Candidate)
	AfterGating(kept []*core.Candidate, dropped int)
	Finish(response *Response)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                             {}
func (n *noopMonitor) StateChange(_, _ State)                        {}
func (n *noopMonitor) AfterBroadSearch(_ []*core.Candidate, _ bool)  {}
func (n *noopMonitor) AfterScoring(_ []*core.Candidate)              {}
func (n *noopMonitor) AfterCalibrating(_ []*core.Candidate)          {}
func (n *noopMonitor) AfterGating(_ []*core.Candidate, _ int)        {}
func (n *noopMonitor) Finish(_ *Response)                            {}
