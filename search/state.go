package search

// State identifies one stage of a query evaluation. Every query walks
// Idle through Done in order; any failure transitions to Failed and
// stops the walk.
type State int

const (
	StateIdle State = iota
	StateBroadSearch
	StateScoring
	StateCalibrating
	StateGating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBroadSearch:
		return "BroadSearch"
	case StateScoring:
		return "Scoring"
	case StateCalibrating:
		return "Calibrating"
	case StateGating:
		return "Gating"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
