package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DefaultTolerance is the allowed metric drop before a run counts as a
// regression.
const DefaultTolerance = 0.02

// Baseline records the aggregate metrics of an accepted benchmark run.
type Baseline struct {
	Dataset    string    `json:"dataset"`
	MeanNDCG   float64   `json:"meanNDCG"`
	MeanRecall float64   `json:"meanRecall"`
	RecordedAt time.Time `json:"recordedAt"`
}

// BaselineFromResult captures a run as the new baseline.
func BaselineFromResult(result *Result) *Baseline {
	return &Baseline{
		Dataset:    result.Dataset,
		MeanNDCG:   result.MeanNDCG,
		MeanRecall: result.MeanRecall,
		RecordedAt: time.Now().UTC(),
	}
}

// LoadBaseline reads a baseline from a JSON file.
func LoadBaseline(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode baseline: %w", err)
	}
	return &b, nil
}

// Save writes the baseline to a JSON file.
func (b *Baseline) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Comparison reports a run against a baseline.
type Comparison struct {
	NDCGDelta   float64
	RecallDelta float64
	Regressed   bool
}

// Compare checks a run against a baseline. A metric may drop by up to
// tolerance before the comparison reports a regression; improvements
// never do. A non-positive tolerance uses DefaultTolerance.
func Compare(result *Result, baseline *Baseline, tolerance float64) *Comparison {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	c := &Comparison{
		NDCGDelta:   result.MeanNDCG - baseline.MeanNDCG,
		RecallDelta: result.MeanRecall - baseline.MeanRecall,
	}
	c.Regressed = c.NDCGDelta < -tolerance || c.RecallDelta < -tolerance
	return c
}
