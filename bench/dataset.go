package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/retrievit/core"
)

// Query is one labeled benchmark query. Relevance maps chunk IDs to
// graded judgments; a grade of 0 marks an explicitly irrelevant chunk.
type Query struct {
	Id        string              `json:"id"`
	Text      string              `json:"text"`
	Relevance map[core.ID]float64 `json:"relevance"`
}

// Dataset is a named set of labeled queries.
type Dataset struct {
	Name    string  `json:"name"`
	Queries []Query `json:"queries"`
}

// ReadDataset decodes a dataset from JSON.
func ReadDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	if len(ds.Queries) == 0 {
		return nil, ErrEmptyDataset
	}
	return &ds, nil
}

// LoadDataset reads a dataset from a JSON file.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDataset(f)
}
