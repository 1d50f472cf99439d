package bench

import "errors"

var (
	// ErrQueryServiceRequired is returned when a query service is not provided.
	ErrQueryServiceRequired = errors.New("query service required")

	// ErrEmptyDataset is returned when a dataset contains no queries.
	ErrEmptyDataset = errors.New("dataset contains no queries")
)
