// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package vector

import "fmt"

// BuildConfig holds the HNSW construction parameters. The config is
// persisted inside each snapshot so a rebuild with the same config and
// chunks reproduces the same graph.
type BuildConfig struct {
	// M is the maximum number of bidirectional links per node above
	// level zero. Level zero allows 2*M links.
	M int

	// EfConstruction is the size of the dynamic candidate list during
	// graph construction. Larger values build a better graph, slower.
	EfConstruction int

	// EfSearch is the minimum size of the dynamic candidate list
	// during search. The effective value is max(EfSearch, k).
	EfSearch int

	// Seed feeds the RNG used for level assignment. Builds over the
	// same chunks with the same seed are identical.
	Seed int64
}

// BuildOption is a functional option for configuring a BuildConfig.
type BuildOption func(*BuildConfig)

// WithM sets the per-node link budget above level zero.
func WithM(m int) BuildOption {
	return func(c *BuildConfig) {
		c.M = m
	}
}

// WithEfConstruction sets the construction-time candidate list size.
func WithEfConstruction(ef int) BuildOption {
	return func(c *BuildConfig) {
		c.EfConstruction = ef
	}
}

// WithEfSearch sets the search-time candidate list floor.
func WithEfSearch(ef int) BuildOption {
	return func(c *BuildConfig) {
		c.EfSearch = ef
	}
}

// WithSeed sets the level-assignment RNG seed.
func WithSeed(seed int64) BuildOption {
	return func(c *BuildConfig) {
		c.Seed = seed
	}
}

// DefaultBuildConfig returns construction parameters suited to corpora
// in the tens of thousands of chunks.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		M:              16,
		EfConstruction: 200,
		EfSearch:       128,
		Seed:           1,
	}
}

// Validate checks the parameters are in range.
func (c BuildConfig) Validate() error {
	if c.M < 2 {
		return fmt.Errorf("%w: M must be at least 2, got %d", ErrInvalidBuildConfig, c.M)
	}
	if c.EfConstruction < c.M {
		return fmt.Errorf("%w: EfConstruction %d below M %d", ErrInvalidBuildConfig, c.EfConstruction, c.M)
	}
	if c.EfSearch < 1 {
		return fmt.Errorf("%w: EfSearch must be positive, got %d", ErrInvalidBuildConfig, c.EfSearch)
	}
	return nil
}
