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


// Package confidence computes a raw confidence score per candidate
// chunk from independently-computed factors.
//
// Each factor is tagged with its kind and weight and listed on the
// candidate only when present. The combined score is the weighted sum
// renormalized over present factors: a candidate missing an optional
// factor is never penalized with a zero-filled value.
//
// Factors:
//   - semantic: vector similarity from the broad search, rescaled to [0, 1]
//   - authority: document status (active > draft > archived)
//   - relevance: lexical word overlap, independent of the vector score
//   - structure: query-term overlap with the chunk's hierarchy path
//   - model: optional self-reported confidence from a generation model,
//     fetched with a bounded timeout and dropped on failure
//
// Scoring is deterministic for fixed inputs and weights, except that
// the optional model factor depends on an external service.
package confidence
