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

package bench

import (
	"math"
	"slices"

	"github.com/poiesic/retrievit/core"
)

const (
	// NDCGCutoff is the rank depth for the nDCG metric.
	NDCGCutoff = 10

	// RecallCutoff is the rank depth for the recall metric.
	RecallCutoff = 100
)

// NDCGAt computes the normalized discounted cumulative gain of a ranked
// result list at depth k, given graded relevance judgments. Chunks
// absent from the judgments have gain 0. Returns 0 when the judgments
// contain no relevant chunk.
func NDCGAt(k int, ranked []core.ID, relevance map[core.ID]float64) float64 {
	if k <= 0 || len(relevance) == 0 {
		return 0
	}

	dcg := 0.0
	for i, id := range ranked {
		if i >= k {
			break
		}
		if gain, ok := relevance[id]; ok && gain > 0 {
			dcg += (math.Pow(2, gain) - 1) / math.Log2(float64(i)+2)
		}
	}

	// Ideal ordering: judgments sorted by grade, best first.
	grades := make([]float64, 0, len(relevance))
	for _, gain := range relevance {
		if gain > 0 {
			grades = append(grades, gain)
		}
	}
	if len(grades) == 0 {
		return 0
	}
	slices.Sort(grades)
	slices.Reverse(grades)

	idcg := 0.0
	for i, gain := range grades {
		if i >= k {
			break
		}
		idcg += (math.Pow(2, gain) - 1) / math.Log2(float64(i)+2)
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// RecallAt computes the fraction of relevant chunks found within the
// top k ranked results. Returns 0 when the judgments contain no
// relevant chunk.
func RecallAt(k int, ranked []core.ID, relevance map[core.ID]float64) float64 {
	if k <= 0 {
		return 0
	}

	relevant := 0
	for _, gain := range relevance {
		if gain > 0 {
			relevant++
		}
	}
	if relevant == 0 {
		return 0
	}

	found := 0
	for i, id := range ranked {
		if i >= k {
			break
		}
		if gain, ok := relevance[id]; ok && gain > 0 {
			found++
		}
	}
	return float64(found) / float64(relevant)
}
