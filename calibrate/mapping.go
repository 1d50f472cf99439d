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


package calibrate

import (
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/retrievit/core"
)

// ErrCalibrationDataSparse marks a fit that fell back to identity for
// one or more buckets. It is logged, never fatal.
var ErrCalibrationDataSparse = errors.New("calibration history too sparse")

// NumBuckets is the number of equal-width confidence buckets.
const NumBuckets = 10

// DefaultMinBucketObservations is the history a bucket needs before
// its observed accuracy replaces the identity value.
const DefaultMinBucketObservations = 5

// Mapping is one immutable, versioned calibration mapping. All fields
// are written during Fit and never mutated, so a mapping is safe for
// unsynchronized concurrent use.
type Mapping struct {
	version       uint64
	fittedAt      time.Time
	observations  int
	sparseBuckets int
	// values[i] is the calibrated value at the center of bucket i.
	// The curve interpolates linearly between (0, 0), the bucket
	// centers, and (1, 1), which makes an all-sparse fit the exact
	// identity function.
	values [NumBuckets]float64
	fitted [NumBuckets]bool
}

// Identity returns the mapping used before any history exists:
// version 0, calibrated == raw.
func Identity() *Mapping {
	m := &Mapping{fittedAt: time.Now().UTC(), sparseBuckets: NumBuckets}
	for i := range m.values {
		m.values[i] = bucketCenter(i)
	}
	return m
}

// Fit builds a mapping from the calibration record history. Buckets
// with fewer than minObs observations keep their identity value; the
// pool-adjacent-violators pass then enforces monotonicity across the
// full bucket sequence. Records with out-of-range predictions are
// ignored.
func Fit(records []*core.CalibrationRecord, version uint64, minObs int) *Mapping {
	if minObs < 1 {
		minObs = DefaultMinBucketObservations
	}

	var counts [NumBuckets]int
	var correct [NumBuckets]int
	total := 0
	for _, r := range records {
		if r == nil || r.Predicted < 0 || r.Predicted > 1 {
			continue
		}
		b := bucketIndex(r.Predicted)
		counts[b]++
		if r.Correct {
			correct[b]++
		}
		total++
	}

	m := &Mapping{
		version:      version,
		fittedAt:     time.Now().UTC(),
		observations: total,
	}
	weights := make([]float64, NumBuckets)
	for i := 0; i < NumBuckets; i++ {
		if counts[i] >= minObs {
			m.values[i] = float64(correct[i]) / float64(counts[i])
			m.fitted[i] = true
			weights[i] = float64(counts[i])
		} else {
			m.values[i] = bucketCenter(i)
			m.sparseBuckets++
			weights[i] = 1
		}
	}

	poolAdjacentViolators(m.values[:], weights)

	if m.sparseBuckets > 0 {
		slog.Warn("calibration fit used identity fallback",
			"err", ErrCalibrationDataSparse,
			"version", version,
			"sparse_buckets", m.sparseBuckets,
			"observations", total)
	}
	return m
}

// Calibrate maps a raw confidence onto the fitted curve. The result is
// monotonic non-decreasing in raw within this mapping version.
func (m *Mapping) Calibrate(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	if raw >= 1 {
		return 1
	}

	// Knots: (0, 0), bucket centers, (1, 1).
	prevX, prevY := 0.0, 0.0
	for i := 0; i < NumBuckets; i++ {
		x := bucketCenter(i)
		if raw <= x {
			return lerp(raw, prevX, prevY, x, m.values[i])
		}
		prevX, prevY = x, m.values[i]
	}
	return lerp(raw, prevX, prevY, 1.0, 1.0)
}

// Version returns the mapping's generation number.
func (m *Mapping) Version() uint64 {
	return m.version
}

// FittedAt returns when the mapping was computed.
func (m *Mapping) FittedAt() time.Time {
	return m.fittedAt
}

// Observations returns how many records the fit consumed.
func (m *Mapping) Observations() int {
	return m.observations
}

// SparseBuckets returns how many buckets fell back to identity.
func (m *Mapping) SparseBuckets() int {
	return m.sparseBuckets
}

// IsIdentity reports whether every bucket uses the identity fallback.
func (m *Mapping) IsIdentity() bool {
	return m.sparseBuckets == NumBuckets
}

func bucketIndex(p float64) int {
	b := int(p * NumBuckets)
	if b >= NumBuckets {
		b = NumBuckets - 1
	}
	return b
}

func bucketCenter(i int) float64 {
	return (float64(i) + 0.5) / NumBuckets
}

func lerp(x, x0, y0, x1, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// poolAdjacentViolators enforces non-decreasing values in place using
// weighted averaging of violating neighbor blocks.
func poolAdjacentViolators(values, weights []float64) {
	n := len(values)
	// blocks of pooled indices, represented by running value/weight.
	blockValue := make([]float64, 0, n)
	blockWeight := make([]float64, 0, n)
	blockSize := make([]int, 0, n)

	for i := 0; i < n; i++ {
		blockValue = append(blockValue, values[i])
		blockWeight = append(blockWeight, weights[i])
		blockSize = append(blockSize, 1)

		for len(blockValue) > 1 {
			last := len(blockValue) - 1
			if blockValue[last-1] <= blockValue[last] {
				break
			}
			// Pool the two violating blocks.
			w := blockWeight[last-1] + blockWeight[last]
			v := (blockValue[last-1]*blockWeight[last-1] + blockValue[last]*blockWeight[last]) / w
			blockValue[last-1] = v
			blockWeight[last-1] = w
			blockSize[last-1] += blockSize[last]
			blockValue = blockValue[:last]
			blockWeight = blockWeight[:last]
			blockSize = blockSize[:last]
		}
	}

	idx := 0
	for b := range blockValue {
		for k := 0; k < blockSize[b]; k++ {
			values[idx] = blockValue[b]
			idx++
		}
	}
}
