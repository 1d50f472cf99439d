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


// Package calibrate maps raw confidence scores onto empirically
// accurate probabilities.
//
// The mapping is a bucketed isotonic fit over the calibration record
// history: predictions are grouped into equal-width confidence
// buckets, each well-populated bucket takes its observed accuracy, and
// a pool-adjacent-violators pass enforces monotonicity across buckets.
// Buckets with too little history fall back to the identity value
// rather than fabricating one.
//
// Mappings are immutable and versioned. The Calibrator refits on a
// schedule in a background single-writer loop and publishes each new
// mapping with an atomic pointer swap; a query binds to the mapping
// current at query start and keeps it for its whole lifetime, so
// calibrated confidence is monotonic in raw confidence within any one
// version.
package calibrate
