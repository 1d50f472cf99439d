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

import "errors"

var (
	// ErrIndexUnavailable is returned when no snapshot has been
	// published yet. It is a query-level failure, retryable once a
	// snapshot exists, and must never be conflated with an empty
	// result set.
	ErrIndexUnavailable = errors.New("no index snapshot available")

	// ErrSnapshotMissing is returned when a persisted snapshot version
	// cannot be loaded from the store.
	ErrSnapshotMissing = errors.New("snapshot missing from store")

	// ErrDimensionMismatch is returned when a vector's dimension does
	// not match the snapshot's dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptSnapshot is returned when a persisted snapshot payload
	// fails to decode.
	ErrCorruptSnapshot = errors.New("corrupt snapshot payload")

	// ErrInvalidBuildConfig is returned when build parameters are out
	// of range.
	ErrInvalidBuildConfig = errors.New("invalid build config")
)
