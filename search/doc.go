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


// Package search orchestrates query evaluation as an explicit state
// machine: Idle, BroadSearch, Scoring, Calibrating, Gating, Done, with
// Failed as the terminal failure state.
//
// The broad pass asks the vector snapshot for a deliberately large
// candidate set (recall over precision); scoring and calibration form
// the deep pass; gating drops everything below the confidence
// threshold. Every query binds to one immutable snapshot and one
// calibration mapping version at start, so concurrent queries never
// observe a half-updated index.
//
// Empty results always carry a reason code. NoMatch means the broad
// search legitimately found nothing; LowConfidence means candidates
// existed but none passed the gate; IndexUnavailable is a failure,
// not an empty success; AnomalousZeroScores flags the suspicious
// all-candidates-scored-exactly-zero pattern so a silent pipeline
// malfunction can never masquerade as an empty corpus.
//
// Cancellation is honored at every state boundary. Monitors observe
// each transition and stage result; a nil monitor is replaced with a
// no-op.
package search
