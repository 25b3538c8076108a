// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chase

// RoundStats summarizes one round of chase evaluation, passed to a
// HaltingCondition after every round.
type RoundStats struct {
	Round          int
	TriggersFired  int
	FactsAdded     int
	TotalFactCount int
}

// HaltingCondition decides whether the chase should keep running after a
// round that made progress (fixed point is always detected separately, by
// FactsAdded reaching zero; a HaltingCondition only needs to cover the
// non-terminating case).
type HaltingCondition func(stats RoundStats) bool

// NoLimit never stops the chase early; only reaching a true fixed point
// (a round that adds no facts) ends evaluation.
func NoLimit(stats RoundStats) bool { return true }

// RoundLimit stops the chase after max rounds, regardless of whether a
// fixed point was reached, guarding against rule sets with no finite
// universal model.
func RoundLimit(max int) HaltingCondition {
	return func(stats RoundStats) bool {
		return stats.Round < max
	}
}

// FactCountLimit stops the chase once the store holds at least max facts
// across all predicates, bounding memory rather than round count.
func FactCountLimit(max int) HaltingCondition {
	return func(stats RoundStats) bool {
		return stats.TotalFactCount < max
	}
}
