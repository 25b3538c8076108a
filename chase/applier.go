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

import (
	"runtime"
	"sync"

	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/store"
	"github.com/datalogplus/reasoner/subst"
	"go.uber.org/multierr"
)

// Firing is one rule firing ready to be materialized: headAtoms, grounded
// by binding (existentials already resolved by a Renamer), are added to the
// store as new facts.
type Firing struct {
	HeadAtoms []formula.Atom
	Binding   subst.Substitution
}

// Applier materializes a batch of firings into s, returning the number of
// genuinely new facts added.
type Applier func(s *store.FactStore, firings []Firing) (added int, err error)

// SequentialApplier adds every firing's grounded head atoms to s, one at a
// time, in order. This is the simplest applier and the one used by
// Engine.Run unless a caller opts into NewParallelApplier.
func SequentialApplier(s *store.FactStore, firings []Firing) (int, error) {
	added := 0
	for _, f := range firings {
		for _, a := range f.HeadAtoms {
			grounded := a.ApplySubst(f.Binding)
			if s.Add(grounded.Predicate, grounded.Args) {
				added++
			}
		}
	}
	return added, nil
}

// NewParallelApplier returns an Applier that grounds and adds firings across
// workers worth of goroutines, guarding the shared store with a single
// mutex (FactStore.Add is not safe for concurrent use on its own): a fixed
// goroutine count pulls from a shared channel of units of work, joined with
// a WaitGroup. Per-worker errors (there are none today, since grounding and
// Add cannot fail, but a future Applier extension might add constraint
// checks that can) are aggregated with multierr so no error is silently
// dropped when several workers fail in the same round.
func NewParallelApplier(workers int) Applier {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return func(s *store.FactStore, firings []Firing) (int, error) {
		if len(firings) == 0 {
			return 0, nil
		}
		jobs := make(chan Firing)
		var mu sync.Mutex
		var wg sync.WaitGroup
		added := 0
		var errs error

		n := workers
		if n > len(firings) {
			n = len(firings)
		}
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for f := range jobs {
					localAdded := 0
					for _, a := range f.HeadAtoms {
						grounded := a.ApplySubst(f.Binding)
						mu.Lock()
						if s.Add(grounded.Predicate, grounded.Args) {
							localAdded++
						}
						mu.Unlock()
					}
					mu.Lock()
					added += localAdded
					mu.Unlock()
				}
			}()
		}
		for _, f := range firings {
			jobs <- f
		}
		close(jobs)
		wg.Wait()
		return added, multierr.Combine(errs)
	}
}
