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

package grd

import (
	"github.com/datalogplus/reasoner/term"
)

// Strata assigns each predicate a non-negative integer stratum; stratum 0 must
// be evaluated (to a fixed point) before stratum 1 starts, etc.
type Strata map[term.Predicate]int

// NumStrata returns one plus the highest stratum index assigned.
func (s Strata) NumStrata() int {
	max := -1
	for _, v := range s {
		if v > max {
			max = v
		}
	}
	return max + 1
}

// condensation collapses each SCC to a single node and records, for each
// SCC index, whether it has a negative-edge dependency on another SCC
// (which must therefore be strictly lower).
type condensation struct {
	sccs       []SCC
	sccOf      map[term.Predicate]int
	// depends[i] maps j -> true if i has any edge (positive or negative)
	// to j, negative[i][j] further marks that at least one such edge is
	// negative.
	depends  []map[int]bool
	negative []map[int]bool
}

func (g *Graph) condense() condensation {
	sccs := g.SCCs()
	sccOf := make(map[term.Predicate]int, len(g.nodes))
	for i, scc := range sccs {
		for p := range scc {
			sccOf[p] = i
		}
	}
	depends := make([]map[int]bool, len(sccs))
	negative := make([]map[int]bool, len(sccs))
	for i := range sccs {
		depends[i] = make(map[int]bool)
		negative[i] = make(map[int]bool)
	}
	for from, edges := range g.edges {
		fi := sccOf[from]
		for to, neg := range edges {
			ti := sccOf[to]
			if fi == ti {
				continue
			}
			depends[fi][ti] = true
			if neg {
				negative[fi][ti] = true
			}
		}
	}
	return condensation{sccs: sccs, sccOf: sccOf, depends: depends, negative: negative}
}

// checkNoNegativeSelfLoop rejects any SCC containing a negative edge back
// into itself (recursion through negation), the one universal precondition
// every stratification strategy below shares.
func checkNoNegativeSelfLoop(g *Graph) error {
	sccs := g.SCCs()
	sccOf := make(map[term.Predicate]int)
	for i, scc := range sccs {
		for p := range scc {
			sccOf[p] = i
		}
	}
	for from, edges := range g.edges {
		for to, neg := range edges {
			if neg && sccOf[from] == sccOf[to] {
				return ErrNotStratifiable
			}
		}
	}
	return nil
}

// StratifyBySCC assigns one stratum per strongly connected component, in
// reverse topological order of the condensation (dependencies first).
func (g *Graph) StratifyBySCC() (Strata, error) {
	if err := checkNoNegativeSelfLoop(g); err != nil {
		return nil, err
	}
	c := g.condense()
	order := topoOrder(c)
	strata := make(Strata, len(g.nodes))
	for stratum, idx := range order {
		for p := range c.sccs[idx] {
			strata[p] = stratum
		}
	}
	return strata, nil
}

// topoOrder returns the condensation's SCC indices ordered so that every
// dependency precedes its dependent (index i depends on index order[k<pos]).
func topoOrder(c condensation) []int {
	n := len(c.sccs)
	visited := make([]bool, n)
	var order []int
	var visit func(int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		for j := range c.depends[i] {
			visit(j)
		}
		order = append(order, i)
	}
	for i := 0; i < n; i++ {
		visit(i)
	}
	return order
}

// StratifyMinimal assigns each SCC the smallest stratum consistent with its
// dependencies: 0 if it depends on nothing, otherwise one more than the
// maximum stratum among its dependencies (one more still, if any of those
// dependencies is negative, which is automatically implied since a
// negative dependency is also a dependency). This is computed as longest
// path from a source in the condensation DAG, the same relaxation
// structure as Bellman-Ford, which tolerates the condensation's edges not
// being a simple tree.
func (g *Graph) StratifyMinimal() (Strata, error) {
	if err := checkNoNegativeSelfLoop(g); err != nil {
		return nil, err
	}
	c := g.condense()
	order := topoOrder(c)
	level := make([]int, len(c.sccs))
	for _, i := range order {
		for j := range c.depends[i] {
			if level[j]+1 > level[i] {
				level[i] = level[j] + 1
			}
		}
	}
	strata := make(Strata, len(g.nodes))
	for i, scc := range c.sccs {
		for p := range scc {
			strata[p] = level[i]
		}
	}
	return strata, nil
}

// StratifySingleEvaluation assigns every predicate to stratum 0 when the
// graph has no negative edges at all, since a program without negation can
// be evaluated to a fixed point in a single stratum (one evaluation pass
// over the whole program, hence the name). It returns ErrNotStratifiable if
// any negative edge exists, since negation then requires at least two
// strata and single-evaluation is not applicable.
func (g *Graph) StratifySingleEvaluation() (Strata, error) {
	for _, edges := range g.edges {
		for _, neg := range edges {
			if neg {
				return nil, ErrNotStratifiable
			}
		}
	}
	strata := make(Strata, len(g.nodes))
	for p := range g.nodes {
		strata[p] = 0
	}
	return strata, nil
}

// StratifyMinimalEvaluation refines StratifyMinimal by additionally
// collapsing adjacent strata that are not actually separated by a negative
// edge: two consecutive strata i and i+1 are merged into one evaluation
// stage when no negative edge, between predicates of any two strata,
// crosses the boundary between i and i+1. This
// minimizes the number of distinct fixed-point evaluation passes the chase
// must run, as opposed to StratifyMinimal's stratum count which only
// minimizes the stratum number assigned to each individual predicate.
func (g *Graph) StratifyMinimalEvaluation() (Strata, error) {
	minimal, err := g.StratifyMinimal()
	if err != nil {
		return nil, err
	}
	if len(minimal) == 0 {
		return minimal, nil
	}
	numStrata := minimal.NumStrata()
	negativeEdgeBetweenStrata := make([]bool, numStrata) // index s: true if a negative edge crosses the boundary between strata s-1 and s
	for from, edges := range g.edges {
		for to, neg := range edges {
			if !neg {
				continue
			}
			lo, hi := minimal[from], minimal[to]
			if lo < hi {
				lo, hi = hi, lo
			}
			for s := hi + 1; s <= lo; s++ {
				negativeEdgeBetweenStrata[s] = true
			}
		}
	}
	// Build a remapping that merges stratum s into s-1 whenever no negative
	// edge crosses that boundary.
	remap := make([]int, numStrata)
	cur := 0
	remap[0] = 0
	for s := 1; s < numStrata; s++ {
		if negativeEdgeBetweenStrata[s] {
			cur++
		}
		remap[s] = cur
	}
	out := make(Strata, len(minimal))
	for p, s := range minimal {
		out[p] = remap[s]
	}
	return out, nil
}
