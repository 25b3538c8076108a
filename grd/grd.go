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

// Package grd builds the Graph of Rule Dependencies: a predicate-level
// dependency graph used to decide whether, and in what order, a rule set
// can be evaluated stratum by stratum. It supports a choice of edge mode
// and extends to disjunctive, existential rule heads.
package grd

import (
	"fmt"

	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/piece"
	"github.com/datalogplus/reasoner/term"
)

// EdgeMode selects how an edge between a rule's head predicate and a body
// predicate is justified.
type EdgeMode int

const (
	// PredicateMode adds an edge whenever a body predicate's name appears
	// in a rule whose head predicate differs, independent of whether any
	// piece unifier could ever actually apply -- the cheapest, most
	// conservative mode.
	PredicateMode EdgeMode = iota
	// UnifierMode only adds an edge between two rules' predicates when a
	// piece unifier actually exists between the dependent rule's body and
	// the dependency rule's head, giving a strictly sparser, more precise
	// graph at the cost of running piece unification during construction.
	UnifierMode
	// HybridMode adds a PredicateMode edge for ordinary (non-existential,
	// non-disjunctive) rules, and falls back to UnifierMode's precision
	// only for rules whose head is existential or disjunctive, where the
	// imprecision of PredicateMode would otherwise force unnecessary
	// strata.
	HybridMode
)

// Edge is a single dependency: To depends on From (From must be evaluated
// before, or together with in the same stratum as, To, depending on
// Negative).
type Edge struct {
	From, To term.Predicate
	// Negative marks a dependency arising from a negated body atom, which
	// forbids placing From and To in the same stratum (or any stratum
	// where To comes no later than From).
	Negative bool
}

// Graph is the Graph of Rule Dependencies: for each predicate, the set of
// predicates it depends on.
type Graph struct {
	edges map[term.Predicate]map[term.Predicate]bool // true = at least one negative edge
	nodes map[term.Predicate]bool
}

// Rule is one rule as the GRD sees it: its body, and for each head disjunct
// that disjunct's existential variables (HeadVars) and atoms (HeadAtoms);
// IsEdb marks predicates that no rule defines.
type Rule struct {
	Body         formula.Formula
	HeadVars     [][]term.Variable
	HeadAtoms    [][]formula.Atom
	IsEdb        map[term.Predicate]bool
}

// Build constructs the GRD for rules under the given edge mode. IsEdb marks
// predicates with no rules of their own (extensional predicates), which
// never become graph nodes with outgoing edges of their own.
func Build(rules []Rule, mode EdgeMode) (*Graph, error) {
	g := &Graph{edges: make(map[term.Predicate]map[term.Predicate]bool), nodes: make(map[term.Predicate]bool)}
	for _, r := range rules {
		bodyAtomsPos := formula.Atoms(r.Body)
		isExistentialOrDisjunctive := len(r.HeadAtoms) > 1 || len(r.HeadVars) > 0 && len(r.HeadVars[0]) > 0

		for _, headAtoms := range r.HeadAtoms {
			for _, headAtom := range headAtoms {
				g.nodes[headAtom.Predicate] = true
				effectiveMode := mode
				if mode == HybridMode {
					if isExistentialOrDisjunctive {
						effectiveMode = UnifierMode
					} else {
						effectiveMode = PredicateMode
					}
				}
				if err := g.addBodyEdges(headAtom.Predicate, r, bodyAtomsPos, headAtoms, effectiveMode); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

func (g *Graph) addBodyEdges(headPred term.Predicate, r Rule, bodyAtomsPos []formula.Atom, headAtoms []formula.Atom, mode EdgeMode) error {
	negatedAtoms := negativeAtoms(r.Body)
	for _, atom := range bodyAtomsPos {
		if r.IsEdb[atom.Predicate] {
			continue
		}
		if atom.Predicate.Equals(headPred) && mode == PredicateMode {
			continue // self-loop from PredicateMode carries no stratification information
		}
		if mode == UnifierMode {
			unifiers, err := piece.Compute([]formula.Atom{atom}, nil, headAtoms)
			if err != nil {
				return err
			}
			if len(unifiers) == 0 {
				continue
			}
		}
		g.addEdge(headPred, atom.Predicate, false)
	}
	for _, atom := range negatedAtoms {
		if r.IsEdb[atom.Predicate] {
			continue
		}
		g.addEdge(headPred, atom.Predicate, true)
	}
	return nil
}

func negativeAtoms(f formula.Formula) []formula.Atom {
	var out []formula.Atom
	var walk func(formula.Formula, bool)
	walk = func(f formula.Formula, neg bool) {
		switch x := f.(type) {
		case formula.AtomFormula:
			if neg {
				out = append(out, x.Atom)
			}
		case formula.Negation:
			walk(x.Inner, !neg)
		case formula.Conjunction:
			for _, c := range x.Conjuncts {
				walk(c, neg)
			}
		case formula.Disjunction:
			for _, d := range x.Disjuncts {
				walk(d, neg)
			}
		case formula.Existential:
			walk(x.Inner, neg)
		case formula.Universal:
			walk(x.Inner, neg)
		}
	}
	walk(f, false)
	return out
}

func (g *Graph) addEdge(from, to term.Predicate, negative bool) {
	g.nodes[from] = true
	g.nodes[to] = true
	edges, ok := g.edges[from]
	if !ok {
		edges = make(map[term.Predicate]bool)
		g.edges[from] = edges
	}
	if negative {
		edges[to] = true
		return
	}
	if wasNegative, ok := edges[to]; !ok || !wasNegative {
		edges[to] = false
	}
}

// Nodes returns every predicate that is a node of the graph.
func (g *Graph) Nodes() []term.Predicate {
	out := make([]term.Predicate, 0, len(g.nodes))
	for p := range g.nodes {
		out = append(out, p)
	}
	return out
}

func (g *Graph) transpose() *Graph {
	rev := &Graph{edges: make(map[term.Predicate]map[term.Predicate]bool), nodes: make(map[term.Predicate]bool)}
	for p := range g.nodes {
		rev.nodes[p] = true
	}
	for from, edges := range g.edges {
		for to, negative := range edges {
			rev.addEdge(to, from, negative)
		}
	}
	return rev
}

// SCC is a strongly connected component: a set of mutually (positively or
// negatively) recursive predicates that must share a stratum.
type SCC map[term.Predicate]bool

// SCCs computes the graph's strongly connected components via Kosaraju's
// algorithm: a forward-order DFS to compute finishing times, then a DFS
// over the transposed graph in decreasing finishing-time order.
func (g *Graph) SCCs() []SCC {
	var postorder []term.Predicate
	seen := make(map[term.Predicate]bool)
	var visit func(term.Predicate)
	visit = func(p term.Predicate) {
		if seen[p] {
			return
		}
		seen[p] = true
		for to := range g.edges[p] {
			visit(to)
		}
		postorder = append(postorder, p)
	}
	for p := range g.nodes {
		visit(p)
	}

	rev := g.transpose()
	seen = make(map[term.Predicate]bool)
	var sccs []SCC
	var rvisit func(p term.Predicate, scc SCC)
	rvisit = func(p term.Predicate, scc SCC) {
		if seen[p] {
			return
		}
		seen[p] = true
		scc[p] = true
		for to := range rev.edges[p] {
			rvisit(to, scc)
		}
	}
	for i := len(postorder) - 1; i >= 0; i-- {
		top := postorder[i]
		if seen[top] {
			continue
		}
		scc := make(SCC)
		rvisit(top, scc)
		sccs = append(sccs, scc)
	}
	return sccs
}

// ErrNotStratifiable indicates the rule set has recursion through negation
// and so admits no stratification.
var ErrNotStratifiable = fmt.Errorf("grd: program cannot be stratified: recursion through negation")
