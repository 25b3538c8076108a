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

package subst

import (
	"fmt"

	"github.com/datalogplus/reasoner/term"
)

// Partition is a union-find structure over terms, used by unifiers and
// equality handling.
type Partition struct {
	parent map[term.Term]term.Term
}

// NewPartition returns an empty term partition.
func NewPartition() Partition {
	return Partition{parent: make(map[term.Term]term.Term)}
}

// Get implements term.Subst: a partition can be applied to terms directly,
// mapping a variable to the representative of its equivalence class.
func (p Partition) Get(v term.Variable) (term.Term, bool) {
	if r := p.find(v); r != nil {
		return r, true
	}
	return nil, false
}

func (p Partition) find(t term.Term) term.Term {
	child := t
	parent, ok := p.parent[child]
	if !ok {
		return nil
	}
	for !child.Equals(parent) {
		grandparent, ok := p.parent[parent]
		if !ok {
			break
		}
		p.parent[child] = grandparent // path compression
		child = grandparent
		parent = p.parent[child]
	}
	return parent
}

func (p Partition) union(s, t term.Term) {
	sroot := p.find(s)
	troot := p.find(t)
	if _, ok := sroot.(term.Constant); ok {
		p.parent[troot] = sroot
	} else {
		p.parent[sroot] = troot
	}
}

// Union adds v and t to the same equivalence class, returning a conflict
// error if that would place two distinct constants in the same class.
func (p Partition) Union(v, t term.Term) error {
	vroot := p.find(v)
	if vroot == nil {
		vroot = v
		p.parent[v] = v
	}
	troot := p.find(t)
	if troot == nil {
		troot = t
		p.parent[t] = t
	}
	if vroot.Equals(troot) {
		return nil
	}
	_, vConst := vroot.(term.Constant)
	_, tConst := troot.(term.Constant)
	if vConst && tConst {
		return fmt.Errorf("subst: unifier conflict, cannot merge distinct constants %v and %v", vroot, troot)
	}
	p.union(vroot, troot)
	return nil
}

// Representative returns the representative term of t's equivalence class,
// or t itself if it is not yet part of any class.
func (p Partition) Representative(t term.Term) term.Term {
	if r := p.find(t); r != nil {
		return r
	}
	return t
}

// Merge combines two partitions, returning the merged result or an error if
// the merge would place two distinct constants in one class.
func Merge(a, b Partition) (Partition, error) {
	out := NewPartition()
	for k, v := range a.parent {
		out.parent[k] = v
	}
	// Re-apply b's unions on top, so conflicts are detected via Union.
	seen := make(map[term.Term]bool)
	for k := range b.parent {
		if seen[k] {
			continue
		}
		seen[k] = true
		rep := b.find(k)
		if rep == nil || rep.Equals(k) {
			continue
		}
		if err := out.Union(k, rep); err != nil {
			return Partition{}, err
		}
	}
	return out, nil
}

// UnifyTerms unifies two equal-length slices of terms, starting from an
// empty partition. Positions where either term equals wildcard are skipped
// (pass term.NoVariable() to skip none).
func UnifyTerms(xs, ys []term.Term, wildcard term.Variable) (Partition, error) {
	return UnifyTermsExtend(xs, ys, NewPartition(), wildcard)
}

// UnifyTermsExtend unifies two equal-length slices of terms, extending base
// rather than starting fresh.
func UnifyTermsExtend(xs, ys []term.Term, base Partition, wildcard term.Variable) (Partition, error) {
	if len(xs) != len(ys) {
		return Partition{}, fmt.Errorf("subst: cannot unify term lists of different length (%d vs %d)", len(xs), len(ys))
	}
	out := NewPartition()
	for k, v := range base.parent {
		out.parent[k] = v
	}
	for i, x := range xs {
		y := ys[i]
		if x.Equals(wildcard) || y.Equals(wildcard) {
			continue
		}
		if err := out.Union(x, y); err != nil {
			return Partition{}, err
		}
	}
	return out, nil
}

// AsSubstitution converts the variable bindings of this partition (those
// whose representative is ground) into a plain Substitution.
func (p Partition) AsSubstitution() Substitution {
	out := New()
	for k := range p.parent {
		v, ok := k.(term.Variable)
		if !ok {
			continue
		}
		if c, ok := p.find(v).(term.Constant); ok {
			out[v] = c
		} else if lit, ok := p.find(v).(term.Literal); ok {
			out[v] = lit
		}
	}
	return out
}
