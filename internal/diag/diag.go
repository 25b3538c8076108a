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

// Package diag is a typed, session-scoped diagnostic sink: a place for
// analysis and evaluation code to report warnings about constructs that are
// accepted but suspicious (an unsafe negation the validator let through
// under a relaxed mode, a universal quantifier evaluated over a bound
// domain, a chase round that hit its trigger budget) without forcing every
// caller to thread a logger through every function signature.
package diag

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// Kind classifies a diagnostic for programmatic filtering; String gives a
// human-readable tag used in log lines.
type Kind int

const (
	// UnsafeNegationWarning flags a negated atom whose variables are not
	// fully range-restricted by positive atoms, where evaluation fell back
	// to treating unbound variables as universally ranging over an
	// implicit (and possibly non-terminating) domain.
	UnsafeNegationWarning Kind = iota
	// UnsafeUniversalWarning flags a universal quantifier evaluated over a
	// domain inferred from the current bindings rather than a declared,
	// finite one.
	UnsafeUniversalWarning
	// NonTerminatingChaseWarning flags a chase run that was stopped by its
	// halting condition (a round or trigger budget) rather than reaching a
	// genuine fixed point.
	NonTerminatingChaseWarning
	// StratificationFallbackWarning flags a GRD stratification strategy
	// that could not find the requested shape and fell back to a coarser
	// one. The strategies in package grd do not fall back: they return an
	// error instead (StratifySingleEvaluation on a program with negation
	// returns ErrNotStratifiable).
	StratificationFallbackWarning
)

func (k Kind) String() string {
	switch k {
	case UnsafeNegationWarning:
		return "unsafe_negation"
	case UnsafeUniversalWarning:
		return "unsafe_universal"
	case NonTerminatingChaseWarning:
		return "non_terminating_chase"
	case StratificationFallbackWarning:
		return "stratification_fallback"
	default:
		return "unknown"
	}
}

// Diagnostic is a single reported warning.
type Diagnostic struct {
	Kind    Kind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
}

// Sink collects diagnostics for one reasoning session. The zero value is
// usable; a Sink is safe for concurrent use since the chase's multi
// threaded applier may report from several goroutines at once.
type Sink struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// New returns an empty diagnostic sink.
func New() *Sink {
	return &Sink{}
}

// Report records a diagnostic and mirrors it to glog at warning level, so
// it is visible even to callers who never inspect the sink's contents
// directly.
func (s *Sink) Report(kind Kind, format string, args ...any) {
	d := Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)}
	s.mu.Lock()
	s.diagnostics = append(s.diagnostics, d)
	s.mu.Unlock()
	glog.Warningf("%s", d)
}

// All returns every diagnostic reported so far, in report order.
func (s *Sink) All() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Diagnostic(nil), s.diagnostics...)
}

// OfKind returns only the diagnostics of the given kind.
func (s *Sink) OfKind(kind Kind) []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Diagnostic
	for _, d := range s.diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
