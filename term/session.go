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

package term

import (
	"fmt"
	"sync"
)

// Session is a per-session interning factory. It is created explicitly and
// has an explicit lifecycle (Close); it is never a process-wide singleton.
//
// A Session is not safe for concurrent use by default. Wrap it with
// NewThreadSafeSession to guard variable, constant and predicate interning
// and Fresh with a single lock when a session must be shared across
// goroutines; literal interning has no thread-safe variant.
type Session struct {
	closed bool

	variables map[string]Variable
	constants map[string]Constant
	literals  map[string]Literal
	predicates map[predKey]Predicate

	nextVar   int32
	nextConst int32
	nextLit   int32
	nextPred  int32
	freshSeq  int
}

type predKey struct {
	name  string
	arity int
}

// NewSession constructs a new, empty interning session.
func NewSession() *Session {
	return &Session{
		variables:  make(map[string]Variable),
		constants:  make(map[string]Constant),
		literals:   make(map[string]Literal),
		predicates: make(map[predKey]Predicate),
	}
}

// Close releases the session. A closed session must not be used again;
// interning factories are not process-wide, so there is nothing further to
// do beyond letting the maps be garbage collected, but Close gives callers
// an explicit lifecycle boundary and a place to assert against misuse.
func (s *Session) Close() {
	s.closed = true
}

func (s *Session) checkOpen() {
	if s.closed {
		panic("term: use of Session after Close")
	}
}

// InternVariable returns the canonical handle for a named variable,
// interning it on first use. Idempotent within a session.
func (s *Session) InternVariable(name string) Variable {
	s.checkOpen()
	if v, ok := s.variables[name]; ok {
		return v
	}
	v := Variable{id: s.nextVar, name: name}
	s.nextVar++
	s.variables[name] = v
	return v
}

// InternConstant returns the canonical handle for a named constant,
// interning it on first use. Idempotent within a session.
func (s *Session) InternConstant(name string) Constant {
	s.checkOpen()
	if c, ok := s.constants[name]; ok {
		return c
	}
	c := Constant{id: s.nextConst, name: name}
	s.nextConst++
	s.constants[name] = c
	return c
}

// InternPredicate returns the canonical handle for a (name, arity) pair,
// interning it on first use. Idempotent within a session.
func (s *Session) InternPredicate(name string, arity int) Predicate {
	s.checkOpen()
	key := predKey{name, arity}
	if p, ok := s.predicates[key]; ok {
		return p
	}
	p := Predicate{id: s.nextPred, Name: name, Arity: arity}
	s.nextPred++
	s.predicates[key] = p
	return p
}

func (s *Session) internLiteral(l Literal) Literal {
	key := l.structuralKey()
	if existing, ok := s.literals[key]; ok {
		return existing
	}
	l.id = s.nextLit
	s.nextLit++
	s.literals[key] = l
	return l
}

// InternInt interns an integer literal.
func (s *Session) InternInt(v int64) Literal {
	s.checkOpen()
	return s.internLiteral(Literal{Datatype: IntDatatype, intVal: v})
}

// InternFloat interns a float64 literal.
func (s *Session) InternFloat(v float64) Literal {
	s.checkOpen()
	return s.internLiteral(Literal{Datatype: FloatDatatype, floatVal: v})
}

// InternString interns a string literal.
func (s *Session) InternString(v string) Literal {
	s.checkOpen()
	return s.internLiteral(Literal{Datatype: StringDatatype, stringVal: v})
}

// InternBool interns a boolean literal.
func (s *Session) InternBool(v bool) Literal {
	s.checkOpen()
	return s.internLiteral(Literal{Datatype: BoolDatatype, boolVal: v})
}

// InternIRI interns an IRI-typed literal.
func (s *Session) InternIRI(v string) Literal {
	s.checkOpen()
	return s.internLiteral(Literal{Datatype: IRIDatatype, stringVal: v})
}

// InternTuple interns an ordered, fixed-size collection literal.
func (s *Session) InternTuple(elems []Literal) Literal {
	s.checkOpen()
	cp := append([]Literal(nil), elems...)
	return s.internLiteral(Literal{Datatype: TupleDatatype, elems: cp})
}

// InternSet interns an unordered collection literal; element order in the
// argument does not affect the resulting handle's structural key grouping
// performed by the caller (callers should pass a canonically sorted slice
// if set-equality regardless of construction order is required).
func (s *Session) InternSet(elems []Literal) Literal {
	s.checkOpen()
	cp := append([]Literal(nil), elems...)
	return s.internLiteral(Literal{Datatype: SetDatatype, elems: cp})
}

// InternDict interns a key/value collection literal.
func (s *Session) InternDict(entries []DictEntry) Literal {
	s.checkOpen()
	cp := append([]DictEntry(nil), entries...)
	return s.internLiteral(Literal{Datatype: DictDatatype, entries: cp})
}

// ParseLiteral interns a literal from a (datatype, textual value) pair,
// reporting a ParseError-kind error for malformed values.
// Collections are not constructible through this entry point; use the
// dedicated InternTuple/InternSet/InternDict.
func (s *Session) ParseLiteral(datatype Datatype, text string) (Literal, error) {
	switch datatype {
	case IntDatatype:
		var v int64
		if _, err := fmt.Sscanf(text, "%d", &v); err != nil {
			return Literal{}, fmt.Errorf("term: invalid integer literal %q: %w", text, err)
		}
		return s.InternInt(v), nil
	case FloatDatatype:
		var v float64
		if _, err := fmt.Sscanf(text, "%g", &v); err != nil {
			return Literal{}, fmt.Errorf("term: invalid float literal %q: %w", text, err)
		}
		return s.InternFloat(v), nil
	case BoolDatatype:
		switch text {
		case "true":
			return s.InternBool(true), nil
		case "false":
			return s.InternBool(false), nil
		default:
			return Literal{}, fmt.Errorf("term: invalid boolean literal %q", text)
		}
	case StringDatatype:
		return s.InternString(text), nil
	case IRIDatatype:
		return s.InternIRI(text), nil
	default:
		return Literal{}, fmt.Errorf("term: datatype %v is not constructible from text", datatype)
	}
}

// Fresh returns a variable not present among any previously interned or
// fresh-produced variable, optionally derived from hint for readability.
func (s *Session) Fresh(hint string) Variable {
	s.checkOpen()
	for {
		s.freshSeq++
		name := fmt.Sprintf("_%s%d", hint, s.freshSeq)
		if _, exists := s.variables[name]; !exists {
			return s.InternVariable(name)
		}
	}
}

// FreshN returns n variables not present among any previously interned or
// fresh-produced variable.
func (s *Session) FreshN(hint string, n int) []Variable {
	vs := make([]Variable, n)
	for i := range vs {
		vs[i] = s.Fresh(hint)
	}
	return vs
}

// ThreadSafeSession wraps a Session with a single mutex guarding the
// operations it exposes: InternVariable, InternConstant, InternPredicate and
// Fresh. It has no literal-interning methods. These operations are short, so a single
// coarse lock is sufficient and keeps the hot, single-threaded path (the
// bare Session) lock-free.
type ThreadSafeSession struct {
	mu  sync.Mutex
	sess *Session
}

// NewThreadSafeSession wraps sess for concurrent interning.
func NewThreadSafeSession(sess *Session) *ThreadSafeSession {
	return &ThreadSafeSession{sess: sess}
}

// InternVariable is the thread-safe variant of Session.InternVariable.
func (t *ThreadSafeSession) InternVariable(name string) Variable {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.InternVariable(name)
}

// InternConstant is the thread-safe variant of Session.InternConstant.
func (t *ThreadSafeSession) InternConstant(name string) Constant {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.InternConstant(name)
}

// InternPredicate is the thread-safe variant of Session.InternPredicate.
func (t *ThreadSafeSession) InternPredicate(name string, arity int) Predicate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.InternPredicate(name, arity)
}

// Fresh is the thread-safe variant of Session.Fresh.
func (t *ThreadSafeSession) Fresh(hint string) Variable {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess.Fresh(hint)
}
