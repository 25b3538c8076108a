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

// Package term contains the term algebra (variables, constants, literals,
// function terms and predicates) and the per-session interning factories
// that hand out canonical handles for them.
//
// Every interned handle carries a small integer id assigned by the owning
// Session. Two handles compare equal with Equals iff their ids (and kinds)
// match, which gives O(1) equality regardless of how large the underlying
// payload is (e.g. a literal tuple).
package term

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Term is the sum type for variables, constants, literals and function terms.
type Term interface {
	// Marker method, restricts implementations to this package's types.
	isTerm()

	String() string

	// Equals is interned-handle equality: true iff both terms were produced
	// by the same Session and denote the same value.
	Equals(Term) bool

	// Hash returns a hash code consistent with Equals.
	Hash() uint64

	// IsGround returns true if the term contains no variables.
	IsGround() bool
}

// Variable is a free-variable name, interned within a Session.
type Variable struct {
	id   int32
	name string
}

func (Variable) isTerm() {}

// Name returns the variable's written name (for diagnostics only; do not
// use for equality, use Equals).
func (v Variable) Name() string { return v.name }

func (v Variable) String() string { return v.name }

// Equals returns true iff u is the same interned variable.
func (v Variable) Equals(u Term) bool {
	o, ok := u.(Variable)
	return ok && o.id == v.id
}

// Hash returns a hash code for this variable.
func (v Variable) Hash() uint64 { return uint64(v.id)*2 + 1 }

// IsGround is always false for a variable.
func (Variable) IsGround() bool { return false }

// IsWildcard reports whether this is the anonymous "_" variable.
func (v Variable) IsWildcard() bool { return v.name == "_" }

// NoVariable is a sentinel Variable that never equals any interned
// variable (interned ids are always non-negative), for callers of APIs
// that take an optional "wildcard to skip" argument but have none to give.
func NoVariable() Variable { return Variable{id: -1, name: ""} }

// Constant is an uninterpreted symbol, interned within a Session.
type Constant struct {
	id   int32
	name string
}

func (Constant) isTerm() {}

func (c Constant) String() string { return c.name }

// Equals returns true iff u is the same interned constant.
func (c Constant) Equals(u Term) bool {
	o, ok := u.(Constant)
	return ok && o.id == c.id
}

// Hash returns a hash code for this constant.
func (c Constant) Hash() uint64 { return uint64(c.id) * 2 }

// IsGround is always true for a constant.
func (Constant) IsGround() bool { return true }

// Datatype is the runtime type of a Literal.
type Datatype int

const (
	// IntDatatype marks an integer literal.
	IntDatatype Datatype = iota
	// FloatDatatype marks a float64 literal.
	FloatDatatype
	// StringDatatype marks a string literal.
	StringDatatype
	// BoolDatatype marks a boolean literal.
	BoolDatatype
	// IRIDatatype marks an IRI-valued literal.
	IRIDatatype
	// TupleDatatype marks a fixed-size ordered collection.
	TupleDatatype
	// SetDatatype marks an unordered collection with set semantics.
	SetDatatype
	// DictDatatype marks a key/value collection.
	DictDatatype
)

func (d Datatype) String() string {
	switch d {
	case IntDatatype:
		return "int"
	case FloatDatatype:
		return "float"
	case StringDatatype:
		return "string"
	case BoolDatatype:
		return "bool"
	case IRIDatatype:
		return "iri"
	case TupleDatatype:
		return "tuple"
	case SetDatatype:
		return "set"
	case DictDatatype:
		return "dict"
	default:
		return "?"
	}
}

// DictEntry is a single key/value pair of a DictDatatype literal.
type DictEntry struct {
	Key Literal
	Val Literal
}

// Literal is a typed primitive value. Collection-typed literals (tuple, set,
// dict) carry their contents; interning deduplicates by structural content,
// so equal payloads always resolve to the same handle and Equals stays an
// O(1) id comparison even for nested collections.
type Literal struct {
	id       int32
	Datatype Datatype

	intVal    int64
	floatVal  float64
	stringVal string
	boolVal   bool

	elems   []Literal    // TupleDatatype, SetDatatype
	entries []DictEntry  // DictDatatype
}

func (Literal) isTerm() {}

func (l Literal) String() string {
	switch l.Datatype {
	case IntDatatype:
		return fmt.Sprintf("%d", l.intVal)
	case FloatDatatype:
		return fmt.Sprintf("%g", l.floatVal)
	case StringDatatype:
		return fmt.Sprintf("%q", l.stringVal)
	case BoolDatatype:
		return fmt.Sprintf("%t", l.boolVal)
	case IRIDatatype:
		return l.stringVal
	case TupleDatatype:
		var sb strings.Builder
		sb.WriteRune('(')
		for i, e := range l.elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteRune(')')
		return sb.String()
	case SetDatatype:
		var sb strings.Builder
		sb.WriteRune('{')
		for i, e := range l.elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteRune('}')
		return sb.String()
	case DictDatatype:
		var sb strings.Builder
		sb.WriteRune('{')
		for i, e := range l.entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.Key.String())
			sb.WriteString(": ")
			sb.WriteString(e.Val.String())
		}
		sb.WriteRune('}')
		return sb.String()
	default:
		return "?"
	}
}

// Equals is interned-handle equality.
func (l Literal) Equals(u Term) bool {
	o, ok := u.(Literal)
	return ok && o.id == l.id
}

// Hash returns a hash code consistent with Equals.
func (l Literal) Hash() uint64 { return uint64(l.id)*4 + 3 }

// IsGround is always true for a literal.
func (Literal) IsGround() bool { return true }

// IntValue returns the int64 value, if Datatype is IntDatatype.
func (l Literal) IntValue() (int64, bool) { return l.intVal, l.Datatype == IntDatatype }

// FloatValue returns the float64 value, if Datatype is FloatDatatype.
func (l Literal) FloatValue() (float64, bool) { return l.floatVal, l.Datatype == FloatDatatype }

// StringValue returns the string value, if Datatype is StringDatatype or IRIDatatype.
func (l Literal) StringValue() (string, bool) {
	return l.stringVal, l.Datatype == StringDatatype || l.Datatype == IRIDatatype
}

// BoolValue returns the bool value, if Datatype is BoolDatatype.
func (l Literal) BoolValue() (bool, bool) { return l.boolVal, l.Datatype == BoolDatatype }

// Elements returns the ordered contents of a tuple or set literal.
func (l Literal) Elements() ([]Literal, bool) {
	return l.elems, l.Datatype == TupleDatatype || l.Datatype == SetDatatype
}

// Entries returns the key/value contents of a dict literal.
func (l Literal) Entries() ([]DictEntry, bool) {
	return l.entries, l.Datatype == DictDatatype
}

// structuralKey computes a string used to de-duplicate equal literal payloads
// during interning, so repeated interning of an equal value returns the same
// handle.
func (l Literal) structuralKey() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|", l.Datatype)
	switch l.Datatype {
	case IntDatatype:
		fmt.Fprintf(&sb, "%d", l.intVal)
	case FloatDatatype:
		fmt.Fprintf(&sb, "%g", l.floatVal)
	case StringDatatype, IRIDatatype:
		sb.WriteString(l.stringVal)
	case BoolDatatype:
		fmt.Fprintf(&sb, "%t", l.boolVal)
	case TupleDatatype, SetDatatype:
		for _, e := range l.elems {
			sb.WriteString(e.structuralKey())
			sb.WriteRune(',')
		}
	case DictDatatype:
		for _, e := range l.entries {
			sb.WriteString(e.Key.structuralKey())
			sb.WriteRune('=')
			sb.WriteString(e.Val.structuralKey())
			sb.WriteRune(',')
		}
	}
	return sb.String()
}

// FunctionSym is a function symbol with a given arity.
type FunctionSym struct {
	Name  string
	Arity int
}

func (f FunctionSym) String() string { return fmt.Sprintf("%s/%d", f.Name, f.Arity) }

// FuncTerm is a function term, either uninterpreted ("logical") or bound to
// a registered computed function ("evaluable"). Logical and evaluable
// function terms share this one struct with a boolean flag, so a rewrite
// step can flip it in place rather than re-allocate a different Go type.
type FuncTerm struct {
	Function  FunctionSym
	Args      []Term
	Evaluable bool
}

func (FuncTerm) isTerm() {}

func (f FuncTerm) String() string {
	var sb strings.Builder
	sb.WriteString(f.Function.Name)
	sb.WriteRune('(')
	for i, a := range f.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteRune(')')
	return sb.String()
}

// Equals provides syntactic equality for function terms (recursing into
// arguments, which are themselves interned handles).
func (f FuncTerm) Equals(u Term) bool {
	o, ok := u.(FuncTerm)
	if !ok || f.Function != o.Function || len(f.Args) != len(o.Args) {
		return false
	}
	for i, a := range f.Args {
		if !a.Equals(o.Args[i]) {
			return false
		}
	}
	return true
}

// Hash returns a hash code for this function term.
func (f FuncTerm) Hash() uint64 {
	h := fnv.New64()
	h.Write([]byte(f.Function.Name))
	for _, a := range f.Args {
		var b [8]byte
		v := a.Hash()
		for i := range b {
			b[i] = byte(v >> (8 * i))
		}
		h.Write(b[:])
	}
	return h.Sum64()
}

// IsGround returns true if every argument is ground.
func (f FuncTerm) IsGround() bool {
	for _, a := range f.Args {
		if !a.IsGround() {
			return false
		}
	}
	return true
}

// Subst is the interface substitutions must implement so that terms can be
// applied against them without the term package depending on any concrete
// substitution representation (those live in package subst).
type Subst interface {
	// Get returns the term bound to v, or ok=false if v is not in the domain.
	Get(v Variable) (t Term, ok bool)
}

// ApplySubst applies s to t, returning a new term with every bound variable
// replaced. Ground terms (Constant, Literal) are returned unchanged.
func ApplySubst(t Term, s Subst) Term {
	switch v := t.(type) {
	case Variable:
		if s == nil {
			return v
		}
		if bound, ok := s.Get(v); ok {
			return bound
		}
		return v
	case Constant:
		return v
	case Literal:
		return v
	case FuncTerm:
		newArgs := make([]Term, len(v.Args))
		for i, a := range v.Args {
			newArgs[i] = ApplySubst(a, s)
		}
		return FuncTerm{v.Function, newArgs, v.Evaluable}
	default:
		return t
	}
}

// Predicate is a predicate symbol with a given arity, interned within a Session.
type Predicate struct {
	id    int32
	Name  string
	Arity int
}

func (p Predicate) String() string { return fmt.Sprintf("%s/%d", p.Name, p.Arity) }

// Equals returns true iff u denotes the same interned predicate.
func (p Predicate) Equals(u Predicate) bool { return p.id == u.id }

// Hash returns a hash code for this predicate.
func (p Predicate) Hash() uint64 { return uint64(p.id) }
