// Package scope models lexical scope identifiers, the scope stacks a syntax
// engine assigns to buffer positions, and the selectors that match against
// those stacks with a computable specificity score.
package scope

import (
	"errors"
	"fmt"
	"strings"
)

// maxAtoms bounds the dotted atoms in a single scope identifier.
const maxAtoms = 8

// Errors returned while parsing scopes and selectors.
var (
	// ErrEmptyScope indicates a scope string with no atoms.
	ErrEmptyScope = errors.New("empty scope")

	// ErrEmptyAtom indicates a scope string with an empty dotted atom.
	ErrEmptyAtom = errors.New("empty scope atom")

	// ErrTooManyAtoms indicates a scope string with more dotted atoms
	// than a scope may carry.
	ErrTooManyAtoms = errors.New("too many scope atoms")
)

// Scope is a dotted lexical scope identifier such as "source.rust" or
// "punctuation.definition.comment". Scopes are immutable once created.
type Scope struct {
	atoms []string
}

// New parses a single scope identifier. Leading and trailing whitespace is
// trimmed; every dotted atom must be non-empty and the atom count is capped
// at eight.
func New(s string) (Scope, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Scope{}, ErrEmptyScope
	}
	atoms := strings.Split(s, ".")
	if len(atoms) > maxAtoms {
		return Scope{}, fmt.Errorf("%w: %q", ErrTooManyAtoms, s)
	}
	for _, atom := range atoms {
		if atom == "" {
			return Scope{}, fmt.Errorf("%w: %q", ErrEmptyAtom, s)
		}
	}
	return Scope{atoms: atoms}, nil
}

// MustNew parses a scope identifier and panics on error.
// Intended for literals in tests and initialization code.
func MustNew(s string) Scope {
	sc, err := New(s)
	if err != nil {
		panic(fmt.Sprintf("scope: %v", err))
	}
	return sc
}

// Len returns the number of dotted atoms.
func (s Scope) Len() int {
	return len(s.atoms)
}

// IsPrefixOf reports whether every atom of s matches the corresponding
// leading atom of other. A scope is a prefix of itself.
func (s Scope) IsPrefixOf(other Scope) bool {
	if len(s.atoms) > len(other.atoms) {
		return false
	}
	for i, atom := range s.atoms {
		if other.atoms[i] != atom {
			return false
		}
	}
	return true
}

// Equal reports whether two scopes have identical atoms.
func (s Scope) Equal(other Scope) bool {
	if len(s.atoms) != len(other.atoms) {
		return false
	}
	for i, atom := range s.atoms {
		if other.atoms[i] != atom {
			return false
		}
	}
	return true
}

// String returns the dotted form of the scope.
func (s Scope) String() string {
	return strings.Join(s.atoms, ".")
}

// Stack is an ordered sequence of scopes, outermost first. It is both the
// shape of a query (the scopes at a buffer position) and the shape of a
// selector path.
type Stack []Scope

// ParseStack parses a whitespace-separated sequence of scope identifiers.
// An empty or blank string yields an empty stack.
func ParseStack(s string) (Stack, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Stack{}, nil
	}
	stack := make(Stack, 0, len(fields))
	for _, field := range fields {
		sc, err := New(field)
		if err != nil {
			return nil, err
		}
		stack = append(stack, sc)
	}
	return stack, nil
}

// MustParseStack parses a scope stack and panics on error.
func MustParseStack(s string) Stack {
	stack, err := ParseStack(s)
	if err != nil {
		panic(fmt.Sprintf("scope: %v", err))
	}
	return stack
}

// String returns the space-separated form of the stack.
func (st Stack) String() string {
	parts := make([]string, len(st))
	for i, sc := range st {
		parts[i] = sc.String()
	}
	return strings.Join(parts, " ")
}
