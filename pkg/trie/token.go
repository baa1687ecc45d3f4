// Package trie implements the postfix cutting-planes token alphabet and the
// prefix-sharing trie used to contract repeated derivation sub-expressions
// (spec.md §4.3).
package trie

import "fmt"

// Op is one of the four cutting-planes postfix operators.
type Op byte

// The fixed operator alphabet.
const (
	OpSum  Op = '+'
	OpProd Op = '*'
	OpDiv  Op = 'd'
	OpSat  Op = 's'
)

// Arity returns the number of operands an operator consumes.
func (o Op) Arity() int {
	switch o {
	case OpSum, OpProd, OpDiv:
		return 2
	case OpSat:
		return 1
	default:
		panic(fmt.Sprintf("trie: unknown operator %q", byte(o)))
	}
}

// Token is one element of a postfix derivation expression: either a numeric
// operand (a one-based clause reference or a constant, depending on how the
// consuming operator classifies it) or one of the four operators.
type Token struct {
	Numeric bool
	Value   int64 // valid iff Numeric
	Op      Op    // valid iff !Numeric
}

// NumToken constructs a numeric token.
func NumToken(v int64) Token { return Token{Numeric: true, Value: v} }

// OpToken constructs an operator token.
func OpToken(op Op) Token { return Token{Op: op} }

// Equal reports whether two tokens are the same kind and value.
func (t Token) Equal(o Token) bool {
	if t.Numeric != o.Numeric {
		return false
	}

	if t.Numeric {
		return t.Value == o.Value
	}

	return t.Op == o.Op
}

// String renders the token the way it would appear in a VeriPB proof line.
func (t Token) String() string {
	if t.Numeric {
		return fmt.Sprintf("%d", t.Value)
	}

	return string(t.Op)
}
