// Package pbterm implements the pseudo-Boolean term and constraint algebra:
// literals, terms, input constraints, their normalized form, and the
// arithmetic operations (sum, scalar product, ceiling division, saturation,
// negation) the cutting-planes proof system is built from.
package pbterm

import (
	"fmt"
	"math"
	"sort"

	"github.com/rebryant/ipbip/pkg/pbvar"
)

// Literal is a variable together with a polarity. ¬x is represented as
// Literal{Var: x, Neg: true}.
type Literal struct {
	Var pbvar.ID
	Neg bool
}

// Negate returns the complementary literal.
func (l Literal) Negate() Literal {
	return Literal{Var: l.Var, Neg: !l.Neg}
}

// Term is coeff·literal. An input term may carry any non-zero coefficient,
// including negative; a normalized term (see NormalizedConstraint) always
// has Coeff >= 1.
type Term struct {
	Coeff int64
	Var   pbvar.ID
	Neg   bool
}

// Literal returns the literal this term is attached to.
func (t Term) Literal() Literal {
	return Literal{Var: t.Var, Neg: t.Neg}
}

// InputConstraint is an unordered bag of input terms plus an integer rhs,
// representing Σ cᵢ·ℓᵢ >= rhs. Callers may supply any non-zero integer
// coefficients; at most one term per variable is assumed, but no ordering or
// sign normalization is required.
type InputConstraint struct {
	Terms []Term
	RHS   int64
}

// NormalizedConstraint is the canonical form of a constraint: every
// coefficient is >= 1, each variable occurs at most once, and terms are
// sorted by strictly non-increasing coefficient.
type NormalizedConstraint struct {
	Terms []Term
	RHS   int64
}

// Sum of all coefficients appearing in the constraint.
func (c NormalizedConstraint) Sum() int64 {
	var total int64
	for _, t := range c.Terms {
		total = checkedAdd(total, t.Coeff)
	}

	return total
}

// Slack is Σcᵢ - rhs for the constraint as it stands.
func (c NormalizedConstraint) Slack() int64 {
	return checkedSub(c.Sum(), c.RHS)
}

// IsRefutation reports whether this is the empty-terms ">= 1" contradiction
// that terminates a proof.
func (c NormalizedConstraint) IsRefutation() bool {
	return len(c.Terms) == 0 && c.RHS == 1
}

// Clone returns a deep copy safe to mutate independently of the receiver.
func (c NormalizedConstraint) Clone() NormalizedConstraint {
	terms := make([]Term, len(c.Terms))
	copy(terms, c.Terms)

	return NormalizedConstraint{Terms: terms, RHS: c.RHS}
}

// Equal reports structural equality: same rhs and the same terms in the same
// (canonical, sorted) order.
func (c NormalizedConstraint) Equal(o NormalizedConstraint) bool {
	if c.RHS != o.RHS || len(c.Terms) != len(o.Terms) {
		return false
	}

	for i := range c.Terms {
		if c.Terms[i] != o.Terms[i] {
			return false
		}
	}

	return true
}

// String renders the constraint in the §6.4 textual form, using the given
// variable manager to resolve names.
func (c NormalizedConstraint) String(vars *pbvar.Manager) string {
	s := ""
	for _, t := range c.Terms {
		s += fmt.Sprintf("%d %s ", t.Coeff, vars.RenderLiteral(t.Var, t.Neg))
	}

	return s + fmt.Sprintf(">= %d", c.RHS)
}

// Normalize canonicalizes an InputConstraint into a NormalizedConstraint:
// terms with coefficient zero are dropped; a term with negative coefficient
// c on literal ℓ becomes a term of coefficient |c| on ¬ℓ, with rhs adjusted
// by -c; the result is sorted by descending coefficient, ties broken by
// ascending variable id.
func Normalize(c InputConstraint) NormalizedConstraint {
	rhs := c.RHS
	terms := make([]Term, 0, len(c.Terms))

	for _, t := range c.Terms {
		switch {
		case t.Coeff == 0:
			continue
		case t.Coeff < 0:
			rhs = checkedSub(rhs, t.Coeff)
			terms = append(terms, Term{Coeff: -t.Coeff, Var: t.Var, Neg: !t.Neg})
		default:
			terms = append(terms, t)
		}
	}

	sortByDescendingCoeff(terms)

	return NormalizedConstraint{Terms: terms, RHS: rhs}
}

func sortByDescendingCoeff(terms []Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Coeff != terms[j].Coeff {
			return terms[i].Coeff > terms[j].Coeff
		}

		return terms[i].Var < terms[j].Var
	})
}

// checkedAdd and checkedSub abort (panic with a typed value recovered by
// callers that want ErrCoefficientOverflow) rather than silently wrap on
// int64 overflow. See SPEC_FULL.md §4.2 for the rationale.

type overflowPanic struct{}

func checkedAdd(a, b int64) int64 {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		panic(overflowPanic{})
	}

	return r
}

func checkedSub(a, b int64) int64 {
	if b == math.MinInt64 {
		panic(overflowPanic{})
	}

	return checkedAdd(a, -b)
}

func checkedMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}

	r := a * b
	if r/b != a {
		panic(overflowPanic{})
	}

	return r
}

// Recoverable runs fn and turns an overflow panic into ErrCoefficientOverflow.
// pkg/proof wraps every algebra call with this so a pathological proof aborts
// cleanly as an InternalInvariantViolation instead of crashing the process.
func Recoverable(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(overflowPanic); ok {
				err = ErrCoefficientOverflow
				return
			}

			panic(r)
		}
	}()

	fn()

	return nil
}
