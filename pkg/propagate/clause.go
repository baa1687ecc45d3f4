package propagate

import "github.com/rebryant/ipbip/pkg/pbterm"

// clause is a propagator-local working copy of a normalized constraint.
// Terms are never reordered or reallocated after construction — only marked
// dead — so a term's index is stable for the lifetime of one Derive call.
// The propagator must never mutate the constraints it was handed (spec.md
// §5's memory-discipline rule), which is the whole reason this copy exists.
type clause struct {
	terms []pbterm.Term
	alive []bool
	rhs   int64
	sum   int64 // sum of coefficients of alive terms
	front int    // index of the leading alive term, or -1 if none
}

func newClause(c pbterm.NormalizedConstraint) *clause {
	cl := &clause{
		terms: c.Terms,
		alive: make([]bool, len(c.Terms)),
		rhs:   c.RHS,
	}

	var sum int64
	for i := range cl.alive {
		cl.alive[i] = true
		sum += cl.terms[i].Coeff
	}

	cl.sum = sum
	if len(cl.terms) == 0 {
		cl.front = -1
	} else {
		cl.front = 0
	}

	return cl
}

// slack is the constraint's current lhs-sum minus rhs.
func (c *clause) slack() int64 {
	return c.sum - c.rhs
}

// factor is the propagation factor: slack minus the leading term's
// coefficient, or the unprop sentinel once no terms remain (spec.md §4.4).
func (c *clause) factor() int64 {
	if c.front < 0 {
		return unprop
	}

	return c.slack() - c.terms[c.front].Coeff
}

// deleteTerm removes the term at idx — the occurrence of some propagated
// variable in this constraint, which need not be this constraint's own
// leading term — adjusting the running sum, rhs (only if the deleted
// literal's polarity matches the forced polarity), and the front index if
// the deleted term was the leading one. Since front is always the smallest
// alive index, idx can only be at or after the current front.
func (c *clause) deleteTerm(idx int, forcedNeg bool) {
	term := c.terms[idx]
	c.alive[idx] = false
	c.sum -= term.Coeff

	if term.Neg == forcedNeg {
		c.rhs -= term.Coeff
	}

	if idx != c.front {
		return
	}

	c.front = -1
	for i := idx + 1; i < len(c.terms); i++ {
		if c.alive[i] {
			c.front = i
			break
		}
	}
}
