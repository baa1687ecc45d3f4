package pbterm

import "github.com/rebryant/ipbip/pkg/pbvar"

// Sum computes A + B. Every term is first folded into a signed net
// coefficient in the positive-literal basis: a negated term c·¬x is
// rewritten c·¬x = c - c·x, so it contributes -c to x's net coefficient and
// its constant c moves into rhs (rhs -= c) — the same basis change
// Normalize's own InputConstraint->NormalizedConstraint step performs, just
// run here in the opposite direction to fold same-variable terms together.
// The coalesced, still-signed net terms and the folded rhs are then handed
// back to Normalize as an InputConstraint, which performs the matching
// reverse adjustment for any net that lands negative (coeff c < 0 on x
// becomes |c| on ¬x with rhs += |c|, term.go:126-128). Routing through
// Normalize instead of hand-reconstructing terms is what keeps this in sync
// with that rhs rule for every surviving negative net, not only the ones
// that happen to cancel to zero.
//
// Panics with an overflowPanic on int64 overflow; wrap with Recoverable.
func Sum(a, b NormalizedConstraint) NormalizedConstraint {
	net := make(map[pbvar.ID]int64, len(a.Terms)+len(b.Terms))
	rhs := checkedAdd(a.RHS, b.RHS)

	accumulate := func(c NormalizedConstraint) {
		for _, t := range c.Terms {
			if t.Neg {
				net[t.Var] = checkedSub(net[t.Var], t.Coeff)
				rhs = checkedSub(rhs, t.Coeff)
			} else {
				net[t.Var] = checkedAdd(net[t.Var], t.Coeff)
			}
		}
	}

	accumulate(a)
	accumulate(b)

	// Preserve a deterministic term order independent of map iteration: walk
	// the input terms in their original order, emitting each variable the
	// first time it's seen.
	seen := make(map[pbvar.ID]bool, len(net))
	terms := make([]Term, 0, len(net))

	emit := func(c NormalizedConstraint) {
		for _, t := range c.Terms {
			if seen[t.Var] {
				continue
			}

			seen[t.Var] = true

			if coeff := net[t.Var]; coeff != 0 {
				terms = append(terms, Term{Coeff: coeff, Var: t.Var})
			}
		}
	}

	emit(a)
	emit(b)

	return Normalize(InputConstraint{Terms: terms, RHS: rhs})
}

// ScalarProduct computes k·A for integer k >= 1: every coefficient and the
// rhs are multiplied by k; term order is preserved (multiplying by a
// positive constant cannot change the descending-coefficient order).
func ScalarProduct(a NormalizedConstraint, k int64) NormalizedConstraint {
	if k < 1 {
		panic("pbterm: ScalarProduct requires k >= 1")
	}

	terms := make([]Term, len(a.Terms))
	for i, t := range a.Terms {
		terms[i] = Term{Coeff: checkedMul(t.Coeff, k), Var: t.Var, Neg: t.Neg}
	}

	return NormalizedConstraint{Terms: terms, RHS: checkedMul(a.RHS, k)}
}

// CeilDiv computes A/k for integer k >= 1: every coefficient c becomes
// ⌈c/k⌉ and rhs becomes ⌈rhs/k⌉. Soundness under cutting planes when k
// divides every coefficient is the caller's responsibility; this function
// only computes, it does not check divisibility.
func CeilDiv(a NormalizedConstraint, k int64) NormalizedConstraint {
	if k < 1 {
		panic("pbterm: CeilDiv requires k >= 1")
	}

	terms := make([]Term, len(a.Terms))
	for i, t := range a.Terms {
		terms[i] = Term{Coeff: ceilDiv(t.Coeff, k), Var: t.Var, Neg: t.Neg}
	}

	return NormalizedConstraint{Terms: terms, RHS: ceilDiv(a.RHS, k)}
}

func ceilDiv(n, k int64) int64 {
	return (n + k - 1) / k
}

// Saturate replaces every coefficient c with min(c, rhs); rhs is unchanged.
// Term order is preserved (clamping toward rhs cannot increase a
// coefficient, so descending order is maintained — ties simply mean several
// terms are now equal to rhs).
func Saturate(a NormalizedConstraint) NormalizedConstraint {
	terms := make([]Term, len(a.Terms))
	for i, t := range a.Terms {
		c := t.Coeff
		if a.RHS < c {
			c = a.RHS
		}

		terms[i] = Term{Coeff: c, Var: t.Var, Neg: t.Neg}
	}

	return NormalizedConstraint{Terms: terms, RHS: a.RHS}
}

// Negate produces the PB-sound negation of a constraint: for Σcᵢ·ℓᵢ >= rhs
// it returns Σcᵢ·¬ℓᵢ >= (Σcᵢ) - rhs + 1. Used only to construct RUP targets.
// PB negation is not involutive: Negate(Negate(A)) does not in general
// recover A (only an assignment-falsifying relationship is guaranteed — see
// SPEC_FULL.md §8).
func Negate(a NormalizedConstraint) NormalizedConstraint {
	terms := make([]Term, len(a.Terms))
	rhs := checkedSub(1, a.RHS)

	for i, t := range a.Terms {
		terms[i] = Term{Coeff: t.Coeff, Var: t.Var, Neg: !t.Neg}
		rhs = checkedAdd(rhs, t.Coeff)
	}

	return NormalizedConstraint{Terms: terms, RHS: rhs}
}
