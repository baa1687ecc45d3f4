// Package propagate implements hinted unit propagation over pseudo-Boolean
// constraints (spec.md §4.4), the core engine the RUP assembly step in
// pkg/proof uses to check that a candidate constraint is implied by the
// constraints available to it.
//
// Grounded on original_source/tools/Manager.h's unit_propagation::derive,
// with one deliberate simplification: derive's "clause version" bookkeeping
// (last_version/next_assignable) is dead weight in the original — the
// values it threads through are computed but never read back out — so it
// is dropped here and every propagation step just records the plain
// (0-based) index of the constraint whose leading literal was forced.
package propagate

import "github.com/rebryant/ipbip/pkg/pbterm"

// Step is one forced literal: the id (index into the Derive input slice) of
// the constraint whose leading term forced it, and the literal itself.
type Step struct {
	Source int
	Var    uint32
	Neg    bool
}

// Result is the outcome of one Derive call: the ordered propagation trace,
// and the index of the constraint that went negative-slack, or -1 if
// propagation ran out of forced literals without a conflict (spec.md §4.4:
// the caller treats that as a malformed RUP step).
type Result struct {
	Steps    []Step
	Conflict int
}

// Derive runs hinted unit propagation to exhaustion over constraints,
// starting from whatever is already forced by their initial slacks, and
// returns the trace of forced literals together with the first constraint
// driven to negative slack.
//
// constraints is read-only: Derive works entirely against local copies, and
// callers may safely reuse or mutate their own slices afterwards.
func Derive(constraints []pbterm.NormalizedConstraint, numVars int) Result {
	clauses := make([]*clause, len(constraints))
	for i, c := range constraints {
		clauses[i] = newClause(c)
	}

	occs := buildOccurrences(clauses, numVars)

	// A constraint can already be an unconditional refutation (zero terms,
	// negative slack) before any literal is forced — e.g. when one of the
	// constraints handed in is itself the empty-terms output of an earlier
	// Sum. Nothing would ever touch such a constraint again during
	// propagation (it has no terms, hence no occurrences), so it has to be
	// caught up front rather than relying on the deletion-time check below.
	for i, cl := range clauses {
		if cl.slack() < 0 {
			return Result{Conflict: i}
		}
	}

	pq := newPriorityQueue(len(clauses))
	for i, cl := range clauses {
		pq.Insert(entry{factor: cl.factor(), id: i})
	}

	propagated := make([]bool, numVars+1)
	var steps []Step

	for {
		min := pq.Min()
		if min.factor >= 0 {
			return Result{Steps: steps, Conflict: -1}
		}

		source := clauses[min.id]
		front := source.terms[source.front]

		if propagated[front.Var] {
			panic("propagate: variable propagated twice in one derivation")
		}
		propagated[front.Var] = true

		steps = append(steps, Step{Source: min.id, Var: uint32(front.Var), Neg: front.Neg})

		for _, occ := range occs[front.Var] {
			cl := clauses[occ.clauseID]
			if !cl.alive[occ.termIdx] {
				continue
			}

			old := entry{factor: cl.factor(), id: occ.clauseID}
			cl.deleteTerm(occ.termIdx, front.Neg)
			pq.Remove(old)
			pq.Insert(entry{factor: cl.factor(), id: occ.clauseID})

			if cl.slack() < 0 {
				return Result{Steps: steps, Conflict: occ.clauseID}
			}
		}
	}
}

type occurrence struct {
	clauseID int
	termIdx  int
}

// buildOccurrences indexes, for each variable, every (clause, term) pair
// that mentions it, in clause-order then term-order — the insertion order
// spec.md §4.4 requires occurrences of a propagated variable to be
// processed in.
func buildOccurrences(clauses []*clause, numVars int) [][]occurrence {
	occs := make([][]occurrence, numVars+1)

	for ci, cl := range clauses {
		for ti, t := range cl.terms {
			occs[t.Var] = append(occs[t.Var], occurrence{clauseID: ci, termIdx: ti})
		}
	}

	return occs
}
