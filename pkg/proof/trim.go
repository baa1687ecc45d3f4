package proof

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/rebryant/ipbip/pkg/pbterm"
)

// Hint is a renumbered reference to another emitted constraint. SelfRef
// marks a hint whose source is the RUP entry being emitted itself (spec.md
// §4.6's "self-reference" tagging), rendered as the negative of its id by
// the IPBIP writer. Set is false for NoHint.
type Hint struct {
	ID      int
	Set     bool
	SelfRef bool
}

// TrimmedStep is one renumbered propagation step in an emitted RUP trace.
type TrimmedStep struct {
	Source Hint
	Var    uint32
	Neg    bool
}

// TrimmedConstraint is one surviving, densely renumbered constraint ready
// for IPBIP emission.
type TrimmedConstraint struct {
	Kind ConstraintKind
	Body pbterm.NormalizedConstraint

	// Populated for KindInput/KindArithmetic.
	HintA, HintB Hint

	// Populated for KindRUP.
	Steps    []TrimmedStep
	Conflict Hint
}

// Trim performs the reachability walk from the last stored constraint (the
// final refutation) and renumbers every reachable constraint densely from
// 0, in original store order (spec.md §4.6).
func (m *Manager) Trim() ([]TrimmedConstraint, error) {
	n := m.store.len()
	if n == 0 {
		return nil, internalInvariantViolationf("cannot trim an empty clause store")
	}

	reachable := bitset.New(uint(n))
	root := ID(n - 1)
	m.markReachable(root, reachable)

	renumber := make([]int, n)
	next := 0

	for i := 0; i < n; i++ {
		if reachable.Test(uint(i)) {
			renumber[i] = next
			next++
		} else {
			renumber[i] = -1
		}
	}

	out := make([]TrimmedConstraint, 0, next)

	for i := 0; i < n; i++ {
		if !reachable.Test(uint(i)) {
			continue
		}

		sc := m.store.get(ID(i))
		tc, err := m.renumberConstraint(ID(i), sc, renumber)
		if err != nil {
			return nil, err
		}

		out = append(out, tc)
	}

	return out, nil
}

// markReachable walks hints transitively from id, recording every
// transitively-reachable constraint in reachable.
func (m *Manager) markReachable(id ID, reachable *bitset.BitSet) {
	if reachable.Test(uint(id)) {
		return
	}

	reachable.Set(uint(id))

	sc := m.store.get(id)

	switch sc.Kind {
	case KindArithmetic:
		if sc.HintA != NoHint {
			m.markReachable(sc.HintA, reachable)
		}

		if sc.HintB != NoHint {
			m.markReachable(sc.HintB, reachable)
		}

	case KindRUP:
		trace := m.store.traces[sc.HintB]
		for _, step := range trace.Steps {
			m.markReachable(step.Source, reachable)
		}

		m.markReachable(trace.Conflict, reachable)
	}
}

func (m *Manager) renumberConstraint(id ID, sc StoredConstraint, renumber []int) (TrimmedConstraint, error) {
	tc := TrimmedConstraint{Kind: sc.Kind, Body: sc.Body}

	// An objective template is never referenced by original id and has no
	// kind letter of its own in the output grammar (§6.2 only defines
	// i/a/u) — like the original tool, it is emitted exactly as an input
	// line whenever trimming keeps it reachable via some arithmetic hint.
	if tc.Kind == KindObjectiveTemplate {
		tc.Kind = KindInput
	}

	hint := func(h ID) (Hint, error) {
		if h == NoHint {
			return Hint{}, nil
		}

		if renumber[h] < 0 {
			return Hint{}, internalInvariantViolationf("hint references trimmed clause %d", h)
		}

		return Hint{ID: renumber[h], Set: true, SelfRef: h == id}, nil
	}

	switch sc.Kind {
	case KindInput, KindObjectiveTemplate:

	case KindArithmetic:
		var err error

		if tc.HintA, err = hint(sc.HintA); err != nil {
			return TrimmedConstraint{}, err
		}

		if tc.HintB, err = hint(sc.HintB); err != nil {
			return TrimmedConstraint{}, err
		}

	case KindRUP:
		trace := m.store.traces[sc.HintB]

		for _, step := range trace.Steps {
			h, err := hint(step.Source)
			if err != nil {
				return TrimmedConstraint{}, err
			}

			tc.Steps = append(tc.Steps, TrimmedStep{Source: h, Var: step.Var, Neg: step.Neg})
		}

		conflict, err := hint(trace.Conflict)
		if err != nil {
			return TrimmedConstraint{}, err
		}

		tc.Conflict = conflict

	default:
		return TrimmedConstraint{}, internalInvariantViolationf("cannot emit constraint of kind %s", sc.Kind)
	}

	return tc, nil
}
