package proof

import (
	"errors"
	"math"
	"testing"

	"github.com/rebryant/ipbip/pkg/pbterm"
	"github.com/rebryant/ipbip/pkg/pbvar"
	"github.com/rebryant/ipbip/pkg/trie"
)

func term(coeff int64, v pbvar.ID, neg bool) pbterm.Term {
	return pbterm.Term{Coeff: coeff, Var: v, Neg: neg}
}

func ref(id int) trie.Token { return trie.NumToken(int64(id)) }
func op(o trie.Op) trie.Token { return trie.OpToken(o) }

func TestScenarioASumRefutation(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	m := NewManager(vars)

	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, x, false), term(1, y, false)}, RHS: 1})
	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, x, true), term(1, y, true)}, RHS: 2})

	id, err := m.AddPostfix([]trie.Token{ref(1), ref(2), op(trie.OpSum)}, true)
	if err != nil {
		t.Fatalf("AddPostfix: %v", err)
	}

	body := m.store.get(id).Body
	if !body.IsRefutation() {
		t.Fatalf("expected the empty-terms >= 1 refutation, got %s", body.String(vars))
	}

	trimmed, err := m.Trim()
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}

	// Three entries survive: the two inputs and the sum, which — being the
	// expression's own terminal '+' — is registered under a fresh original
	// id directly with hints straight back to both inputs (spec.md §8
	// Scenario A: "three lines, the last kind a, hints 1 2").
	if len(trimmed) != 3 {
		t.Fatalf("expected 3 surviving constraints, got %d: %+v", len(trimmed), trimmed)
	}

	last := trimmed[len(trimmed)-1]
	if last.Kind != KindArithmetic || !last.HintA.Set || !last.HintB.Set {
		t.Fatalf("expected the sum to carry both hints, got %+v", last)
	}

	if last.HintA.ID != 0 || last.HintB.ID != 1 {
		t.Fatalf("expected hints 0,1, got %d,%d", last.HintA.ID, last.HintB.ID)
	}
}

func TestScenarioESharedPrefixContractsToOneArithmeticStep(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")
	z := vars.Intern("z")
	w := vars.Intern("w")

	m := NewManager(vars)

	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, x, false)}, RHS: 0})
	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, y, false)}, RHS: 0})
	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, z, false)}, RHS: 0})
	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, w, false)}, RHS: 0})

	before := m.store.len()

	_, err := m.AddPostfix([]trie.Token{ref(1), ref(2), op(trie.OpSum)}, true)
	if err != nil {
		t.Fatalf("first AddPostfix: %v", err)
	}

	afterFirst := m.store.len()
	firstSteps := afterFirst - before
	if firstSteps != 1 {
		t.Fatalf("expected 1 new entry for '1 2 +' (a terminal '+' registers its own result directly), got %d", firstSteps)
	}

	// "1 2 + 4 +" shares the exact "1 2 +" prefix with the expression just
	// inserted into the trie, so evaluating it should reuse that entry as a
	// leaf rather than recomputing x+y: only the new "+ w" step is
	// appended, one entry fewer than a from-scratch evaluation (2 new
	// entries: the "1 2 +" sum, then the "+ w" combination) would need.
	_, err = m.AddPostfix([]trie.Token{ref(1), ref(2), op(trie.OpSum), ref(4), op(trie.OpSum)}, true)
	if err != nil {
		t.Fatalf("second AddPostfix: %v", err)
	}

	afterSecond := m.store.len()
	secondSteps := afterSecond - afterFirst
	if secondSteps != 1 {
		t.Fatalf("expected the shared '1 2 +' prefix to contract to 1 new entry, got %d", secondSteps)
	}
}

func TestAddDeriveRUPScenarioD(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	m := NewManager(vars)

	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, x, true)}, RHS: 1})
	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(2, x, false), term(2, y, false)}, RHS: 3})

	id, err := m.AddDerive(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, y, false)}, RHS: 1})
	if err != nil {
		t.Fatalf("AddDerive: %v", err)
	}

	sc := m.store.get(id)
	if sc.Kind != KindRUP || sc.HintA != RUPMark {
		t.Fatalf("expected a RUP entry with the RUPMark sentinel, got %+v", sc)
	}

	trace := m.store.traces[sc.HintB]
	if trace.Conflict == NoHint {
		t.Fatalf("expected a conflict in the trace, got none")
	}
}

func TestAddDeriveLatchSuppressesFurtherDerives(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")

	m := NewManager(vars)
	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, x, false)}, RHS: 1})
	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, x, true)}, RHS: 1})

	// The two inputs already contradict each other, so deriving the bare
	// empty-terms >= 1 refutation (whose negation is the trivial "0 >= 0")
	// succeeds by propagation over the inputs alone.
	id1, err := m.AddDerive(pbterm.InputConstraint{RHS: 1})
	if err != nil {
		t.Fatalf("AddDerive (refutation): %v", err)
	}

	if id1 == NoHint {
		t.Fatalf("expected the refutation derive to succeed and return an id")
	}

	if !m.unsatDerived {
		t.Fatalf("expected the unsat-derived latch to be set")
	}

	id2, err := m.AddDerive(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, x, false)}, RHS: 1})
	if err != nil {
		t.Fatalf("AddDerive after latch: %v", err)
	}

	if id2 != NoHint {
		t.Fatalf("expected a no-op after the latch is set, got id %d", id2)
	}
}

func TestObjectiveTemplateEmitsAsInput(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")

	m := NewManager(vars)

	// not-x >= 1 as a plain input, then register+apply an x >= 1 objective
	// template right before deriving the refutation, so the applied bound
	// survives the active-arithmetic-run rule (nothing else is appended
	// between ApplyObjectiveBound and AddDerive) and ends up as the clause
	// unit propagation actually conflicts on.
	m.AddInput(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, x, true)}, RHS: 1})

	template, err := m.RegisterObjectiveTemplate(pbterm.InputConstraint{Terms: []pbterm.Term{term(1, x, false)}, RHS: 1})
	if err != nil {
		t.Fatalf("RegisterObjectiveTemplate: %v", err)
	}

	applied := m.ApplyObjectiveBound(template)

	if _, err := m.AddDerive(pbterm.InputConstraint{RHS: 1}); err != nil {
		t.Fatalf("AddDerive: %v", err)
	}

	trimmed, err := m.Trim()
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}

	var sawTemplateAsInput bool

	for i, tc := range trimmed {
		if tc.Kind == KindArithmetic && tc.HintA.Set && i > 0 {
			sawTemplateAsInput = trimmed[tc.HintA.ID].Kind == KindInput
		}
	}

	if !sawTemplateAsInput {
		t.Fatalf("expected the objective template to be emitted as a plain input line, applied id %d, trimmed=%+v", applied, trimmed)
	}
}

// TestAddInputOverflowSurfacesAsInternalInvariantViolation confirms an
// algebra overflow (here, Normalize's negative-coefficient rhs adjustment
// overflowing int64) is caught and reported as ErrInternalInvariantViolation
// instead of panicking the process (SPEC_FULL.md §4.2/§7).
func TestAddInputOverflowSurfacesAsInternalInvariantViolation(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")

	m := NewManager(vars)

	_, err := m.AddInput(pbterm.InputConstraint{
		Terms: []pbterm.Term{{Coeff: math.MinInt64, Var: x, Neg: false}},
		RHS:   math.MaxInt64,
	})
	if err == nil {
		t.Fatal("expected an overflow error, got nil")
	}

	if !errors.Is(err, ErrInternalInvariantViolation) {
		t.Fatalf("expected ErrInternalInvariantViolation, got %v", err)
	}
}
