package propagate

import (
	"testing"

	"github.com/rebryant/ipbip/pkg/pbterm"
	"github.com/rebryant/ipbip/pkg/pbvar"
)

func mkConstraint(terms []pbterm.Term, rhs int64) pbterm.NormalizedConstraint {
	c := pbterm.NormalizedConstraint{Terms: append([]pbterm.Term(nil), terms...), RHS: rhs}
	return pbterm.Normalize(pbterm.InputConstraint{Terms: c.Terms, RHS: c.RHS})
}

func TestDeriveScenarioD(t *testing.T) {
	// spec.md §8 Scenario D: "1 y >= 1" and its RUP negation "1 ~y >= 1"
	// (not y) propagate a direct conflict.
	vars := pbvar.NewManager()
	y := vars.Intern("y")

	target := mkConstraint([]pbterm.Term{{1, y, false}}, 1)
	negated := pbterm.Negate(target)

	result := Derive([]pbterm.NormalizedConstraint{target, negated}, int(vars.Len()))

	if result.Conflict < 0 {
		t.Fatalf("expected a conflict, got none; steps=%v", result.Steps)
	}

	if len(result.Steps) != 1 {
		t.Fatalf("expected exactly one forced literal before conflict, got %v", result.Steps)
	}

	step := result.Steps[0]
	if step.Var != uint32(y) || step.Neg {
		t.Fatalf("expected forced literal y (positive), got %+v", step)
	}
}

func TestDeriveScenarioA(t *testing.T) {
	// spec.md §8 Scenario A's two constraints, fed straight to the
	// propagator rather than through Sum: only not-x+not-y>=2 starts with a
	// negative propagation factor (-1; x+y>=1 starts at 0), so propagation
	// forces not-x from the second constraint, which drops the first's
	// factor to -1 and cascades to force y from it, which conflicts
	// against the second.
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	c1 := mkConstraint([]pbterm.Term{{1, x, false}, {1, y, false}}, 1)
	c2 := mkConstraint([]pbterm.Term{{1, x, true}, {1, y, true}}, 2)

	result := Derive([]pbterm.NormalizedConstraint{c1, c2}, int(vars.Len()))

	if result.Conflict != 1 {
		t.Fatalf("expected constraint 1 to end up negative-slack, got %+v", result)
	}

	if len(result.Steps) != 2 {
		t.Fatalf("expected two forced literals (x then y), got %v", result.Steps)
	}

	if result.Steps[0].Source != 1 || result.Steps[0].Var != uint32(x) || !result.Steps[0].Neg {
		t.Fatalf("expected constraint 1 to force not-x first, got %+v", result.Steps[0])
	}

	if result.Steps[1].Source != 0 || result.Steps[1].Var != uint32(y) || result.Steps[1].Neg {
		t.Fatalf("expected constraint 0 to force y second, got %+v", result.Steps[1])
	}
}

func TestDeriveCascadingPropagation(t *testing.T) {
	// x>=1 forces x; x+y>=2 then forces y from the updated slack; y's
	// negation (not y >= 1) then conflicts.
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	forceX := mkConstraint([]pbterm.Term{{1, x, false}}, 1)
	forceY := mkConstraint([]pbterm.Term{{1, x, false}, {1, y, false}}, 2)
	blockY := mkConstraint([]pbterm.Term{{1, y, true}}, 1)

	result := Derive([]pbterm.NormalizedConstraint{forceX, forceY, blockY}, int(vars.Len()))

	if result.Conflict != 2 {
		t.Fatalf("expected the not-y constraint (index 2) to conflict, got %+v", result)
	}

	if len(result.Steps) != 2 {
		t.Fatalf("expected two forced literals (x then y), got %v", result.Steps)
	}

	if result.Steps[0].Var != uint32(x) || result.Steps[0].Neg {
		t.Fatalf("expected x to propagate first, got %+v", result.Steps[0])
	}

	if result.Steps[1].Var != uint32(y) || result.Steps[1].Neg {
		t.Fatalf("expected y to propagate second, got %+v", result.Steps[1])
	}
}

func TestDeriveNoConflictReturnsSentinel(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")

	satisfiable := mkConstraint([]pbterm.Term{{1, x, false}}, 0)

	result := Derive([]pbterm.NormalizedConstraint{satisfiable}, int(vars.Len()))

	if result.Conflict != -1 {
		t.Fatalf("expected no conflict (sentinel -1), got %+v", result)
	}
}
