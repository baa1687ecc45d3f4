package pbterm

import (
	"testing"

	"github.com/rebryant/ipbip/pkg/pbvar"
)

func mkConstraint(terms []Term, rhs int64) NormalizedConstraint {
	c := NormalizedConstraint{Terms: append([]Term(nil), terms...), RHS: rhs}
	sortByDescendingCoeff(c.Terms)

	return c
}

func TestSumScenarioA(t *testing.T) {
	// spec.md §8 Scenario A: two-variable contradiction via sum.
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	i1 := mkConstraint([]Term{{1, x, false}, {1, y, false}}, 1)
	i2 := mkConstraint([]Term{{1, x, true}, {1, y, true}}, 2)

	sum := Sum(i1, i2)

	if len(sum.Terms) != 0 || sum.RHS != 1 {
		t.Fatalf("expected empty-terms >= 1 refutation, got %s", sum.String(vars))
	}

	if !sum.IsRefutation() {
		t.Fatalf("expected IsRefutation() to hold")
	}
}

func TestSumWithSurvivingNegatedNet(t *testing.T) {
	// 2 x >= 1, 3 ~y >= 2: no shared variable, so no cancellation — the net
	// coefficient on y stays negative (-3) after folding, which must push
	// rhs from 0 back up to 3 when re-expressed on ~y, not leave it at 0.
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	a := mkConstraint([]Term{{2, x, false}}, 1)
	b := mkConstraint([]Term{{3, y, true}}, 2)

	sum := Sum(a, b)

	want := mkConstraint([]Term{{2, x, false}, {3, y, true}}, 3)
	if !sum.Equal(want) {
		t.Fatalf("Sum(2 x >= 1, 3 ~y >= 2) = %s, want %s", sum.String(vars), want.String(vars))
	}
}

func TestSaturateScenarioB(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	c := mkConstraint([]Term{{5, x, false}, {3, y, false}}, 2)
	sat := Saturate(c)

	want := mkConstraint([]Term{{2, x, false}, {2, y, false}}, 2)
	if !sat.Equal(want) {
		t.Fatalf("Saturate() = %s, want %s", sat.String(vars), want.String(vars))
	}
}

func TestCeilDivScenarioC(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	c := mkConstraint([]Term{{4, x, false}, {4, y, false}}, 5)
	div := CeilDiv(c, 2)

	want := mkConstraint([]Term{{2, x, false}, {2, y, false}}, 3)
	if !div.Equal(want) {
		t.Fatalf("CeilDiv() = %s, want %s", div.String(vars), want.String(vars))
	}
}

func TestScalarProductDistributesOverSum(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	a := mkConstraint([]Term{{2, x, false}}, 1)
	b := mkConstraint([]Term{{3, y, true}}, 2)

	lhs := ScalarProduct(Sum(a, b), 4)
	rhs := Sum(ScalarProduct(a, 4), ScalarProduct(b, 4))

	if !lhs.Equal(rhs) {
		t.Fatalf("k*(A+B) = %s, want k*A + k*B = %s", lhs.String(vars), rhs.String(vars))
	}
}

func TestSaturateIdempotent(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	c := mkConstraint([]Term{{5, x, false}, {1, y, false}}, 3)
	once := Saturate(c)
	twice := Saturate(once)

	if !once.Equal(twice) {
		t.Fatalf("sat(sat(A)) != sat(A): %s vs %s", twice.String(vars), once.String(vars))
	}

	for _, term := range once.Terms {
		if term.Coeff > once.RHS {
			t.Fatalf("saturated coefficient %d exceeds rhs %d", term.Coeff, once.RHS)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	vars := pbvar.NewManager()
	x := vars.Intern("x")
	y := vars.Intern("y")

	input := InputConstraint{Terms: []Term{{-3, x, false}, {2, y, false}, {0, y, true}}, RHS: 1}
	once := Normalize(input)
	twice := Normalize(InputConstraint{Terms: once.Terms, RHS: once.RHS})

	if !once.Equal(twice) {
		t.Fatalf("normalize(normalize(A)) != normalize(A): %s vs %s", twice.String(vars), once.String(vars))
	}
}

func TestNegateRUPScenarioD(t *testing.T) {
	vars := pbvar.NewManager()
	y := vars.Intern("y")

	target := mkConstraint([]Term{{1, y, false}}, 1)
	negated := Negate(target)

	want := mkConstraint([]Term{{1, y, true}}, 1)
	if !negated.Equal(want) {
		t.Fatalf("Negate(1 y >= 1) = %s, want %s", negated.String(vars), want.String(vars))
	}
}
