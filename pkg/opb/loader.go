package opb

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rebryant/ipbip/pkg/pbterm"
	"github.com/rebryant/ipbip/pkg/pbvar"
	"github.com/rebryant/ipbip/pkg/proof"
)

// Load reads a complete OPB formula from r, feeding every constraint to
// mgr.AddInput in line order. A "min:" objective line, if present, registers
// an objective template (SPEC_FULL.md §4.6's supplement on register_opt):
// this is a static record of the objective's variables/coefficients, kept
// apart from pkg/veripb's own per-solution register+apply pairs, which build
// a fresh template from each improving assignment rather than reuse this
// one (see DESIGN.md's Open Question decision on objective-template wiring).
func Load(r io.Reader, mgr *proof.Manager) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0

	for scanner.Scan() {
		lineNo++

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		line, err := parser.ParseString("", text)
		if err != nil {
			return fmt.Errorf("opb: line %d: %w: %v", lineNo, proof.ErrMalformedInput, err)
		}

		switch {
		case line.Comment != nil:
			continue

		case line.Objective != nil:
			terms, err := toTerms(mgr.Vars, line.Objective.Terms)
			if err != nil {
				return fmt.Errorf("opb: line %d: %w", lineNo, err)
			}

			if _, err := mgr.RegisterObjectiveTemplate(pbterm.InputConstraint{Terms: terms}); err != nil {
				return fmt.Errorf("opb: line %d: %w", lineNo, err)
			}

		case line.Constraint != nil:
			if line.Constraint.Relop != ">=" {
				return fmt.Errorf("opb: line %d: %w: relation %q", lineNo, proof.ErrUnsupportedConstruct, line.Constraint.Relop)
			}

			terms, err := toTerms(mgr.Vars, line.Constraint.Terms)
			if err != nil {
				return fmt.Errorf("opb: line %d: %w", lineNo, err)
			}

			if _, err := mgr.AddInput(pbterm.InputConstraint{Terms: terms, RHS: line.Constraint.RHS}); err != nil {
				return fmt.Errorf("opb: line %d: %w", lineNo, err)
			}

		default:
			return fmt.Errorf("opb: line %d: %w: empty record", lineNo, proof.ErrMalformedInput)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("opb: %w", err)
	}

	return nil
}

func toTerms(vars *pbvar.Manager, signed []*SignedTerm) ([]pbterm.Term, error) {
	terms := make([]pbterm.Term, 0, len(signed))

	for _, s := range signed {
		name, neg := pbvar.ParseLiteral(s.Lit)
		if name == "" {
			return nil, fmt.Errorf("%w: empty variable name", proof.ErrMalformedInput)
		}

		v := vars.Intern(name)

		// A negative coefficient is passed through as-is: pbterm.Normalize
		// is the single place that rewrites it to a positive coefficient on
		// the complementary literal, adjusting rhs to match.
		terms = append(terms, pbterm.Term{Coeff: s.Coeff, Var: v, Neg: neg})
	}

	return terms, nil
}
