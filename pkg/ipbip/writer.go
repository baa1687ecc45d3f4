// Package ipbip renders and parses the annotated intermediate proof text
// format (spec.md §6.2/§6.4): one line per constraint, a kind letter, the
// normalized body, and a hint annotation whose shape depends on the kind.
//
// Grounded on original_source/tools/pbip-check.cpp's own line grammar (it
// reads the predecessor PBIP format with the same i/u/a kind letters and
// bracketed RUP hints) and on Manager.h's id-rendering convention.
package ipbip

import (
	"fmt"
	"io"

	"github.com/rebryant/ipbip/pkg/pbvar"
	"github.com/rebryant/ipbip/pkg/proof"
)

func kindLetter(k proof.ConstraintKind) (byte, error) {
	switch k {
	case proof.KindInput:
		return 'i', nil
	case proof.KindArithmetic:
		return 'a', nil
	case proof.KindRUP:
		return 'u', nil
	default:
		return 0, fmt.Errorf("ipbip: cannot emit constraint kind %s", k)
	}
}

// renderHint implements spec.md §6.2's id-rendering rule: unset -> "",
// non-self -> renumbered_id+1, self-referential -> "-" + (renumbered_id-1).
func renderHint(h proof.Hint) string {
	if !h.Set {
		return ""
	}

	if h.SelfRef {
		return fmt.Sprintf("-%d", h.ID-1)
	}

	return fmt.Sprintf("%d", h.ID+1)
}

// Write renders trimmed constraints as IPBIP text, one line per constraint
// in the order given (already dense-renumbered by proof.Manager.Trim).
func Write(w io.Writer, vars *pbvar.Manager, constraints []proof.TrimmedConstraint) error {
	for _, tc := range constraints {
		letter, err := kindLetter(tc.Kind)
		if err != nil {
			return err
		}

		body := tc.Body.String(vars)

		switch tc.Kind {
		case proof.KindInput, proof.KindArithmetic:
			if _, err := fmt.Fprintf(w, "%c %s ; %s %s\n", letter, body, renderHint(tc.HintA), renderHint(tc.HintB)); err != nil {
				return err
			}

		case proof.KindRUP:
			hints := ""
			for _, step := range tc.Steps {
				hints += fmt.Sprintf("[%s %s] ", renderHint(step.Source), vars.RenderLiteral(pbvar.ID(step.Var), step.Neg))
			}

			hints += fmt.Sprintf("[%s]", renderHint(tc.Conflict))

			if _, err := fmt.Fprintf(w, "%c %s ; %s\n", letter, body, hints); err != nil {
				return err
			}
		}
	}

	return nil
}
