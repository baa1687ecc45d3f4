package veripb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rebryant/ipbip/pkg/pbterm"
	"github.com/rebryant/ipbip/pkg/pbvar"
	"github.com/rebryant/ipbip/pkg/proof"
	"github.com/rebryant/ipbip/pkg/trie"
)

// Load reads a complete VeriPB proof from r and drives mgr through the
// event contract of spec.md §6.3, then injects the synthetic final
// "add_derive(>= 1, no terms)" that obtains the refutation.
//
// Grounded on ipbip_hints.cpp::parseProof: the first line is a header and is
// discarded unconditionally: the remaining lines are dispatched on their
// leading command token exactly as that function's if/else-if chain does,
// with "c" ending the scan early rather than merely skipping one line.
func Load(r io.Reader, mgr *proof.Manager) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0

	if scanner.Scan() {
		lineNo++
	}

	for scanner.Scan() {
		lineNo++

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		command, rest, _ := strings.Cut(text, " ")
		rest = strings.TrimSpace(rest)

		stop, err := dispatch(command, rest, mgr)
		if err != nil {
			return fmt.Errorf("veripb: line %d: %w", lineNo, err)
		}

		if stop {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("veripb: %w", err)
	}

	if _, err := mgr.AddDerive(pbterm.InputConstraint{RHS: 1}); err != nil {
		return fmt.Errorf("veripb: final refutation: %w", err)
	}

	return nil
}

// dispatch processes one non-header, non-blank line. stop reports whether
// the "c" terminator was seen, ending the scan early.
func dispatch(command, rest string, mgr *proof.Manager) (stop bool, err error) {
	switch {
	case strings.HasPrefix(command, "#") || strings.HasPrefix(command, "*"):
		return false, nil

	case command == "f":
		return false, nil

	case command == "w":
		return false, handleIgnore(rest, mgr)

	case command == "o" || command == "soli":
		return false, handleObjective(rest, mgr)

	case command == "u":
		return false, handleDerive(rest, mgr)

	case command == "p":
		return false, handlePostfix(rest, mgr)

	case command == "c":
		return true, nil

	default:
		return false, fmt.Errorf("%w: unrecognized command %q", proof.ErrMalformedInput, command)
	}
}

// handleIgnore maps a "w k" line onto ignore_original_clauses(k) (spec.md
// §6.1): ipbip_hints.cpp discards "w" lines unconditionally, leaving
// Manager.h's register_opt/add_opt-style "advance by k sentinels" hook
// otherwise uncalled by any event in this grammar; a malformed or
// argument-less "w" line advances by zero, preserving the original's
// unconditional ignore as the fallback.
func handleIgnore(rest string, mgr *proof.Manager) error {
	if rest == "" {
		return nil
	}

	k, err := strconv.Atoi(strings.Fields(rest)[0])
	if err != nil {
		return nil
	}

	mgr.IgnoreOriginalClauses(k)

	return nil
}

// handleObjective builds the input_clause ipbip_hints.cpp's "o" handler
// builds: one term per assignment literal, coefficient 1, forced
// non-negated regardless of the literal's own polarity, with
// rhs = (count of non-negated literals) + 1. It then registers and
// immediately applies a fresh objective template from that body
// (Manager.h's register_opt followed by add_opt).
func handleObjective(rest string, mgr *proof.Manager) error {
	body, err := objectiveParser.ParseString("", rest)
	if err != nil {
		return fmt.Errorf("%w: %v", proof.ErrMalformedInput, err)
	}

	terms := make([]pbterm.Term, 0, len(body.Lits))

	var nonNegated int64

	for _, lit := range body.Lits {
		name, neg := pbvar.ParseLiteral(lit)
		if name == "" {
			return fmt.Errorf("%w: empty variable name", proof.ErrMalformedInput)
		}

		v := mgr.Vars.Intern(name)
		terms = append(terms, pbterm.Term{Coeff: 1, Var: v, Neg: false})

		if !neg {
			nonNegated++
		}
	}

	tmpl, err := mgr.RegisterObjectiveTemplate(pbterm.InputConstraint{Terms: terms, RHS: nonNegated + 1})
	if err != nil {
		return err
	}

	mgr.ApplyObjectiveBound(tmpl)

	return nil
}

// handleDerive parses a "u" line's target constraint and appends it as a
// RUP clause (str_to_input_clause, reused for "u" lines in the original).
func handleDerive(rest string, mgr *proof.Manager) error {
	body, err := constraintParser.ParseString("", rest)
	if err != nil {
		return fmt.Errorf("%w: %v", proof.ErrMalformedInput, err)
	}

	if body.Relop != ">=" {
		return fmt.Errorf("%w: relation %q", proof.ErrUnsupportedConstruct, body.Relop)
	}

	terms := make([]pbterm.Term, 0, len(body.Terms))

	for _, t := range body.Terms {
		name, neg := pbvar.ParseLiteral(t.Lit)
		if name == "" {
			return fmt.Errorf("%w: empty variable name", proof.ErrMalformedInput)
		}

		terms = append(terms, pbterm.Term{Coeff: t.Coeff, Var: mgr.Vars.Intern(name), Neg: neg})
	}

	_, err = mgr.AddDerive(pbterm.InputConstraint{Terms: terms, RHS: body.RHS})
	if err != nil {
		return err
	}

	return nil
}

// handlePostfix parses a "p" line's reverse-Polish expression and evaluates
// it as a cutting-planes derivation (str_to_rpn_input, §4.3). Clause
// references in a VeriPB proof are always 1-based.
func handlePostfix(rest string, mgr *proof.Manager) error {
	body, err := postfixParser.ParseString("", rest)
	if err != nil {
		return fmt.Errorf("%w: %v", proof.ErrMalformedInput, err)
	}

	tokens := make([]trie.Token, 0, len(body.Tokens))

	for _, t := range body.Tokens {
		switch {
		case t.Num != nil:
			tokens = append(tokens, trie.NumToken(*t.Num))

		case t.Op != nil:
			op, err := parseOp(*t.Op)
			if err != nil {
				return err
			}

			tokens = append(tokens, trie.OpToken(op))

		default:
			return fmt.Errorf("%w: empty postfix token", proof.ErrMalformedInput)
		}
	}

	_, err = mgr.AddPostfix(tokens, true)

	return err
}

func parseOp(s string) (trie.Op, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("%w: malformed operator %q", proof.ErrMalformedInput, s)
	}

	switch trie.Op(s[0]) {
	case trie.OpSum, trie.OpProd, trie.OpDiv, trie.OpSat:
		return trie.Op(s[0]), nil
	default:
		return 0, fmt.Errorf("%w: unknown operator %q", proof.ErrMalformedInput, s)
	}
}
