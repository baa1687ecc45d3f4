package ipbip

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rebryant/ipbip/pkg/pbterm"
	"github.com/rebryant/ipbip/pkg/pbvar"
)

// Kind is an IPBIP line's leading command letter.
type Kind byte

const (
	KindInput      Kind = 'i'
	KindArithmetic Kind = 'a'
	KindRUP        Kind = 'u'
)

// HintRef is a parsed hint token: either unset, a plain forward-free
// reference to an earlier line, or a self-reference to the line being read
// itself (spec.md §6.2's id-rendering rule, inverted).
type HintRef struct {
	ID      int
	Set     bool
	SelfRef bool
}

// Step is one parsed RUP propagation bracket: "[id literal]".
type Step struct {
	Source HintRef
	Var    pbvar.ID
	Neg    bool
}

// Line is one parsed IPBIP record. HintA/HintB are populated for
// Kind{Input,Arithmetic}; Steps/Conflict for KindRUP.
type Line struct {
	Kind Kind
	Body pbterm.NormalizedConstraint

	HintA, HintB HintRef

	Steps    []Step
	Conflict HintRef
}

// ParseDocument reads a complete IPBIP stream (this package's own writer
// output) into a slice of Lines, in file order. This is the "minimal
// reader used only by the downstream-checker stub" (SPEC_FULL.md §2): it
// only ever needs to round-trip what Write produced, not tolerate arbitrary
// hand-edited PBIP text the way pbip-check.cpp's hand-rolled char-by-char
// scanner does.
func ParseDocument(r io.Reader, vars *pbvar.Manager) ([]Line, error) {
	var lines []Line

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		line, err := parseLine(text, vars)
		if err != nil {
			return nil, fmt.Errorf("ipbip: line %d: %w", lineNo, err)
		}

		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ipbip: %w", err)
	}

	return lines, nil
}

func parseLine(text string, vars *pbvar.Manager) (Line, error) {
	semi := strings.IndexByte(text, ';')
	if semi < 0 {
		return Line{}, fmt.Errorf("missing ';' separator in %q", text)
	}

	head := strings.Fields(text[:semi])
	if len(head) < 1 {
		return Line{}, fmt.Errorf("missing kind letter in %q", text)
	}

	kind := Kind(head[0][0])

	body, err := parseBody(head[1:], vars)
	if err != nil {
		return Line{}, err
	}

	tail := strings.TrimSpace(text[semi+1:])

	switch kind {
	case KindInput, KindArithmetic:
		fields := strings.Fields(tail)

		var a, b HintRef

		if len(fields) > 0 {
			if a, err = parseHint(fields[0]); err != nil {
				return Line{}, err
			}
		}

		if len(fields) > 1 {
			if b, err = parseHint(fields[1]); err != nil {
				return Line{}, err
			}
		}

		return Line{Kind: kind, Body: body, HintA: a, HintB: b}, nil

	case KindRUP:
		steps, conflict, err := parseRUPHints(tail, vars)
		if err != nil {
			return Line{}, err
		}

		return Line{Kind: kind, Body: body, Steps: steps, Conflict: conflict}, nil

	default:
		return Line{}, fmt.Errorf("unknown kind letter %q", head[0])
	}
}

// parseBody parses "c1 lit1 c2 lit2 ... >= R" (spec.md §6.4) into a
// NormalizedConstraint. The writer only ever emits already-normalized
// bodies in descending-coefficient order, so no re-sort is needed here.
func parseBody(fields []string, vars *pbvar.Manager) (pbterm.NormalizedConstraint, error) {
	idx := -1

	for i, f := range fields {
		if f == ">=" {
			idx = i
			break
		}
	}

	if idx < 0 || idx%2 != 0 || idx+1 >= len(fields) {
		return pbterm.NormalizedConstraint{}, fmt.Errorf("malformed body %q", strings.Join(fields, " "))
	}

	var terms []pbterm.Term

	for i := 0; i+1 < idx; i += 2 {
		coeff, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return pbterm.NormalizedConstraint{}, fmt.Errorf("malformed coefficient %q", fields[i])
		}

		v, neg := vars.InternLiteral(fields[i+1])
		terms = append(terms, pbterm.Term{Coeff: coeff, Var: v, Neg: neg})
	}

	rhs, err := strconv.ParseInt(fields[idx+1], 10, 64)
	if err != nil {
		return pbterm.NormalizedConstraint{}, fmt.Errorf("malformed rhs %q", fields[idx+1])
	}

	return pbterm.NormalizedConstraint{Terms: terms, RHS: rhs}, nil
}

// parseHint inverts renderHint: "" -> unset, "N" -> non-self id N-1, "-N" ->
// self-referential id N+1.
func parseHint(tok string) (HintRef, error) {
	if tok == "" {
		return HintRef{}, nil
	}

	if strings.HasPrefix(tok, "-") {
		q, err := strconv.Atoi(tok[1:])
		if err != nil {
			return HintRef{}, fmt.Errorf("malformed self-referential hint %q", tok)
		}

		return HintRef{ID: q + 1, Set: true, SelfRef: true}, nil
	}

	p, err := strconv.Atoi(tok)
	if err != nil {
		return HintRef{}, fmt.Errorf("malformed hint %q", tok)
	}

	return HintRef{ID: p - 1, Set: true}, nil
}

// parseRUPHints parses "[id literal] [id literal] ... [id]" (spec.md §6.2):
// every bracket but the last carries a literal and becomes a Step; the
// final, literal-less bracket is the conflict.
func parseRUPHints(tail string, vars *pbvar.Manager) ([]Step, HintRef, error) {
	var steps []Step

	var conflict HintRef

	rest := tail

	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			break
		}

		if rest[0] != '[' {
			return nil, HintRef{}, fmt.Errorf("expected '[' in %q", tail)
		}

		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, HintRef{}, fmt.Errorf("unterminated '[' in %q", tail)
		}

		inner := strings.Fields(rest[1:end])
		rest = rest[end+1:]

		switch len(inner) {
		case 1:
			h, err := parseHint(inner[0])
			if err != nil {
				return nil, HintRef{}, err
			}

			conflict = h

		case 2:
			h, err := parseHint(inner[0])
			if err != nil {
				return nil, HintRef{}, err
			}

			v, neg := vars.InternLiteral(inner[1])
			steps = append(steps, Step{Source: h, Var: v, Neg: neg})

		default:
			return nil, HintRef{}, fmt.Errorf("malformed bracket hint %q", rest[:end+1])
		}
	}

	return steps, conflict, nil
}
