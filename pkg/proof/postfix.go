package proof

import (
	"github.com/rebryant/ipbip/pkg/pbterm"
	"github.com/rebryant/ipbip/pkg/trie"
)

// evalPostfix evaluates a postfix cutting-planes expression (spec.md §4.3)
// against the Manager's ClauseStore, after first shortening it through the
// prefix trie. It returns the id of the top-level arithmetic entry recorded
// for the whole expression.
//
// Grounded on Manager.h's Manager::add_rpn. One deliberate deviation: the
// original stores the trie's terminal label as an *original* id, adjusted by
// the one_indexed convention on every insert/lookup round trip. This stores
// the terminal label as the already-resolved internal ClauseStore id
// instead, which is observationally identical (the trie is purely a reuse
// optimization; nothing downstream distinguishes how a shared subexpression
// was addressed) and sidesteps that adjustment arithmetic entirely.
func (m *Manager) evalPostfix(tokens []trie.Token, oneIndexed bool) (ID, error) {
	original := append([]trie.Token(nil), tokens...)

	var shortened bool
	tokens, shortened = m.trie.Shorten(tokens)

	n := len(tokens)
	if n == 0 {
		return NoHint, malformedInputf("empty postfix expression")
	}

	// offset maps a completed-prefix boundary in the (possibly shortened)
	// tokens array back to the equivalent boundary in the original,
	// unshortened stream: original[:offset+i+1] is the unshortened prefix
	// that ends wherever tokens[i] does. When nothing was contracted,
	// tokens == original and offset is 0.
	offset := len(original) - n

	// bodies[i]/sources[i] hold, for each stack slot ever pushed at position
	// i, the resolved constraint body and the ClauseStore id credited as its
	// source hint. resolved[i] distinguishes a slot already populated
	// (trie-substituted head, or an operator's output) from a numeric leaf
	// still needing an original-id lookup.
	bodies := make([]pbterm.NormalizedConstraint, n)
	sources := make([]ID, n)
	resolved := make([]bool, n)

	if shortened {
		head := ID(tokens[0].Value)
		bodies[0] = m.store.get(head).Body
		sources[0] = head
		resolved[0] = true
	}

	resolve := func(i int) (pbterm.NormalizedConstraint, ID, error) {
		if resolved[i] {
			return bodies[i], sources[i], nil
		}

		internalID, err := m.store.resolveOriginal(int(tokens[i].Value), oneIndexed)
		if err != nil {
			return pbterm.NormalizedConstraint{}, NoHint, err
		}

		if internalID == NoHint {
			return pbterm.NormalizedConstraint{}, NoHint, malformedInputf("postfix reference %d resolves to an ignored clause", tokens[i].Value)
		}

		return m.store.get(internalID).Body, internalID, nil
	}

	var stack []int

	// finalIsOriginal is set when the last token is a '+' or 'd' operator,
	// which — per the i == n-1 branches below — registers its own result
	// under a fresh original id directly. In that case the post-loop tail
	// must not wrap it in a second entry.
	var finalIsOriginal bool

	pop2 := func() (int, int) {
		b := stack[len(stack)-1]
		a := stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		return a, b
	}

	// record finalizes the value produced at position i and pushes it. Any
	// time this brings the stack back down to a single value, tokens[:i+1]
	// is itself a complete postfix sub-expression — label its unshortened
	// equivalent in the trie so a later expression sharing that prefix can
	// reuse it (spec.md §8 Scenario E), whether or not this happens to be
	// the expression's own final token. A fused '*'/'s' result whose body
	// differs from its source entry's body is not labeled, since no stored
	// entry realizes it.
	record := func(i int, body pbterm.NormalizedConstraint, source ID) {
		bodies[i], sources[i], resolved[i] = body, source, true
		stack = append(stack, i)

		if len(stack) == 1 && m.store.get(source).Body.Equal(body) {
			m.trie.Insert(original[:offset+i+1], int64(source))
		}
	}

	for i, tok := range tokens {
		if i == 0 && shortened {
			stack = append(stack, 0)
			continue
		}

		if tok.Numeric {
			stack = append(stack, i)
			continue
		}

		switch tok.Op {
		case trie.OpSum:
			if len(stack) < 2 {
				return NoHint, malformedInputf("postfix '+' with fewer than 2 operands")
			}

			a, b := pop2()

			ba, sa, err := resolve(a)
			if err != nil {
				return NoHint, err
			}

			bb, sb, err := resolve(b)
			if err != nil {
				return NoHint, err
			}

			var sum pbterm.NormalizedConstraint
			if err := runAlgebra(func() { sum = pbterm.Sum(ba, bb) }); err != nil {
				return NoHint, err
			}

			// A '+' that produces the expression's own top-level result
			// (it's the last token) is registered under a fresh original
			// id directly — there is no separate wrapper entry, so a flat
			// "1 2 +" costs exactly one new line (spec.md §8 Scenario A),
			// not two.
			var id ID
			if i == n-1 {
				id = m.store.appendOriginal(KindArithmetic, sum, sa, sb)
				finalIsOriginal = true
			} else {
				id = m.store.append(KindArithmetic, sum, sa, sb)
			}

			record(i, sum, id)

		case trie.OpProd, trie.OpDiv:
			if len(stack) < 2 {
				return NoHint, malformedInputf("postfix '%c' with fewer than 2 operands", byte(tok.Op))
			}

			a, b := pop2()

			ba, sa, err := resolve(a)
			if err != nil {
				return NoHint, err
			}

			if !tokens[b].Numeric {
				return NoHint, malformedInputf("postfix '%c' expects a constant operand", byte(tok.Op))
			}

			k := tokens[b].Value

			if tok.Op == trie.OpProd {
				var result pbterm.NormalizedConstraint
				if err := runAlgebra(func() { result = pbterm.ScalarProduct(ba, k) }); err != nil {
					return NoHint, err
				}
				// '*' fuses into its consumer: no new entry, source passes through.
				record(i, result, sa)
			} else {
				var result pbterm.NormalizedConstraint
				if err := runAlgebra(func() { result = pbterm.CeilDiv(ba, k) }); err != nil {
					return NoHint, err
				}

				var id ID
				if i == n-1 {
					id = m.store.appendOriginal(KindArithmetic, result, sa, NoHint)
					finalIsOriginal = true
				} else {
					id = m.store.append(KindArithmetic, result, sa, NoHint)
				}

				record(i, result, id)
			}

		case trie.OpSat:
			if len(stack) < 1 {
				return NoHint, malformedInputf("postfix 's' with no operand")
			}

			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			ba, sa, err := resolve(a)
			if err != nil {
				return NoHint, err
			}

			var sat pbterm.NormalizedConstraint
			if err := runAlgebra(func() { sat = pbterm.Saturate(ba) }); err != nil {
				return NoHint, err
			}
			// 's' fuses into its consumer too: no new entry.
			record(i, sat, sa)

		default:
			return NoHint, malformedInputf("unknown postfix operator %q", byte(tok.Op))
		}
	}

	if len(stack) != 1 {
		return NoHint, malformedInputf("postfix expression left %d values on the stack", len(stack))
	}

	top := stack[0]

	topBody, topSource, err := resolve(top)
	if err != nil {
		return NoHint, err
	}

	// If the last token already registered its own result under a fresh
	// original id (a terminal '+' or 'd'), that id IS the expression's
	// result — no second wrapper entry. Otherwise (a bare clause reference,
	// or a terminal '*'/'s', which always fuses into whatever produced its
	// operand and never allocates its own entry) one is created here,
	// pointing at whatever already held the body.
	id := topSource
	if !finalIsOriginal {
		id = m.store.appendOriginal(KindArithmetic, topBody, topSource, NoHint)
	}

	m.trie.Insert(original, int64(id))

	return id, nil
}
