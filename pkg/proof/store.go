package proof

import "github.com/rebryant/ipbip/pkg/pbterm"

// clauseStore is the append-only record of every StoredConstraint produced
// during a run, plus the side table of RUP propagation traces and the
// external "original id" numbering the upstream proof's hints are expressed
// in.
//
// Grounded on Manager.h's ClauseManager: `entries` is `clauses.clauses`,
// `originalToInternal` is `original_id_to_new_id`, and `traces` is
// `current_new_format_items`.
type clauseStore struct {
	entries            []StoredConstraint
	originalToInternal []ID
	traces             []PropagationTrace
}

func newClauseStore() *clauseStore {
	return &clauseStore{}
}

// append adds a raw entry and returns its id, without touching the
// original-id map. Used for postfix sub-expression steps and objective
// templates, neither of which the external proof can reference by number.
func (s *clauseStore) append(kind ConstraintKind, body pbterm.NormalizedConstraint, hintA, hintB ID) ID {
	id := ID(len(s.entries))
	s.entries = append(s.entries, StoredConstraint{Kind: kind, Body: body, HintA: hintA, HintB: hintB})

	return id
}

// appendOriginal is append plus registering the new entry under the next
// original id, for entries the external proof can reference by number
// (inputs, top-level postfix results, RUP targets, objective applications).
func (s *clauseStore) appendOriginal(kind ConstraintKind, body pbterm.NormalizedConstraint, hintA, hintB ID) ID {
	id := s.append(kind, body, hintA, hintB)
	s.originalToInternal = append(s.originalToInternal, id)

	return id
}

// ignoreOriginalClauses advances the original-id map by k sentinel ("no
// clause") entries, so the next k original-id references resolve to
// NoHint instead of a real clause.
//
// This corrects Manager.h's `while (k >= 0) { ...; k--; }`, an off-by-one
// that inserts k+1 sentinels; spec.md §4.5 calls for exactly k.
func (s *clauseStore) ignoreOriginalClauses(k int) {
	for i := 0; i < k; i++ {
		s.originalToInternal = append(s.originalToInternal, NoHint)
	}
}

// resolveOriginal maps a one-based original id to its internal ClauseStore
// id. Returns an error if the reference is out of range.
func (s *clauseStore) resolveOriginal(originalID int, oneIndexed bool) (ID, error) {
	idx := originalID
	if oneIndexed {
		idx--
	}

	if idx < 0 || idx >= len(s.originalToInternal) {
		return NoHint, malformedInputf("original clause id %d out of range (have %d)", originalID, len(s.originalToInternal))
	}

	return s.originalToInternal[idx], nil
}

// setRUPHints finalizes a placeholder RUP entry once its trace is known.
func (s *clauseStore) setRUPHints(id ID, traceIdx int) {
	s.entries[id].HintA = RUPMark
	s.entries[id].HintB = ID(traceIdx)
}

// addTrace appends a trace to the side table and returns its index.
func (s *clauseStore) addTrace(t PropagationTrace) int {
	idx := len(s.traces)
	s.traces = append(s.traces, t)

	return idx
}

func (s *clauseStore) get(id ID) StoredConstraint {
	return s.entries[id]
}

func (s *clauseStore) len() int {
	return len(s.entries)
}
