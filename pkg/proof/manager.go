package proof

import (
	"github.com/rebryant/ipbip/pkg/pbterm"
	"github.com/rebryant/ipbip/pkg/pbvar"
	"github.com/rebryant/ipbip/pkg/propagate"
	"github.com/rebryant/ipbip/pkg/trie"
)

// Manager orchestrates the VariableManager, the constraint algebra, the
// postfix trie, the UnitPropagator, and the ClauseStore into the single
// stateful façade the input API (§6.1) is expressed against.
//
// Manager is not safe for concurrent use: no operation may be invoked while
// another is in progress on the same Manager (spec.md §5). This mirrors
// go-corset's builder-style types (e.g. pkg/schema/builder.go), which
// likewise document non-reentrancy on the type rather than enforcing it with
// a mutex — a proof run is driven by a single sequential event stream, so
// there is nothing to synchronize against.
type Manager struct {
	Vars *pbvar.Manager

	store *clauseStore
	trie  *trie.Trie

	// unsatDerived is set once a zero-terms >= 1 refutation has been
	// derived; further AddDerive calls become no-ops. A Manager field
	// rather than a package global (see SPEC_FULL.md REDESIGN FLAGS), so
	// multiple Managers in one process don't share this latch.
	unsatDerived bool
}

// NewManager returns an empty Manager sharing the given VariableManager.
func NewManager(vars *pbvar.Manager) *Manager {
	return &Manager{
		Vars:  vars,
		store: newClauseStore(),
		trie:  trie.New(),
	}
}

// AddInput appends an input clause with no hints and returns its id.
func (m *Manager) AddInput(c pbterm.InputConstraint) (ID, error) {
	var body pbterm.NormalizedConstraint
	if err := runAlgebra(func() { body = pbterm.Normalize(c) }); err != nil {
		return NoHint, err
	}

	return m.store.appendOriginal(KindInput, body, NoHint, NoHint), nil
}

// AddPostfix evaluates a postfix derivation (§4.3) and appends the resulting
// arithmetic clause.
func (m *Manager) AddPostfix(tokens []trie.Token, oneIndexed bool) (ID, error) {
	return m.evalPostfix(tokens, oneIndexed)
}

// RegisterObjectiveTemplate stores an objective-bound template body
// internally, not exposed via the original-id map, per Manager.h's
// register_opt.
func (m *Manager) RegisterObjectiveTemplate(c pbterm.InputConstraint) (ID, error) {
	var body pbterm.NormalizedConstraint
	if err := runAlgebra(func() { body = pbterm.Normalize(c) }); err != nil {
		return NoHint, err
	}

	return m.store.append(KindObjectiveTemplate, body, NoHint, NoHint), nil
}

// ApplyObjectiveBound appends a fresh arithmetic clause whose sole hint is
// the given objective template's internal id, with that template's body,
// per Manager.h's add_opt.
func (m *Manager) ApplyObjectiveBound(template ID) ID {
	body := m.store.get(template).Body
	return m.store.appendOriginal(KindArithmetic, body, template, NoHint)
}

// IgnoreOriginalClauses advances the original-id mapping by k sentinels.
func (m *Manager) IgnoreOriginalClauses(k int) {
	m.store.ignoreOriginalClauses(k)
}

// AddDerive appends a RUP clause for target, computing its propagation
// hints via the active-constraint-set rule (§4.5) and the UnitPropagator.
// Once a zero-terms >= 1 refutation has been derived, subsequent calls are
// no-ops (the unsat-derived latch, §7/§9).
func (m *Manager) AddDerive(target pbterm.InputConstraint) (ID, error) {
	if m.unsatDerived {
		return NoHint, nil
	}

	var body pbterm.NormalizedConstraint
	if err := runAlgebra(func() { body = pbterm.Normalize(target) }); err != nil {
		return NoHint, err
	}

	if body.IsRefutation() {
		m.unsatDerived = true
	}

	var negated pbterm.NormalizedConstraint
	if err := runAlgebra(func() { negated = pbterm.Negate(body) }); err != nil {
		return NoHint, err
	}

	activeIDs, activeBodies := m.collectActiveSet()

	placed := m.store.appendOriginal(KindRUP, body, NoHint, NoHint)

	activeIDs = append(activeIDs, placed)
	activeBodies = append(activeBodies, negated)

	result := propagate.Derive(activeBodies, m.Vars.Len())
	if result.Conflict < 0 {
		return NoHint, rupFailuref("unit propagation terminated without a conflict for target %s", body.String(m.Vars))
	}

	trace := PropagationTrace{Conflict: activeIDs[result.Conflict]}
	for _, step := range result.Steps {
		trace.Steps = append(trace.Steps, PropagationStep{
			Source: activeIDs[step.Source],
			Var:    step.Var,
			Neg:    step.Neg,
		})
	}

	traceIdx := m.store.addTrace(trace)
	m.store.setRUPHints(placed, traceIdx)

	return placed, nil
}

// collectActiveSet gathers the ids and bodies of every stored constraint
// that participates in RUP assembly: every input and rup entry, plus only
// the most recent arithmetic entry in any run of consecutive arithmetic
// entries (Open Question 1, preserved as observed — see
// Manager.h::add_derive's input_clauses/relabellings loop).
func (m *Manager) collectActiveSet() ([]ID, []pbterm.NormalizedConstraint) {
	var (
		ids    []ID
		bodies []pbterm.NormalizedConstraint
	)

	for i := 0; i < m.store.len(); i++ {
		sc := m.store.get(ID(i))

		switch sc.Kind {
		case KindInput, KindRUP, KindArithmetic:
		default:
			continue
		}

		if sc.Kind == KindArithmetic && i > 0 && m.store.get(ID(i-1)).Kind == KindArithmetic {
			ids = ids[:len(ids)-1]
			bodies = bodies[:len(bodies)-1]
		}

		ids = append(ids, ID(i))
		bodies = append(bodies, sc.Body)
	}

	return ids, bodies
}
