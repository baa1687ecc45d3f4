// Package proof implements the ClauseStore, RUP assembly, and Manager
// façade that coordinate pkg/pbvar, pkg/pbterm, pkg/trie, and pkg/propagate
// into the annotated intermediate proof this tool produces.
//
// Grounded on original_source/tools/Manager.h's ClauseManager and Manager
// structs.
package proof

import "github.com/rebryant/ipbip/pkg/pbterm"

// ConstraintKind tags a StoredConstraint with how it was derived.
type ConstraintKind uint8

const (
	KindInput ConstraintKind = iota
	KindArithmetic
	KindRUP
	KindObjectiveTemplate
)

func (k ConstraintKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindArithmetic:
		return "arithmetic"
	case KindRUP:
		return "rup"
	case KindObjectiveTemplate:
		return "objective_template"
	default:
		return "unknown"
	}
}

// ID is a ClauseStore entry index. Entries are append-only and stable once
// assigned; NoHint marks the absence of a hint.
type ID int32

// NoHint is the "no hint recorded" sentinel, printed as an empty hint field.
const NoHint ID = -1

// RUPMark is the sentinel HintA carries for a KindRUP entry, distinguishing
// it from an arithmetic entry's real ancestor hint.
const RUPMark ID = -2

// StoredConstraint is one append-only ClauseStore record.
type StoredConstraint struct {
	Kind ConstraintKind
	Body pbterm.NormalizedConstraint

	// For KindArithmetic: HintA/HintB are the one or two ancestor ids (HintB
	// may be NoHint for a unary operation). For KindRUP: HintA is always
	// RUPMark and HintB indexes the traces side table. For KindInput and
	// KindObjectiveTemplate both are NoHint.
	HintA ID
	HintB ID
}

// PropagationStep is one forced literal in a RUP trace: the clause whose
// leading term forced it, and the literal.
type PropagationStep struct {
	Source ID
	Var    uint32
	Neg    bool
}

// PropagationTrace is the full justification for one RUP step: the ordered
// forced literals, and the id of the constraint driven to negative slack.
// Conflict is NoHint if the target could not be justified (spec.md §4.4's
// malformed-RUP fault).
type PropagationTrace struct {
	Steps    []PropagationStep
	Conflict ID
}
