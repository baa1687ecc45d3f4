// Package opb parses OPB pseudo-Boolean formula text (the `-f`/`--formula`
// input, spec.md §6.1/§6.4) into calls against a proof.Manager, using
// github.com/alecthomas/participle/v2 in place of
// original_source/tools/ipbip_hints.cpp's str_to_input_clause/loadFormula
// (a hand-rolled split(line, " ") plus stoi).
//
// Grounded on ipbip_hints.cpp::loadFormula/str_to_input_clause: a comment
// line starts with "*", an objective line starts with "min:", and every
// other non-empty line is "c1 v1 c2 v2 ... >= R ;" — a constraint using any
// relation other than ">=" is rejected (spec.md §7 UnsupportedConstruct).
package opb

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// lex tokenizes one OPB line at a time (loadFormula reads with getline, one
// record per line), following kanso's stateful-lexer idiom.
var lex = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `\*[^\n]*`, nil},
		{"Relop", `>=|<=|==|=|<|>`, nil},
		{"Semi", `;`, nil},
		{"Colon", `:`, nil},
		{"Int", `[+-]?[0-9]+`, nil},
		{"Lit", `~?[A-Za-z][A-Za-z0-9_]*`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// Line is one parsed OPB record: exactly one of Comment, Objective, or
// Constraint is set.
type Line struct {
	Comment    *Comment    `  @@`
	Objective  *Objective  `| @@`
	Constraint *Constraint `| @@`
}

// Comment is a "*"-prefixed line, ignored by the loader.
type Comment struct {
	Text string `@Comment`
}

// Objective is the "min: c1 v1 c2 v2 ... ;" declaration line.
type Objective struct {
	Terms []*SignedTerm `"min" ":" @@* ";"`
}

// Constraint is "c1 v1 c2 v2 ... <relop> R ;". Only ">=" is accepted past
// the grammar stage; any other relop is caught by the loader and reported as
// an unsupported construct (spec.md §7).
type Constraint struct {
	Terms []*SignedTerm `@@*`
	Relop string        `@Relop`
	RHS   int64         `@Int ";"`
}

// SignedTerm is one "coefficient literal" pair.
type SignedTerm struct {
	Coeff int64  `@Int`
	Lit   string `@Lit`
}

var parser = newParser()

func newParser() *participle.Parser[Line] {
	p, err := participle.Build[Line](
		participle.Lexer(lex),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		panic(err)
	}

	return p
}
