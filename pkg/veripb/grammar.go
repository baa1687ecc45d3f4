// Package veripb parses the VeriPB proof text (the `-p`/`--proof` input,
// spec.md §6.3) into calls against a proof.Manager, using
// github.com/alecthomas/participle/v2 in place of
// original_source/tools/ipbip_hints.cpp's parseProof/str_to_rpn_input (a
// hand-rolled split(line, " ") plus stoi dispatched on the first token).
//
// Each line is dispatched on its leading command token first (mirroring the
// original's line-by-line getline loop), then the remainder of the line is
// handed to one of three small, purpose-built participle grammars below —
// one per command body shape — rather than a single grammar covering every
// command: a target constraint's literals and a postfix expression's
// operator characters would otherwise collide in one shared lexer alphabet
// (e.g. a variable named "draft" and the saturation operator "s" are not
// distinguishable by a single token class).
package veripb

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// constraintLexer tokenizes a "u"-line body: "c1 v1 c2 v2 ... >= R", the
// same per-field shape as pkg/opb's constraint grammar (spec.md §6.4), minus
// the trailing ";" the OPB format requires but str_to_input_clause does not.
var constraintLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Relop", `>=|<=|==|=|<|>`, nil},
		{"Int", `[+-]?[0-9]+`, nil},
		{"Lit", `~?[A-Za-z][A-Za-z0-9_]*`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// SignedTerm is one "coefficient literal" pair.
type SignedTerm struct {
	Coeff int64  `@Int`
	Lit   string `@Lit`
}

// ConstraintBody is a "u"-line's target constraint.
type ConstraintBody struct {
	Terms []*SignedTerm `@@*`
	Relop string        `@Relop`
	RHS   int64         `@Int`
}

var constraintParser = buildParser[ConstraintBody](constraintLexer)

// objectiveLexer tokenizes an "o"/"soli"-line body: a bare list of
// (possibly negated) assignment literals, e.g. "~x1 x2 x3".
var objectiveLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Lit", `~?[A-Za-z][A-Za-z0-9_]*`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// ObjectiveBody is an "o"/"soli"-line's assignment literal list.
type ObjectiveBody struct {
	Lits []string `@Lit*`
}

var objectiveParser = buildParser[ObjectiveBody](objectiveLexer)

// postfixLexer tokenizes a "p"-line body: a reverse-Polish sequence of
// 1-based clause references / constants and the four cutting-planes
// operator characters (pkg/trie's Op alphabet).
var postfixLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Int", `[0-9]+`, nil},
		{"Op", `[+*ds]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// PostfixTok is one "p"-line token: exactly one of Num or Op is set.
type PostfixTok struct {
	Num *int64  `  @Int`
	Op  *string `| @Op`
}

// PostfixBody is a "p"-line's full token sequence.
type PostfixBody struct {
	Tokens []*PostfixTok `@@*`
}

var postfixParser = buildParser[PostfixBody](postfixLexer)

func buildParser[T any](lex *lexer.StatefulDefinition) *participle.Parser[T] {
	p, err := participle.Build[T](
		participle.Lexer(lex),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		panic(err)
	}

	return p
}
