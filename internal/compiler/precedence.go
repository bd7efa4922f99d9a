package compiler

import "glox/internal/scanner"

// Precedence orders expression operators from loosest to tightest
// binding. parsePrecedence consumes tokens until it meets an infix
// operator bound looser than the level it was called with.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment       // =
	PrecOr               // or
	PrecAnd              // and
	PrecEquality         // == !=
	PrecComparison       // < > <= >=
	PrecTerm             // + -
	PrecFactor           // * /
	PrecUnary            // ! -
	PrecCall             // . () super.x
	PrecPrimary
)

// parseFn is a prefix or infix parsing rule, bound to the Compiler method
// implementing it. canAssign tells the rule whether it appeared in a
// position where a trailing `=` could turn it into an assignment target.
type parseFn func(c *Compiler, canAssign bool)

// parseRule is one row of the Pratt table: the prefix rule for when the
// token starts an expression, the infix rule for when it continues one,
// and the precedence that infix rule binds at.
type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the Pratt table mapping every token kind to its parsing rule.
// A table of function values, rather than a switch inside
// parsePrecedence, keeps the dispatcher itself a three-line loop.
var rules map[scanner.TokenType]parseRule

func init() {
	rules = map[scanner.TokenType]parseRule{
		scanner.LeftParen:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: PrecCall},
		scanner.RightParen:   {},
		scanner.LeftBrace:    {},
		scanner.RightBrace:   {},
		scanner.Comma:        {},
		scanner.Dot:          {infix: (*Compiler).dot, precedence: PrecCall},
		scanner.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		scanner.Plus:         {infix: (*Compiler).binary, precedence: PrecTerm},
		scanner.Semicolon:    {},
		scanner.Slash:        {infix: (*Compiler).binary, precedence: PrecFactor},
		scanner.Star:         {infix: (*Compiler).binary, precedence: PrecFactor},
		scanner.Bang:         {prefix: (*Compiler).unary},
		scanner.BangEqual:    {infix: (*Compiler).binary, precedence: PrecEquality},
		scanner.Equal:        {},
		scanner.EqualEqual:   {infix: (*Compiler).binary, precedence: PrecEquality},
		scanner.Greater:      {infix: (*Compiler).binary, precedence: PrecComparison},
		scanner.GreaterEqual: {infix: (*Compiler).binary, precedence: PrecComparison},
		scanner.Less:         {infix: (*Compiler).binary, precedence: PrecComparison},
		scanner.LessEqual:    {infix: (*Compiler).binary, precedence: PrecComparison},
		scanner.Identifier:   {prefix: (*Compiler).variable},
		scanner.String:       {prefix: (*Compiler).string},
		scanner.Number:       {prefix: (*Compiler).number},
		scanner.And:          {infix: (*Compiler).and_, precedence: PrecAnd},
		scanner.Class:        {},
		scanner.Else:         {},
		scanner.False:        {prefix: (*Compiler).literal},
		scanner.For:          {},
		scanner.Fun:          {},
		scanner.If:           {},
		scanner.Nil:          {prefix: (*Compiler).literal},
		scanner.Or:           {infix: (*Compiler).or_, precedence: PrecOr},
		scanner.Print:        {},
		scanner.Return:       {},
		scanner.Super:        {prefix: (*Compiler).super_},
		scanner.This:         {prefix: (*Compiler).this_},
		scanner.True:         {prefix: (*Compiler).literal},
		scanner.Var:          {},
		scanner.While:        {},
		scanner.Error:        {},
		scanner.EOF:          {},
	}
}

func getRule(t scanner.TokenType) parseRule {
	return rules[t]
}
