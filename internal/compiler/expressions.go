package compiler

import (
	"strconv"

	"glox/internal/chunk"
	"glox/internal/scanner"
)

// expression compiles one full expression at assignment precedence, the
// loosest level, so an assignment is accepted wherever an expression is
// (call arguments included).
func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence is the Pratt engine: it consumes one token, dispatches
// its prefix rule, then keeps consuming and dispatching infix rules as
// long as the current token binds at least as tightly as prec.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefixRule := getRule(c.previous.Type).prefix
	if prefixRule == nil {
		c.errorMsg("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	prefixRule(c, canAssign)

	for prec <= getRule(c.current.Type).precedence {
		c.advance()
		infixRule := getRule(c.previous.Type).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.matchTok(scanner.Equal) {
		c.errorMsg("Invalid assignment target.")
	}
}

func (c *Compiler) number(canAssign bool) {
	f, _ := strconv.ParseFloat(c.previous.Lexeme, 64)
	c.emitConstant(f)
}

func (c *Compiler) string(canAssign bool) {
	lexeme := c.previous.Lexeme
	c.emitConstant(lexeme[1 : len(lexeme)-1])
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case scanner.False:
		c.emitOp(chunk.OpFalse)
	case scanner.Nil:
		c.emitOp(chunk.OpNil)
	case scanner.True:
		c.emitOp(chunk.OpTrue)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(scanner.RightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case scanner.Minus:
		c.emitOp(chunk.OpNegate)
	case scanner.Bang:
		c.emitOp(chunk.OpNot)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case scanner.BangEqual:
		c.emitOp(chunk.OpEqual)
		c.emitOp(chunk.OpNot)
	case scanner.EqualEqual:
		c.emitOp(chunk.OpEqual)
	case scanner.Greater:
		c.emitOp(chunk.OpGreater)
	case scanner.GreaterEqual:
		c.emitOp(chunk.OpLess)
		c.emitOp(chunk.OpNot)
	case scanner.Less:
		c.emitOp(chunk.OpLess)
	case scanner.LessEqual:
		c.emitOp(chunk.OpGreater)
		c.emitOp(chunk.OpNot)
	case scanner.Plus:
		c.emitOp(chunk.OpAdd)
	case scanner.Minus:
		c.emitOp(chunk.OpSubtract)
	case scanner.Star:
		c.emitOp(chunk.OpMultiply)
	case scanner.Slash:
		c.emitOp(chunk.OpDivide)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(chunk.OpJumpIfFalse)
	endJump := c.emitJump(chunk.OpJump)

	c.patchJump(elseJump)
	c.emitOp(chunk.OpPop)

	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList()
	c.emitBytes(chunk.OpCall, argc)
}

func (c *Compiler) argumentList() byte {
	argc := 0
	if !c.check(scanner.RightParen) {
		for {
			c.expression()
			if argc == 255 {
				c.errorMsg("Can't have more than 255 arguments.")
			}
			argc++
			if !c.matchTok(scanner.Comma) {
				break
			}
		}
	}
	c.consume(scanner.RightParen, "Expect ')' after arguments.")
	return byte(argc)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(scanner.Identifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.matchTok(scanner.Equal):
		c.expression()
		c.emitBytes(chunk.OpSetProperty, name)
	case c.matchTok(scanner.LeftParen):
		argc := c.argumentList()
		c.emitBytes(chunk.OpInvoke, name)
		c.emitByte(argc)
	default:
		c.emitBytes(chunk.OpGetProperty, name)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

// namedVariable resolves name in order: innermost local, then an upvalue
// into an enclosing function, then a global by name. If canAssign and a
// `=` follows, it compiles an assignment instead of a read.
func (c *Compiler) namedVariable(name scanner.Token, canAssign bool) {
	var getOp, setOp chunk.Opcode
	arg := c.resolveLocal(c.top(), name.Lexeme)
	if arg != -1 {
		getOp, setOp = chunk.OpGetLocal, chunk.OpSetLocal
	} else if arg = c.resolveUpvalue(c.top(), name.Lexeme); arg != -1 {
		getOp, setOp = chunk.OpGetUpvalue, chunk.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = chunk.OpGetGlobal, chunk.OpSetGlobal
	}

	if canAssign && c.matchTok(scanner.Equal) {
		c.expression()
		c.emitBytes(setOp, byte(arg))
	} else {
		c.emitBytes(getOp, byte(arg))
	}
}

func (c *Compiler) this_(canAssign bool) {
	if c.class == nil {
		c.errorMsg("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *Compiler) super_(canAssign bool) {
	if c.class == nil {
		c.errorMsg("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.errorMsg("Can't use 'super' in a class with no superclass.")
	}

	c.consume(scanner.Dot, "Expect '.' after 'super'.")
	c.consume(scanner.Identifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	thisTok := scanner.Token{Type: scanner.Identifier, Lexeme: "this"}
	superTok := scanner.Token{Type: scanner.Identifier, Lexeme: "super"}

	c.namedVariable(thisTok, false)
	if c.matchTok(scanner.LeftParen) {
		argc := c.argumentList()
		c.namedVariable(superTok, false)
		c.emitBytes(chunk.OpSuperInvoke, name)
		c.emitByte(argc)
	} else {
		c.namedVariable(superTok, false)
		c.emitBytes(chunk.OpGetSuper, name)
	}
}
