// Package compiler implements glox's single-pass Pratt compiler: it scans
// source text on demand (package scanner) and emits bytecode (package
// chunk) directly, with no intermediate syntax tree.
//
// Compiler State:
//
// Every function body being compiled — including the implicit top-level
// "script" function — gets its own compilerState: the Function it is
// building, its locals list, its scope depth, and the upvalues it has
// captured from enclosing functions. Nested function declarations push a
// new state onto the Compiler's states stack and pop it back off once the
// body is fully parsed, emitting an OpClosure into the now-current
// (enclosing) state to wire the finished function in.
//
// A second, independent stack (classState, chained through `enclosing`)
// tracks whether the parser is inside a class body and whether that class
// has a superclass, which governs whether `this` and `super` are legal.
//
// Error Recovery:
//
// Like smog's parser, errors do not stop compilation: each one is
// recorded and parsing continues in "panic mode" until the next
// statement boundary, so a single pass can report more than one mistake.
package compiler

import (
	"fmt"

	"glox/internal/chunk"
	"glox/internal/object"
	"glox/internal/scanner"
)

// FunctionKind distinguishes the four contexts a compilerState can be
// compiling, each with slightly different rules for slot 0 and `return`.
type FunctionKind int

const (
	KindScript FunctionKind = iota
	KindFunction
	KindMethod
	KindInitializer
)

// localUninitialized marks a local whose declaring expression has not
// yet finished compiling — referencing it is a compile error.
const localUninitialized = -1

// local is one entry in a compilerState's locals list.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef is one entry in a compilerState's upvalues list: where the
// captured variable comes from in the enclosing state.
type upvalueRef struct {
	isLocal bool
	index   byte
}

// compilerState is the compiler's record for a single function body
// (including the top-level script).
type compilerState struct {
	enclosing  *compilerState
	function   *object.Function
	kind       FunctionKind
	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
}

// classState tracks the class currently being compiled, if any.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Compiler drives the single-pass translation of one source string into
// one top-level Function. Compile creates a fresh one per source unit; a
// Compiler is not reusable across sources.
type Compiler struct {
	scan *scanner.Scanner

	previous scanner.Token
	current  scanner.Token

	hadError    bool
	panicMode   bool
	diagnostics []string

	states []*compilerState
	class  *classState
}

// Compile compiles source into a top-level Function ready for the VM to
// wrap in a Closure and run. On any compile error it returns nil and a
// *CompileError carrying every diagnostic line accumulated during the
// pass.
func Compile(source string) (*object.Function, error) {
	c := &Compiler{scan: scanner.New(source)}
	c.pushState(KindScript, "")

	c.advance()
	for !c.matchTok(scanner.EOF) {
		c.declaration()
	}

	fn, _ := c.endCompilerState()
	if c.hadError {
		return nil, &CompileError{Diagnostics: c.diagnostics}
	}
	return fn, nil
}

func (c *Compiler) top() *compilerState {
	return c.states[len(c.states)-1]
}

func (c *Compiler) currentChunk() *chunk.Chunk {
	return c.top().function.Chunk
}

func (c *Compiler) pushState(kind FunctionKind, name string) {
	st := &compilerState{function: object.NewFunction(name), kind: kind}
	if len(c.states) > 0 {
		st.enclosing = c.top()
	}
	// Slot 0 is reserved: "this" for methods/initializers, an unnamed
	// placeholder otherwise (the callee's own Closure value is never
	// referenced by name from inside the body).
	slotName := ""
	if kind == KindMethod || kind == KindInitializer {
		slotName = "this"
	}
	st.locals = append(st.locals, local{name: slotName, depth: 0})
	c.states = append(c.states, st)
}

// endCompilerState finishes the current state, popping it off the stack,
// and returns its finished Function along with the upvalue descriptors
// the caller needs to emit an OpClosure for it.
func (c *Compiler) endCompilerState() (*object.Function, []upvalueRef) {
	c.emitReturn()
	st := c.top()
	c.states = c.states[:len(c.states)-1]
	return st.function, st.upvalues
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scan.NextToken()
		if c.current.Type != scanner.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) consume(t scanner.TokenType, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) check(t scanner.TokenType) bool {
	return c.current.Type == t
}

func (c *Compiler) matchTok(t scanner.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

// --- diagnostics --------------------------------------------------------

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) errorMsg(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(tok scanner.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	var line string
	switch tok.Type {
	case scanner.EOF:
		line = fmt.Sprintf("[line %d] Error at end: %s", tok.Line, message)
	case scanner.Error:
		line = fmt.Sprintf("[line %d] Error: %s", tok.Line, message)
	default:
		line = fmt.Sprintf("[line %d] Error at '%s': %s", tok.Line, tok.Lexeme, message)
	}
	c.diagnostics = append(c.diagnostics, line)
}

// synchronize discards tokens until it reaches a plausible statement
// boundary, so one syntax error does not cascade into a wall of them.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Type != scanner.EOF {
		if c.previous.Type == scanner.Semicolon {
			return
		}
		switch c.current.Type {
		case scanner.Class, scanner.Fun, scanner.Var, scanner.For,
			scanner.If, scanner.While, scanner.Print, scanner.Return:
			return
		}
		c.advance()
	}
}

// --- bytecode emission --------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op chunk.Opcode) {
	c.currentChunk().WriteOp(op, c.previous.Line)
}

func (c *Compiler) emitBytes(op chunk.Opcode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.OpLoop)
	offset := c.currentChunk().Count() - loopStart + 2
	if offset > 0xFFFF {
		c.errorMsg("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8 & 0xFF))
	c.emitByte(byte(offset & 0xFF))
}

func (c *Compiler) emitJump(op chunk.Opcode) int {
	c.emitOp(op)
	c.emitByte(0xFF)
	c.emitByte(0xFF)
	return c.currentChunk().Count() - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := c.currentChunk().Count() - offset - 2
	if jump > 0xFFFF {
		c.errorMsg("Too much code to jump over.")
	}
	c.currentChunk().Patch(offset, byte(jump>>8&0xFF))
	c.currentChunk().Patch(offset+1, byte(jump&0xFF))
}

func (c *Compiler) emitReturn() {
	if c.top().kind == KindInitializer {
		c.emitBytes(chunk.OpGetLocal, 0)
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.emitOp(chunk.OpReturn)
}

func (c *Compiler) makeConstant(v any) byte {
	idx, ok := c.currentChunk().AddConstant(v)
	if !ok {
		c.errorMsg("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v any) {
	c.emitBytes(chunk.OpConstant, c.makeConstant(v))
}

// --- scopes and variables ------------------------------------------------

func (c *Compiler) beginScope() {
	c.top().scopeDepth++
}

func (c *Compiler) endScope() {
	st := c.top()
	st.scopeDepth--
	for len(st.locals) > 0 && st.locals[len(st.locals)-1].depth > st.scopeDepth {
		if st.locals[len(st.locals)-1].isCaptured {
			c.emitOp(chunk.OpCloseUpvalue)
		} else {
			c.emitOp(chunk.OpPop)
		}
		st.locals = st.locals[:len(st.locals)-1]
	}
}

func (c *Compiler) declareVariable() {
	st := c.top()
	if st.scopeDepth == 0 {
		return
	}
	name := c.previous
	for i := len(st.locals) - 1; i >= 0; i-- {
		l := st.locals[i]
		if l.depth != localUninitialized && l.depth < st.scopeDepth {
			break
		}
		if l.name == name.Lexeme {
			c.errorMsg("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name.Lexeme)
}

func (c *Compiler) addLocal(name string) {
	st := c.top()
	if len(st.locals) >= 256 {
		c.errorMsg("Too many local variables in function.")
		return
	}
	st.locals = append(st.locals, local{name: name, depth: localUninitialized})
}

func (c *Compiler) markInitialized() {
	st := c.top()
	if st.scopeDepth == 0 {
		return
	}
	st.locals[len(st.locals)-1].depth = st.scopeDepth
}

func (c *Compiler) parseVariable(errMessage string) byte {
	c.consume(scanner.Identifier, errMessage)
	c.declareVariable()
	if c.top().scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) identifierConstant(tok scanner.Token) byte {
	return c.makeConstant(tok.Lexeme)
}

func (c *Compiler) defineVariable(global byte) {
	if c.top().scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(chunk.OpDefineGlobal, global)
}

// resolveLocal searches st's locals in reverse (innermost declaration
// wins) for name, reporting an error if it finds the variable still
// being initialized — that's a read of a local in its own initializer.
func (c *Compiler) resolveLocal(st *compilerState, name string) int {
	for i := len(st.locals) - 1; i >= 0; i-- {
		if st.locals[i].name == name {
			if st.locals[i].depth == localUninitialized {
				c.errorMsg("Cannot read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue implements the resolution precedence for names that
// aren't found as a local in the current state: it asks the
// enclosing state for a local (marking it captured if found) or,
// failing that, for an upvalue of its own, recursing outward through
// every enclosing function. Each state dedupes on {isLocal,index} so
// two reads of the same captured variable reuse one upvalue slot.
func (c *Compiler) resolveUpvalue(st *compilerState, name string) int {
	if st.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(st.enclosing, name); local != -1 {
		st.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(st, byte(local), true)
	}
	if up := c.resolveUpvalue(st.enclosing, name); up != -1 {
		return c.addUpvalue(st, byte(up), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(st *compilerState, index byte, isLocal bool) int {
	for i, u := range st.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if len(st.upvalues) >= 256 {
		c.errorMsg("Too many closure variables in function.")
		return 0
	}
	st.upvalues = append(st.upvalues, upvalueRef{isLocal: isLocal, index: index})
	st.function.UpvalueCount = len(st.upvalues)
	return len(st.upvalues) - 1
}

// --- declarations and statements ----------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.matchTok(scanner.Class):
		c.classDeclaration()
	case c.matchTok(scanner.Fun):
		c.funDeclaration()
	case c.matchTok(scanner.Var):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.matchTok(scanner.Equal) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.consume(scanner.Semicolon, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.functionBody(KindFunction)
	c.defineVariable(global)
}

// functionBody compiles a function's parameter list and block body as a
// nested compilerState, then emits an OpClosure (plus its upvalue
// operand pairs) into the now-current, enclosing chunk.
func (c *Compiler) functionBody(kind FunctionKind) {
	name := c.previous.Lexeme
	c.pushState(kind, name)
	c.beginScope()

	c.consume(scanner.LeftParen, "Expect '(' after function name.")
	if !c.check(scanner.RightParen) {
		for {
			c.top().function.Arity++
			if c.top().function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.matchTok(scanner.Comma) {
				break
			}
		}
	}
	c.consume(scanner.RightParen, "Expect ')' after parameters.")
	c.consume(scanner.LeftBrace, "Expect '{' before function body.")
	c.block()

	fn, upvalues := c.endCompilerState()
	constIdx := c.makeConstant(fn)
	c.emitBytes(chunk.OpClosure, constIdx)
	for _, u := range upvalues {
		if u.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(u.index)
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(scanner.Identifier, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(className)
	c.declareVariable()

	c.emitBytes(chunk.OpClass, nameConstant)
	c.defineVariable(nameConstant)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.matchTok(scanner.Less) {
		c.consume(scanner.Identifier, "Expect superclass name.")
		c.namedVariable(c.previous, false)

		if className.Lexeme == c.previous.Lexeme {
			c.errorMsg("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(className, false)
		c.emitOp(chunk.OpInherit)
		cs.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(scanner.LeftBrace, "Expect '{' before class body.")
	for !c.check(scanner.RightBrace) && !c.check(scanner.EOF) {
		c.method()
	}
	c.consume(scanner.RightBrace, "Expect '}' after class body.")
	c.emitOp(chunk.OpPop)

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = cs.enclosing
}

func (c *Compiler) method() {
	c.consume(scanner.Identifier, "Expect method name.")
	nameTok := c.previous
	constant := c.identifierConstant(nameTok)

	kind := KindMethod
	if nameTok.Lexeme == object.InitName {
		kind = KindInitializer
	}
	c.functionBody(kind)
	c.emitBytes(chunk.OpMethod, constant)
}

func (c *Compiler) statement() {
	switch {
	case c.matchTok(scanner.Print):
		c.printStatement()
	case c.matchTok(scanner.For):
		c.forStatement()
	case c.matchTok(scanner.If):
		c.ifStatement()
	case c.matchTok(scanner.Return):
		c.returnStatement()
	case c.matchTok(scanner.While):
		c.whileStatement()
	case c.matchTok(scanner.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(scanner.RightBrace) && !c.check(scanner.EOF) {
		c.declaration()
	}
	c.consume(scanner.RightBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(scanner.Semicolon, "Expect ';' after value.")
	c.emitOp(chunk.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(scanner.Semicolon, "Expect ';' after expression.")
	c.emitOp(chunk.OpPop)
}

func (c *Compiler) ifStatement() {
	c.consume(scanner.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(scanner.RightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.statement()

	elseJump := c.emitJump(chunk.OpJump)
	c.patchJump(thenJump)
	c.emitOp(chunk.OpPop)

	if c.matchTok(scanner.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.currentChunk().Count()
	c.consume(scanner.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(scanner.RightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(chunk.OpPop)
}

// forStatement desugars `for (init; cond; incr) body` into the
// equivalent of a scoped block containing init followed by a while loop
// whose body is `{ body; incr; }` — there is no dedicated for-loop
// opcode, only the same OpJump/OpJumpIfFalse/OpLoop a while loop uses.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(scanner.LeftParen, "Expect '(' after 'for'.")

	switch {
	case c.matchTok(scanner.Semicolon):
		// No initializer.
	case c.matchTok(scanner.Var):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.currentChunk().Count()
	exitJump := -1
	if !c.matchTok(scanner.Semicolon) {
		c.expression()
		c.consume(scanner.Semicolon, "Expect ';' after loop condition.")

		exitJump = c.emitJump(chunk.OpJumpIfFalse)
		c.emitOp(chunk.OpPop)
	}

	if !c.matchTok(scanner.RightParen) {
		bodyJump := c.emitJump(chunk.OpJump)

		incrementStart := c.currentChunk().Count()
		c.expression()
		c.emitOp(chunk.OpPop)
		c.consume(scanner.RightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(chunk.OpPop)
	}

	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.top().kind == KindScript {
		c.errorMsg("Can't return from top-level code.")
	}

	if c.matchTok(scanner.Semicolon) {
		c.emitReturn()
		return
	}

	if c.top().kind == KindInitializer {
		c.errorMsg("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(scanner.Semicolon, "Expect ';' after return value.")
	c.emitOp(chunk.OpReturn)
}
