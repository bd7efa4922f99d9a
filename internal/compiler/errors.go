package compiler

import "strings"

// CompileError wraps every diagnostic accumulated during a single Compile
// call. Compilation is not aborted at the first error: like
// smog/pkg/parser.Parser, the compiler keeps going in panic mode so a
// single pass can surface more than one mistake, then returns them all
// together.
type CompileError struct {
	Diagnostics []string
}

func (e *CompileError) Error() string {
	return strings.Join(e.Diagnostics, "\n")
}
