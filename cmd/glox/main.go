// Command glox is the command-line front end for the glox compiler and
// VM: a REPL, a file runner, and two debugging subcommands built around
// the .gbc object file format (compile, disassemble).
//
// Usage:
//
//	glox                         start the REPL
//	glox <path>                  compile and run a .lox file, or run a
//	                              precompiled .gbc file
//	glox compile <in> [out.gbc]  compile a .lox file to a .gbc object file
//	glox disassemble <path>      print a chunk's bytecode (.lox or .gbc)
//
// The first two forms are the entire interface Lox itself needs: no
// arguments starts the REPL, one argument runs a file, and anything else
// is bad usage. `compile` and `disassemble` are glox-authored developer
// tooling layered on top for the .gbc format — a deliberate departure
// from that plain two-form contract, not something the language itself
// calls for, so they are named explicitly rather than folded into the
// positional-argument dispatch.
//
// Exit codes: 0 on success, 64 on bad usage, 65 on a compile error (file
// mode), 70 on a runtime error (file mode), 74 when a file cannot be
// read, created, encoded or decoded. The REPL never exits
// non-zero for a per-line error; it prints the diagnostic and keeps
// reading.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"glox/internal/chunk"
	"glox/internal/compiler"
	"glox/internal/disasm"
	"glox/internal/object"
	"glox/internal/objfile"
	"glox/internal/vm"
)

func main() {
	if len(os.Args) >= 3 {
		switch os.Args[1] {
		case "compile", "disassemble", "disasm":
			runSubcommand(os.Args[1], os.Args[2:])
			return
		}
	}

	switch len(os.Args) {
	case 1:
		runREPL()
	case 2:
		runFile(os.Args[1])
	default:
		fmt.Println("Usage: glox [path]")
		os.Exit(64)
	}
}

func runSubcommand(cmd string, rest []string) {
	switch cmd {
	case "compile":
		outputFile := ""
		if len(rest) >= 2 {
			outputFile = rest[1]
		}
		compileFile(rest[0], outputFile)
	case "disassemble", "disasm":
		disassembleFile(rest[0])
	}
}

// runFile reads a single path argument and runs it: a .gbc path is
// decoded directly as precompiled bytecode, anything else is treated as
// .lox source and compiled first. This mirrors smog's own runFile,
// which dispatches the same way between its .sg and .smog extensions.
func runFile(path string) {
	var fn *object.Function

	if filepath.Ext(path) == ".gbc" {
		file, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%+v\n", errors.Wrapf(err, "reading %s", path))
			os.Exit(74)
		}
		defer file.Close()

		c, _, err := objfile.Decode(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%+v\n", errors.Wrap(err, "decoding bytecode"))
			os.Exit(74)
		}
		fn = &object.Function{Name: "", Chunk: c}
	} else {
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%+v\n", errors.Wrapf(err, "reading %s", path))
			os.Exit(74)
		}
		compiled, err := compiler.Compile(string(source))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(65)
		}
		fn = compiled
	}

	machine := vm.New(os.Stdout)
	if err := machine.Interpret(fn); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(70)
	}
}

// runREPL reads a line, interprets it, prints the `>` prompt, and
// repeats until EOF or an empty line. Compile and runtime errors are
// printed and never stop the loop; a persistent VM means top-level
// `var` declarations (which compile as globals) remain visible to later
// lines.
func runREPL() {
	machine := vm.New(os.Stdout)
	reader := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !reader.Scan() {
			return
		}
		line := reader.Text()
		if line == "" {
			return
		}

		fn, err := compiler.Compile(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if err := machine.Interpret(fn); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// compileFile compiles a .lox source file to a .gbc bytecode object
// file, mirroring smog's `compile` subcommand for its own .sg format.
func compileFile(inputPath, outputPath string) {
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = inputPath[:len(inputPath)-len(ext)] + ".gbc"
	}

	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", errors.Wrapf(err, "reading %s", inputPath))
		os.Exit(74)
	}

	fn, err := compiler.Compile(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(65)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", errors.Wrapf(err, "creating %s", outputPath))
		os.Exit(74)
	}
	defer out.Close()

	if err := objfile.Encode(fn.Chunk, out); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", errors.Wrap(err, "encoding bytecode"))
		os.Exit(74)
	}
	fmt.Printf("Compiled %s -> %s\n", inputPath, outputPath)
}

// disassembleFile prints a human-readable dump of a chunk's bytecode.
// A .gbc path is loaded directly; anything else is treated as .lox
// source and compiled first.
func disassembleFile(path string) {
	var c *chunk.Chunk

	if filepath.Ext(path) == ".gbc" {
		file, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%+v\n", errors.Wrapf(err, "reading %s", path))
			os.Exit(74)
		}
		defer file.Close()

		decoded, hdr, err := objfile.Decode(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%+v\n", errors.Wrap(err, "decoding bytecode"))
			os.Exit(74)
		}
		fmt.Printf("build %s\n", hdr.BuildID)
		c = decoded
	} else {
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%+v\n", errors.Wrapf(err, "reading %s", path))
			os.Exit(74)
		}
		fn, err := compiler.Compile(string(source))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(65)
		}
		c = fn.Chunk
	}

	disasm.Chunk(c, path, os.Stdout)
}
