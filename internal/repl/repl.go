// Package repl implements the interactive puffin shell.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rafibayer/puffin/internal/evaluator"
	"github.com/rafibayer/puffin/internal/lexer"
	"github.com/rafibayer/puffin/internal/object"
	"github.com/rafibayer/puffin/internal/parser"
)

const (
	PROMPT       = ">>> "
	PROMPT_BLOCK = "... "
)

// Start runs the read-eval-print loop until in is exhausted. Bindings
// persist across lines in a single environment. A line with unbalanced
// braces or parens keeps reading continuation lines before parsing.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	env := evaluator.NewGlobalEnvironment()

	for {
		fmt.Fprint(out, PROMPT)
		input, ok := readInput(scanner, out)
		if !ok {
			return
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		p := parser.New(lexer.New(input))
		program := p.ParseProgram()
		if len(p.Errors()) != 0 {
			printParserErrors(out, p.Errors())
			continue
		}

		for _, stmt := range program.Statements {
			val, err := evaluator.EvalInteractive(stmt, env)
			if err != nil {
				fmt.Fprintf(out, "runtime error: %s\n", err)
				break
			}
			// only echo values worth seeing: assignments and quiet
			// statements produce null
			if val != object.NULL {
				fmt.Fprintln(out, val.Inspect())
			}
		}
	}
}

// readInput gathers one logical input, following up with continuation
// prompts while braces, brackets or parens remain open.
func readInput(scanner *bufio.Scanner, out io.Writer) (string, bool) {
	var input strings.Builder

	for {
		if !scanner.Scan() {
			return "", false
		}
		input.WriteString(scanner.Text())
		input.WriteString("\n")
		if balanced(input.String()) {
			return input.String(), true
		}
		fmt.Fprint(out, PROMPT_BLOCK)
	}
}

// balanced reports whether every brace, bracket and paren opened so far
// has closed. String contents are skipped so "}" in a literal does not
// count.
func balanced(input string) bool {
	depth := 0
	inString := false
	escaped := false

	for _, ch := range input {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		}
	}
	return depth <= 0 && !inString
}

func printParserErrors(out io.Writer, errors []string) {
	fmt.Fprintln(out, "parse errors:")
	for _, msg := range errors {
		fmt.Fprintf(out, "\t%s\n", msg)
	}
}
