package driver

import (
	"fmt"
	"io"
	"os"
	"strings"

	"jss/internal/config"
	"jss/pkg/ast"
	"jss/pkg/builtins"
	"jss/pkg/bytecode"
	"jss/pkg/color"
	"jss/pkg/compiler"
	"jss/pkg/frontend/starlark"
	"jss/pkg/interpreter"
	"jss/pkg/lexer"
	"jss/pkg/parser"

	"github.com/charmbracelet/log"
)

type Driver struct {
	Verbose     bool      // Enable verbose output
	NoColor     bool      // Disable colored output
	Disassemble bool      // Print the bytecode before running it
	Frontend    string    // Surface syntax of the source file ("jss" or "starlark")
	MaxSteps    int       // Instruction budget (0 = unlimited)
	SourceFile  string    // Path to the source file
	Output      io.Writer // Program and diagnostic output (stdout if nil)
}

// Run reads the source file, compiles it to bytecode and interprets it.
func (opts *Driver) Run() error {
	log.Info("Processing file", "file", opts.SourceFile)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if opts.NoColor {
		color.EnableColor(false)
	}

	input, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	program, err := opts.parse(out, input)
	if err != nil {
		return err
	}

	unit, err := compiler.Compile(program)
	if err != nil {
		fmt.Fprintln(out, color.Header("Compile Errors", color.BrightRedText))
		fmt.Fprintln(out, err)
		return fmt.Errorf("compilation failed: %w", err)
	}

	if opts.Verbose || opts.Disassemble {
		fmt.Fprintln(out, color.Header("Bytecode", color.GreenText))
		fmt.Fprintln(out, highlight(unit))
	}

	intr := interpreter.New(
		interpreter.WithBuiltins(builtins.New(out)),
		interpreter.WithMaxSteps(opts.MaxSteps),
	)

	if opts.Verbose {
		fmt.Fprintln(out, color.Header("Program Output", color.GreenText))
	}

	frame, err := intr.Interpret(unit)
	if err != nil {
		return fmt.Errorf("interpretation failed: %w", err)
	}

	log.Debug("Program finished", "result", frame.Result(), "steps", intr.Steps())
	return nil
}

// parse runs the selected front end, printing syntax errors the way the
// terminal expects them
func (opts *Driver) parse(out io.Writer, input []byte) (*ast.Block, error) {
	switch opts.Frontend {
	case "", config.FrontendJSS:
		p := parser.NewParser(lexer.NewLexer(string(input)))
		program := p.Parse()

		syntaxErrors := p.Errors()
		if len(syntaxErrors) > 0 {
			fmt.Fprintln(out, color.Header("Syntax Errors", color.BrightRedText))
			fmt.Fprintln(out, syntaxErrors[0])
			return nil, fmt.Errorf("parsing failed with %d errors: %w", len(syntaxErrors), parser.ErrSyntax)
		}
		return program, nil

	case config.FrontendStarlark:
		program, err := starlark.Parse(opts.SourceFile, input)
		if err != nil {
			fmt.Fprintln(out, color.Header("Syntax Errors", color.BrightRedText))
			fmt.Fprintln(out, color.RedText(err.Error()))
			return nil, fmt.Errorf("parsing failed: %w", err)
		}
		return program, nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownFrontend, opts.Frontend)
	}
}

// highlight colors the header lines of a disassembly listing
func highlight(unit *bytecode.Unit) string {
	text := unit.Disassemble()
	if !color.IsColorEnabled() {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " "), "== ") {
			lines[i] = color.CyanText(line)
		}
	}
	return strings.Join(lines, "\n")
}
