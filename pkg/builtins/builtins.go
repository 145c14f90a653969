package builtins

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"jss/pkg/interpreter"
)

// Table maps names to native function values. It implements
// interpreter.Builtins.
type Table map[string]interpreter.Value

// Lookup returns the builtin bound to name
func (t Table) Lookup(name string) (interpreter.Value, bool) {
	v, ok := t[name]
	return v, ok
}

// Define binds name to fn
func (t Table) Define(name string, fn func(args []interpreter.Value) (interpreter.Value, error)) {
	t[name] = interpreter.NewNative(name, fn)
}

// New creates the default builtins table; print writes to w (stdout if nil)
func New(w io.Writer) Table {
	if w == nil {
		w = os.Stdout
	}

	t := Table{}
	t.Define("print", Print(w))
	t.Define("str", Str)
	t.Define("len", Len)
	return t
}

// Print returns a builtin writing its arguments, space separated, to w
func Print(w io.Writer) func(args []interpreter.Value) (interpreter.Value, error) {
	return func(args []interpreter.Value) (interpreter.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}

		if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
			return interpreter.Value{}, err
		}
		return interpreter.None, nil
	}
}

// Str returns the string form of its first argument
func Str(args []interpreter.Value) (interpreter.Value, error) {
	if len(args) == 0 {
		return interpreter.NewString(""), nil
	}
	return interpreter.NewString(args[0].String()), nil
}

// Len returns the number of characters in a string
func Len(args []interpreter.Value) (interpreter.Value, error) {
	if len(args) == 0 || args[0].Kind != interpreter.KindString {
		kind := interpreter.KindNone
		if len(args) > 0 {
			kind = args[0].Kind
		}
		return interpreter.Value{}, fmt.Errorf("%w: len of %s", interpreter.ErrUnsupportedOperation, kind)
	}
	return interpreter.NewFloat(float64(utf8.RuneCountInString(args[0].Str))), nil
}
