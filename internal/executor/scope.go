package executor

import (
	"sort"

	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Scope is the variable environment shared by all code blocks of one
// document run. It is the only channel of state between blocks.
type Scope struct {
	globals  starlark.StringDict
	builtins starlark.StringDict
}

// NewScope creates a Scope seeded with the standard builtins.
func NewScope() *Scope {
	builtins := Builtins()
	globals := make(starlark.StringDict, len(builtins))
	for name, value := range builtins {
		globals[name] = value
	}
	return &Scope{
		globals:  globals,
		builtins: builtins,
	}
}

// Builtins returns the values predeclared in every new Scope:
// the json, math and time modules, struct(), and the assertion helper.
func Builtins() starlark.StringDict {
	return starlark.StringDict{
		"json":        json.Module,
		"math":        math.Module,
		"time":        time.Module,
		"struct":      starlark.NewBuiltin("struct", starlarkstruct.Make),
		expectBuiltin: starlark.NewBuiltin(expectBuiltin, expect),
	}
}

// Keys returns the sorted names bound by the document's code.
// Builtins are left out unless a block rebound them.
func (s *Scope) Keys() []string {
	keys := make([]string, 0, len(s.globals))
	for name, value := range s.globals {
		if builtin, ok := s.builtins[name]; ok && builtin == value {
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// expect implements __expect__(actual, expected, message).
func expect(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var actual, expected starlark.Value
	var message string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 3, &actual, &expected, &message); err != nil {
		return nil, err
	}

	equal, err := starlark.Equal(actual, expected)
	if err != nil {
		return nil, err
	}
	if !equal {
		return nil, &AssertionError{
			Message:  message,
			Actual:   actual,
			Expected: expected,
		}
	}
	return starlark.None, nil
}
