package object

import "log/slog"

// Environment is one frame of the lexical scope chain. The root frame is
// seeded once with the builtin table; a child frame is pushed per closure
// invocation and nowhere else; blocks and loops do not introduce scopes.
type Environment struct {
	outer    *Environment
	bindings map[string]Value
	// builtin names, protected against rebinding; populated only in the
	// frame that owns the builtins (the root)
	builtins map[string]struct{}
}

// NewEnvironment returns an empty root frame. Callers seed it with
// builtins via SeedBuiltin; the evaluator's NewGlobalEnvironment does
// both in one step.
func NewEnvironment() *Environment {
	return &Environment{
		bindings: make(map[string]Value),
		builtins: make(map[string]struct{}),
	}
}

// NewEnclosedEnvironment returns a new empty frame linked to outer, used
// exactly once per closure invocation.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{
		outer:    outer,
		bindings: make(map[string]Value),
	}
}

// SeedBuiltin installs a builtin binding and protects its name against
// rebinding. Expected to be called on the root frame only, once per
// builtin, before any program runs.
func (e *Environment) SeedBuiltin(name string, val Value) {
	e.bindings[name] = val
	e.builtins[name] = struct{}{}
}

// Bind creates or overwrites a binding in this frame only. Builtin names
// are protected in the frame that owns them (the root), so a call frame
// may shadow a builtin while a top-level rebinding fails.
func (e *Environment) Bind(name string, val Value) error {
	if _, protected := e.builtins[name]; protected {
		return NewBuiltinRebinding(name)
	}
	slog.Debug("binding value",
		slog.String("name", name),
		slog.String("type", string(val.Type())))
	e.bindings[name] = val
	return nil
}

// Get returns the nearest binding for name, walking outward from this
// frame to the root. An undefined name is an UnboundName error.
func (e *Environment) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.outer {
		if val, ok := env.bindings[name]; ok {
			return val, nil
		}
	}
	return nil, NewUnboundName(name)
}
