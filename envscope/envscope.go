// package envscope applies a scoped set of process environment variables and
// restores the prior state on release. It exists because the compositor
// client library reads its connection parameters (WAYLAND_DISPLAY,
// XDG_RUNTIME_DIR, and similar) from the environment at initialization, so
// the engine needs to stage a known environment for the duration of startup
// without permanently clobbering the caller's process environment.
package envscope

import "os"

// Var is a single (name, value) pair to apply to the process environment.
type Var struct {
	Name  string
	Value string
}

// Context holds an ordered list of environment variables to apply together.
// Order matters only in that duplicate names are restored in reverse
// application order (see Guard.Close).
type Context struct {
	vars []Var
}

// New builds a Context from an ordered list of (name, value) pairs.
func New(vars ...Var) *Context {
	cp := make([]Var, len(vars))
	copy(cp, vars)
	return &Context{vars: cp}
}

// Apply mutates the process environment, setting every variable in this
// context in order, and returns a Guard that restores the pre-apply state
// when released.
func (c *Context) Apply() *Guard {
	previous := make([]priorValue, 0, len(c.vars))

	for _, v := range c.vars {
		current, ok := os.LookupEnv(v.Name)
		previous = append(previous, priorValue{name: v.Name, value: current, present: ok})
		os.Setenv(v.Name, v.Value)
	}

	return &Guard{previous: previous}
}

type priorValue struct {
	name    string
	value   string
	present bool
}

// Guard restores the environment variables captured by Apply when released.
// Close and Release are equivalent; releasing a Guard more than once is
// harmless.
type Guard struct {
	previous []priorValue
	released bool
}

// Close restores every captured variable in reverse application order: for
// duplicate names, the value captured before the earliest apply wins, matching the order a
// stack of nested applies would unwind in. Variables absent before Apply are
// removed rather than restored to an empty string. Close is idempotent.
func (g *Guard) Close() error {
	if g.released {
		return nil
	}
	g.released = true

	for i := len(g.previous) - 1; i >= 0; i-- {
		p := g.previous[i]
		if p.present {
			os.Setenv(p.name, p.value)
		} else {
			os.Unsetenv(p.name)
		}
	}
	return nil
}

// Release is an alias for Close, kept for call sites that read more
// naturally as "release the guard" than "close it".
func (g *Guard) Release() error {
	return g.Close()
}
