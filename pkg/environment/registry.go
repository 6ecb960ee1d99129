package environment

import (
	"fmt"
	"sort"

	"github.com/boristopalov/sawyer/pkg/core"
	"github.com/boristopalov/sawyer/pkg/sim"
)

// Constructor builds a task on top of a simulator.
type Constructor func(s sim.Simulator, opts ...Option) (core.Environment, error)

var registry = map[string]Constructor{
	"sweep-v1": func(s sim.Simulator, opts ...Option) (core.Environment, error) {
		e, err := NewSweep(s, opts...)
		if err != nil {
			return nil, err
		}
		return e, nil
	},
}

// Make builds the named task.
func Make(name string, s sim.Simulator, opts ...Option) (core.Environment, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownEnv, name, Names())
	}
	return ctor(s, opts...)
}

// Names lists registered tasks in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
