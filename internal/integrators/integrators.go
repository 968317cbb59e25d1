// Package integrators advances bodies through one time step once their
// acceleration for the tick is known.
//
// The time step is taken as given: zero freezes the system, a negative value
// runs it backwards and large values are not clamped.
package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/gravsim/internal/body"
)

var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

type Integrator interface {
	Name() string
	Step(b *body.Body, dt float64)
}

var registry = map[string]func() Integrator{
	"symplectic":    func() Integrator { return NewSemiImplicit() },
	"semi-implicit": func() Integrator { return NewSemiImplicit() },
	"explicit":      func() Integrator { return NewEuler() },
	"euler":         func() Integrator { return NewEuler() },
}

func New(name string) (Integrator, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownIntegrator, name, Names())
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
