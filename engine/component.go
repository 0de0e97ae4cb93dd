// MIT License
//
// Copyright (c) 2024-2026 Lockstep Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package engine

import (
	"sort"

	"github.com/stelliform/lockstep/address"
	"github.com/stelliform/lockstep/errors"
	"github.com/stelliform/lockstep/inbox"
	"github.com/stelliform/lockstep/internal/validation"
)

// Component is a named, indexed family of elements sharing one box factory,
// one set of inbox kinds and one action list per phase. Membership is fixed
// when the engine starts; elements are addressed as name[index].
type Component struct {
	name    string
	engine  *Engine
	kinds   []inbox.Kind
	factory func(addr address.Address) any
	actions map[Phase][]Action

	// elements is written during setup only and read lock-free once the
	// directory freezes.
	elements []*element

	size int
}

// ComponentOption configures a component at registration time.
type ComponentOption interface {
	// Apply sets the option value on the component.
	Apply(component *Component)
}

// enforce compilation error
var _ ComponentOption = ComponentOptionFunc(nil)

// ComponentOptionFunc implements ComponentOption.
type ComponentOptionFunc func(component *Component)

// Apply applies the component option.
func (f ComponentOptionFunc) Apply(component *Component) {
	f(component)
}

// WithElements sets how many elements the component starts with. The default
// is a single element at index 0.
func WithElements(count int) ComponentOption {
	return ComponentOptionFunc(func(component *Component) {
		component.size = count
	})
}

// WithBox sets the factory creating each element's private state. The
// factory runs once per element at registration time.
func WithBox(factory func(addr address.Address) any) ComponentOption {
	return ComponentOptionFunc(func(component *Component) {
		component.factory = factory
	})
}

// WithInboxKinds declares the inbox kinds every element of the component
// accepts. Sends naming an undeclared kind are rejected.
func WithInboxKinds(kinds ...inbox.Kind) ComponentOption {
	return ComponentOptionFunc(func(component *Component) {
		component.kinds = append(component.kinds, kinds...)
	})
}

// WithActions registers the ordered action list the component's elements run
// during the given phase. Successive calls for the same phase append, so a
// list can be composed incrementally. Phases without a registered list are
// skipped by the component's elements.
func WithActions(phase Phase, actions ...Action) ComponentOption {
	return ComponentOptionFunc(func(component *Component) {
		component.actions[phase] = append(component.actions[phase], actions...)
	})
}

// Register creates a component under the given name and adds it to the
// engine directory. Registration is setup-time only.
func (x *Engine) Register(name string, opts ...ComponentOption) (*Component, error) {
	if x.started.Load() {
		return nil, errors.ErrEngineStarted
	}
	if name == "" {
		return nil, errors.ErrNameRequired
	}
	if err := validation.
		New(validation.FailFast()).
		AddValidator(validation.NewPatternValidator(namePattern, name, errors.ErrInvalidName)).
		Validate(); err != nil {
		return nil, err
	}

	component := &Component{
		name:    name,
		engine:  x,
		actions: make(map[Phase][]Action),
		size:    1,
	}

	for _, opt := range opts {
		opt.Apply(component)
	}

	if component.size < 1 {
		return nil, errors.ErrNoElements
	}
	for _, phase := range component.phases() {
		if !x.hasPhase(phase) {
			return nil, errors.NewErrUnknownPhase(phase)
		}
	}
	for _, kind := range component.kinds {
		if err := kind.Validate(); err != nil {
			return nil, err
		}
	}

	// build all elements before touching the directory so a failure leaves
	// no half-registered component behind
	elements := make([]*element, 0, component.size)
	for i := 0; i < component.size; i++ {
		elem, err := newElement(x, component, address.New(name, i), component.kinds, component.factory)
		if err != nil {
			return nil, err
		}
		elements = append(elements, elem)
	}
	component.elements = elements

	if err := x.directory.register(component); err != nil {
		return nil, err
	}
	return component, nil
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.name
}

// Size returns the number of elements the component holds.
func (c *Component) Size() int {
	return len(c.elements)
}

// Addresses returns the addresses of all elements in index order.
func (c *Component) Addresses() []address.Address {
	addresses := make([]address.Address, 0, len(c.elements))
	for _, elem := range c.elements {
		addresses = append(addresses, elem.addr)
	}
	return addresses
}

// Grow adds count elements to the component. Setup-time only; membership is
// fixed once the engine runs.
func (c *Component) Grow(count int) error {
	if c.engine.directory.Frozen() {
		return errors.ErrDirectoryFrozen
	}
	if count < 1 {
		return errors.ErrNoElements
	}
	for i := 0; i < count; i++ {
		elem, err := newElement(c.engine, c, address.New(c.name, len(c.elements)), c.kinds, c.factory)
		if err != nil {
			return err
		}
		c.elements = append(c.elements, elem)
	}
	return nil
}

// phases returns the phases the component registered actions for, sorted.
func (c *Component) phases() []Phase {
	phases := make([]Phase, 0, len(c.actions))
	for phase := range c.actions {
		phases = append(phases, phase)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i] < phases[j] })
	return phases
}

// actionsFor returns the action list registered for the phase, or nil.
func (c *Component) actionsFor(phase Phase) []Action {
	return c.actions[phase]
}

// elementAt returns the element at index.
func (c *Component) elementAt(index int) (*element, error) {
	if index < 0 || index >= len(c.elements) {
		return nil, errors.NewErrUnknownElement(address.New(c.name, index))
	}
	return c.elements[index], nil
}

// liveMembers returns the addresses of the component's elements that have
// not terminated, in index order. Reductions freeze this as their expected
// contributor set.
func (c *Component) liveMembers() []address.Address {
	members := make([]address.Address, 0, len(c.elements))
	for _, elem := range c.elements {
		if !elem.terminated() {
			members = append(members, elem.addr)
		}
	}
	return members
}
