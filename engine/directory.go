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
	"fmt"
	"sort"
	"sync"

	"go.uber.org/atomic"

	"github.com/stelliform/lockstep/errors"
)

// Directory is the engine's registry of components and global run
// parameters. It follows a single-writer-then-many-readers discipline: all
// registrations and parameter writes happen during setup under the mutex,
// the engine freezes the directory when it starts, and from then on every
// worker reads it without locking.
type Directory struct {
	mu         sync.Mutex
	frozen     atomic.Bool
	components map[string]*Component
	params     map[string]any
}

func newDirectory() *Directory {
	return &Directory{
		components: make(map[string]*Component),
		params:     make(map[string]any),
	}
}

// register adds a component under its name.
func (d *Directory) register(component *Component) error {
	if d.frozen.Load() {
		return errors.ErrDirectoryFrozen
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.components[component.Name()]; ok {
		return errors.NewErrAlreadyRegistered(component.Name())
	}
	d.components[component.Name()] = component
	return nil
}

// SetParam stores a global parameter under key. Parameters are setup-time
// only and become immutable once the engine runs.
func (d *Directory) SetParam(key string, value any) error {
	if d.frozen.Load() {
		return errors.ErrDirectoryFrozen
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params[key] = value
	return nil
}

// Get returns the component registered under name. Looking up a component
// that was never registered is a configuration error.
func (d *Directory) Get(name string) (*Component, error) {
	if !d.frozen.Load() {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	component, ok := d.components[name]
	if !ok {
		return nil, errors.NewErrUnknownComponent(name)
	}
	return component, nil
}

// Components returns the registered components sorted by name.
func (d *Directory) Components() []*Component {
	if !d.frozen.Load() {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	names := make([]string, 0, len(d.components))
	for name := range d.components {
		names = append(names, name)
	}
	sort.Strings(names)
	components := make([]*Component, 0, len(names))
	for _, name := range names {
		components = append(components, d.components[name])
	}
	return components
}

// Param reads the global parameter stored under key as a T.
func Param[T any](d *Directory, key string) (T, error) {
	var zero T
	if !d.frozen.Load() {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	value, ok := d.params[key]
	if !ok {
		return zero, errors.NewErrUnknownParameter(key)
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", errors.ErrParameterType, key, value)
	}
	return typed, nil
}

// freeze flips the directory read-only. The engine calls it once at Run;
// the atomic store publishes every prior registration to the workers.
func (d *Directory) freeze() {
	d.frozen.Store(true)
}

// Frozen reports whether the engine froze the directory.
func (d *Directory) Frozen() bool {
	return d.frozen.Load()
}
