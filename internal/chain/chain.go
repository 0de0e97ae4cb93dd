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

// Package chain sequences fallible startup steps.
package chain

import (
	"context"

	"go.uber.org/multierr"
)

// Chain runs a sequence of error-returning steps in insertion order.
type Chain struct {
	failFast bool
	errs     []error
	ctx      context.Context
}

// Option configures a chain at creation time.
type Option func(*Chain)

// New creates a chain. Steps run in the order they are added.
func New(opts ...Option) *Chain {
	chain := &Chain{
		errs: make([]error, 0),
		ctx:  context.Background(),
	}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// step runs fn unless a fail-fast chain already failed.
func (c *Chain) step(fn func() error) *Chain {
	if c.failFast && len(c.errs) > 0 {
		return c
	}
	if err := fn(); err != nil {
		c.errs = append(c.errs, err)
	}
	return c
}

// AddRunner appends a step to the chain.
func (c *Chain) AddRunner(fn func() error) *Chain {
	return c.step(fn)
}

// AddRunners appends a series of steps to the chain in argument order.
func (c *Chain) AddRunners(fn ...func() error) *Chain {
	for _, f := range fn {
		c = c.step(f)
	}
	return c
}

// AddContextRunner appends a step that receives the chain context.
func (c *Chain) AddContextRunner(fn func(ctx context.Context) error) *Chain {
	return c.step(func() error {
		return fn(c.ctx)
	})
}

// AddContextRunnerIf appends a context step only when condition holds.
func (c *Chain) AddContextRunnerIf(condition bool, fn func(ctx context.Context) error) *Chain {
	if !condition {
		return c
	}
	return c.AddContextRunner(fn)
}

// Run reports the outcome of the chain: nil when every step succeeded, the
// first error for a fail-fast chain, otherwise all errors combined.
func (c *Chain) Run() error {
	if len(c.errs) == 0 {
		return nil
	}
	if c.failFast {
		return c.errs[0]
	}
	var err error
	for _, stepErr := range c.errs {
		err = multierr.Append(err, stepErr)
	}
	return err
}

// WithFailFast stops the chain at the first failing step.
func WithFailFast() Option {
	return func(c *Chain) { c.failFast = true }
}

// WithRunAll runs every step and collects all failures.
func WithRunAll() Option {
	return func(c *Chain) { c.failFast = false }
}

// WithContext sets the context handed to context steps.
func WithContext(ctx context.Context) Option {
	return func(c *Chain) { c.ctx = ctx }
}
