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

package inbox

import (
	"github.com/stelliform/lockstep/internal/validation"
)

// kindPattern constrains kind names the same way component names are
// constrained.
const kindPattern = "^[a-zA-Z0-9][a-zA-Z0-9-_]*$"

// Kind describes one message type an element can receive. The set of kinds
// an inbox accepts is fixed when the inbox is created; inserting under an
// undeclared kind is a protocol violation.
type Kind struct {
	// Name identifies the kind. Senders and consumers refer to it by name.
	Name string

	// AllowMultiple permits several values from the same sender under one
	// key; they accumulate in arrival order and are handed to the consumer
	// together. Most kinds keep the default rule of one value per sender
	// per key and reject duplicates.
	AllowMultiple bool

	// Quorum is the number of distinct senders that must have reported
	// under a key before the key becomes consumable. Zero means whatever
	// data is present may be consumed immediately.
	Quorum int
}

var _ validation.Validator = (*Kind)(nil)

// NewKind creates a Kind with the default one-value-per-sender rule and no
// quorum.
func NewKind(name string) Kind {
	return Kind{Name: name}
}

// WithQuorum returns a copy of the kind requiring the given number of
// distinct senders per key before consumption.
func (k Kind) WithQuorum(senders int) Kind {
	k.Quorum = senders
	return k
}

// WithAccumulation returns a copy of the kind accepting several values per
// sender per key.
func (k Kind) WithAccumulation() Kind {
	k.AllowMultiple = true
	return k
}

// Validate checks the kind configuration.
func (k Kind) Validate() error {
	return validation.
		New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("kind name", k.Name)).
		AddValidator(validation.NewPatternValidator(kindPattern, k.Name, nil)).
		AddAssertion(k.Quorum >= 0, "kind quorum must not be negative").
		Validate()
}
