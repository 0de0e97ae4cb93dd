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
	"time"

	"github.com/stelliform/lockstep/internal/metric"
	"github.com/stelliform/lockstep/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of an engine.
	Apply(engine *Engine)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(engine *Engine)

func (f OptionFunc) Apply(engine *Engine) {
	f(engine)
}

// WithLogger sets the engine custom log
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(engine *Engine) {
		engine.logger = logger
	})
}

// WithPhases sets the ordered phases the run drives. The sequence is
// required and must be strictly increasing.
func WithPhases(phases ...Phase) Option {
	return OptionFunc(func(engine *Engine) {
		engine.phases = append([]Phase(nil), phases...)
	})
}

// WithWorkers sets the number of workers executing elements. The default is
// the number of CPUs.
func WithWorkers(count int) Option {
	return OptionFunc(func(engine *Engine) {
		engine.workerCount = count
	})
}

// WithMetric enables metrics using the globally registered OpenTelemetry
// meter provider.
func WithMetric() Option {
	return OptionFunc(func(engine *Engine) {
		engine.metricProvider = metric.New()
	})
}

// WithWatchdog enables the progress watchdog: whenever no action ran, no
// delivery landed and no reduction completed for a whole interval, the
// diagnostic dump is logged. Detection only; the run is left alone.
func WithWatchdog(interval time.Duration) Option {
	return OptionFunc(func(engine *Engine) {
		engine.watchdogInterval = interval
	})
}

// WithRebalancing redistributes elements across workers at every phase
// boundary, leveling the per-worker share of processed actions. Only
// elements whose box implements Snapshotter take part.
func WithRebalancing() Option {
	return OptionFunc(func(engine *Engine) {
		engine.rebalancing = true
	})
}
