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

package metric

import "go.opentelemetry.io/otel/metric"

// EngineMetric groups the OpenTelemetry instruments that describe engine
// progress at a coarse level.
//
// Instruments:
//   - engine.elements.count     (Int64ObservableGauge)
//   - engine.actions.count      (Int64ObservableCounter)
//   - engine.deliveries.count   (Int64ObservableCounter)
//   - engine.suspensions.count  (Int64ObservableCounter)
//   - engine.reductions.count   (Int64ObservableCounter)
//   - engine.phase.duration     (Int64Histogram, unit: ms)
type EngineMetric struct {
	elementsCount    metric.Int64ObservableGauge
	actionsCount     metric.Int64ObservableCounter
	deliveriesCount  metric.Int64ObservableCounter
	suspensionsCount metric.Int64ObservableCounter
	reductionsCount  metric.Int64ObservableCounter
	phaseDuration    metric.Int64Histogram
}

// NewEngineMetric creates the engine-level instruments using the provided
// Meter. It returns an error if any instrument cannot be created so telemetry
// initialization failures are surfaced early.
func NewEngineMetric(meter metric.Meter) (*EngineMetric, error) {
	var instruments EngineMetric
	var err error

	if instruments.elementsCount, err = meter.Int64ObservableGauge(
		"engine.elements.count",
		metric.WithDescription("Number of live elements registered with the engine"),
	); err != nil {
		return nil, err
	}

	if instruments.actionsCount, err = meter.Int64ObservableCounter(
		"engine.actions.count",
		metric.WithDescription("Total number of actions executed"),
	); err != nil {
		return nil, err
	}

	if instruments.deliveriesCount, err = meter.Int64ObservableCounter(
		"engine.deliveries.count",
		metric.WithDescription("Total number of inbox deliveries"),
	); err != nil {
		return nil, err
	}

	if instruments.suspensionsCount, err = meter.Int64ObservableCounter(
		"engine.suspensions.count",
		metric.WithDescription("Total number of element suspensions"),
	); err != nil {
		return nil, err
	}

	if instruments.reductionsCount, err = meter.Int64ObservableCounter(
		"engine.reductions.count",
		metric.WithDescription("Total number of completed reductions"),
	); err != nil {
		return nil, err
	}

	if instruments.phaseDuration, err = meter.Int64Histogram(
		"engine.phase.duration",
		metric.WithDescription("Wall-clock duration of each completed phase in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// ElementsCount returns the observable gauge that reports the number of live
// elements currently registered with the engine.
//
// Use with Meter.RegisterCallback to observe the current value periodically.
func (x *EngineMetric) ElementsCount() metric.Int64ObservableGauge {
	return x.elementsCount
}

// ActionsCount returns the observable counter that tracks how many actions
// have been executed across all elements.
//
// Use with Meter.RegisterCallback to observe the current value periodically.
func (x *EngineMetric) ActionsCount() metric.Int64ObservableCounter {
	return x.actionsCount
}

// DeliveriesCount returns the observable counter that tracks how many
// messages have been delivered into element inboxes.
func (x *EngineMetric) DeliveriesCount() metric.Int64ObservableCounter {
	return x.deliveriesCount
}

// SuspensionsCount returns the observable counter that tracks how many times
// elements have suspended waiting for data.
func (x *EngineMetric) SuspensionsCount() metric.Int64ObservableCounter {
	return x.suspensionsCount
}

// ReductionsCount returns the observable counter that tracks how many
// reductions have run to completion.
func (x *EngineMetric) ReductionsCount() metric.Int64ObservableCounter {
	return x.reductionsCount
}

// PhaseDuration returns the histogram used to record the wall-clock duration
// of each completed phase in milliseconds.
func (x *EngineMetric) PhaseDuration() metric.Int64Histogram {
	return x.phaseDuration
}
