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

// Package engine drives components of addressable elements through a fixed
// sequence of globally synchronized phases. Within a phase every element
// works through its ordered action list, exchanging keyed inbox data and
// contributing to deterministic reductions; the next phase starts only once
// every element has either finished its list or terminated, with nothing
// suspended and nothing in flight.
package engine

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/stelliform/lockstep/address"
	"github.com/stelliform/lockstep/errors"
	"github.com/stelliform/lockstep/eventstream"
	"github.com/stelliform/lockstep/inbox"
	"github.com/stelliform/lockstep/internal/chain"
	"github.com/stelliform/lockstep/internal/metric"
	"github.com/stelliform/lockstep/internal/types"
	"github.com/stelliform/lockstep/internal/validation"
	"github.com/stelliform/lockstep/log"
)

// namePattern constrains engine and component names.
const namePattern = "^[a-zA-Z0-9][a-zA-Z0-9-_]*$"

// Engine is the phase controller. It owns the directory of components, the
// worker pool and the reducer, and drives the configured phases in order.
// An Engine runs once: create, register components, Run.
type Engine struct {
	name   string
	logger log.Logger

	phases      []Phase
	workerCount int

	directory *Directory
	workers   []*worker
	reducer   *reducer

	eventsStream eventstream.Stream
	locker       sync.Mutex

	started   atomic.Bool
	stopped   atomic.Bool
	startedAt atomic.Time

	currentPhase atomic.Uint32

	// quiescence accounting; the protocol lives in executor.go. active
	// counts elements between broadcast and park, suspended counts parked
	// suspensions, wakeGen moves on every committed wake.
	active     atomic.Int64
	suspended  atomic.Int64
	wakeGen    atomic.Uint64
	quiescence chan types.Unit

	// run counters observed by the metrics callback and the watchdog
	elementsAlive    atomic.Int64
	actionsCount     atomic.Int64
	deliveriesCount  atomic.Int64
	suspensionsCount atomic.Int64
	reductionsCount  atomic.Int64

	metricProvider *metric.Provider
	phaseDuration  otelmetric.Int64Histogram

	watchdogInterval time.Duration
	watchdog         *watchdog

	rebalancing  bool
	movesMu      sync.Mutex
	pendingMoves []move

	cancelRun context.CancelFunc

	failureMu sync.Mutex
	failure   error
}

// New creates an engine with the given name. The name must be alphanumeric
// with optional non-leading hyphens or underscores. The phase sequence is
// set with WithPhases and is required.
func New(name string, opts ...Option) (*Engine, error) {
	if name == "" {
		return nil, errors.ErrNameRequired
	}
	if err := validation.
		New(validation.FailFast()).
		AddValidator(validation.NewPatternValidator(namePattern, name, errors.ErrInvalidName)).
		Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		name:         name,
		logger:       log.NewZap(log.ErrorLevel, os.Stderr),
		directory:    newDirectory(),
		eventsStream: eventstream.New(),
		workerCount:  runtime.NumCPU(),
		quiescence:   make(chan types.Unit, 1),
	}
	engine.reducer = newReducer(engine)

	// apply the various options
	for _, opt := range opts {
		opt.Apply(engine)
	}

	if err := engine.validate(); err != nil {
		return nil, err
	}
	return engine, nil
}

// validate checks the assembled configuration.
func (x *Engine) validate() error {
	if err := validatePhases(x.phases); err != nil {
		return err
	}
	if x.workerCount < 1 {
		return errors.ErrInvalidWorkerCount
	}
	return nil
}

// Run drives the configured phases to completion and blocks until the run
// ends. It returns nil after the last phase quiesced, the first protocol
// violation when one aborted the run, or the context error when the caller
// canceled. An engine runs once; a second Run returns ErrEngineStarted.
func (x *Engine) Run(ctx context.Context) error {
	if !x.started.CompareAndSwap(false, true) {
		return errors.ErrEngineStarted
	}
	defer x.stopped.Store(true)

	components := x.directory.Components()
	if len(components) == 0 {
		return errors.ErrNoComponents
	}

	// freezing publishes all registrations; workers read the directory
	// lock-free from here on
	x.directory.freeze()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	x.cancelRun = cancel

	if err := chain.
		New(chain.WithFailFast(), chain.WithContext(runCtx)).
		AddRunner(x.buildWorkerPool).
		AddRunner(x.registerMetrics).
		AddContextRunnerIf(x.watchdogInterval > 0, x.startWatchdog).
		Run(); err != nil {
		return err
	}

	x.startedAt.Store(time.Now())
	x.logger.Infof("engine=(%s) starting: %d worker(s), %d element(s), %d phase(s)..", x.name, x.workerCount, x.elementsAlive.Load(), len(x.phases))

	eg, egCtx := errgroup.WithContext(runCtx)
	for _, w := range x.workers {
		w := w
		eg.Go(func() error {
			return w.run(egCtx)
		})
	}

	x.publishEvent(&EngineStarted{Name: x.name})

	err := x.drivePhases(egCtx)

	cancel()
	_ = eg.Wait()
	if x.watchdog != nil {
		x.watchdog.Stop(context.Background())
	}

	x.publishEvent(&EngineStopped{Name: x.name})
	x.eventsStream.Close()

	if failure := x.failureErr(); failure != nil {
		err = failure
	}
	if err != nil {
		x.logger.Errorf("engine=(%s) stopped after %s: %v", x.name, time.Since(x.startedAt.Load()).Round(time.Millisecond), err)
		return err
	}
	x.logger.Infof("engine=(%s) completed %d phase(s) in %s..:)", x.name, len(x.phases), time.Since(x.startedAt.Load()).Round(time.Millisecond))
	return nil
}

// buildWorkerPool creates the workers and shards elements across them by
// address hash. Ownership set here only changes through relocation.
func (x *Engine) buildWorkerPool() error {
	x.workers = make([]*worker, x.workerCount)
	for i := range x.workers {
		w, err := newWorker(x, i)
		if err != nil {
			return err
		}
		x.workers[i] = w
	}

	total := int64(0)
	for _, component := range x.directory.Components() {
		for _, elem := range component.elements {
			elem.workerID.Store(int32(elem.addr.Hash() % uint64(x.workerCount)))
			total++
		}
	}
	x.elementsAlive.Store(total)
	return nil
}

func (x *Engine) startWatchdog(ctx context.Context) error {
	x.watchdog = newWatchdog(x, x.watchdogInterval)
	return x.watchdog.Start(ctx)
}

// drivePhases runs the configured phases in order. Each boundary applies
// pending relocations, rearms the live elements and waits for global
// quiescence before moving on.
func (x *Engine) drivePhases(ctx context.Context) error {
	for _, phase := range x.phases {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := x.applyRelocations(ctx); err != nil {
			return err
		}

		started := time.Now()
		count := x.broadcast(phase)
		x.publishEvent(&PhaseStarted{Phase: phase, Elements: count})
		x.logger.Debugf("engine=(%s) entering %s with %d element(s)", x.name, phase, count)

		if count > 0 {
			if err := x.awaitQuiescence(ctx); err != nil {
				return err
			}
		}

		elapsed := time.Since(started)
		x.recordPhaseDuration(ctx, phase, elapsed)
		x.publishEvent(&PhaseCompleted{Phase: phase, Duration: elapsed})
		x.logger.Debugf("engine=(%s) completed %s in %s", x.name, phase, elapsed)
	}
	x.currentPhase.Store(uint32(ExitPhase))
	return nil
}

// broadcast arms every live element of the phase and seeds the worker run
// queues. It runs with every element parked. The active count is published
// before the first element is scheduled so quiescence cannot be declared
// against a half-armed phase.
func (x *Engine) broadcast(phase Phase) int {
	x.currentPhase.Store(uint32(phase))

	// drop a stale poke left over from the previous phase
	select {
	case <-x.quiescence:
	default:
	}

	var scheduled []*element
	for _, component := range x.directory.Components() {
		actions := component.actionsFor(phase)
		if len(actions) == 0 {
			continue
		}
		for _, elem := range component.elements {
			if elem.terminated() {
				continue
			}
			elem.phase.Store(uint32(phase))
			elem.cursor.Store(0)
			elem.failure = nil
			elem.clearSuspendReason()
			elem.setActionList(actions)
			scheduled = append(scheduled, elem)
		}
	}

	x.active.Store(int64(len(scheduled)))
	for _, elem := range scheduled {
		elem.sched.Store(queued)
		x.workers[elem.workerID.Load()].schedule(elem)
	}
	return len(scheduled)
}

// awaitQuiescence blocks until every armed element parked for good: nothing
// active, nothing suspended, nothing woken while checking. There is
// deliberately no timeout. A phase that cannot quiesce is a programming
// error made visible through DumpDiagnostics and the watchdog, not guessed
// at by the engine.
func (x *Engine) awaitQuiescence(ctx context.Context) error {
	for {
		if x.checkQuiesced() {
			return nil
		}
		select {
		case <-ctx.Done():
			if err := x.failureErr(); err != nil {
				return err
			}
			return ctx.Err()
		case <-x.quiescence:
		}
	}
}

// checkQuiesced performs one quiescence round. The phase is done when no
// element holds an active slot, none is parked suspended and no wake
// committed between the reads; the wake generation re-read is the
// confirmation, see the ordering notes on wake.
func (x *Engine) checkQuiesced() bool {
	generation := x.wakeGen.Load()
	if x.active.Load() != 0 {
		return false
	}
	if x.suspended.Load() != 0 {
		return false
	}
	return x.wakeGen.Load() == generation
}

// abort records the first fatal error of the run and cancels everything.
// Later errors are dropped: by the time they surface, the cancellation has
// usually produced secondary failures that would mask the original.
func (x *Engine) abort(err error) {
	x.failureMu.Lock()
	first := x.failure == nil
	if first {
		x.failure = err
	}
	x.failureMu.Unlock()

	if first {
		x.logger.Errorf("engine=(%s) aborting run: %v", x.name, err)
		if x.cancelRun != nil {
			x.cancelRun()
		}
	}
}

func (x *Engine) failureErr() error {
	x.failureMu.Lock()
	defer x.failureMu.Unlock()
	return x.failure
}

// Send inserts value into the kind inbox of the element at to, under key,
// with the zero address as sender. External sends may land at any point of
// the run; a suspended receiver wakes, an idle one keeps the data for a
// later phase.
func (x *Engine) Send(to address.Address, kind string, key inbox.Key, value any) error {
	return x.deliver(to, kind, key, address.None, value)
}

// deliver performs one inbox insertion and wakes the receiver when it is
// suspended.
func (x *Engine) deliver(to address.Address, kind string, key inbox.Key, sender address.Address, value any) error {
	elem, err := x.elementAt(to)
	if err != nil {
		return err
	}
	if err := elem.inbox.Insert(kind, key, sender, value); err != nil {
		return err
	}
	x.deliveriesCount.Inc()
	x.wake(elem)
	return nil
}

// Contribute reports a contribution from outside any action, for example
// from setup code or a test harness. See reducer.contribute for the
// reduction contract.
func (x *Engine) Contribute(id ReductionID, target address.Address, kind string, key inbox.Key, contributor address.Address, value any, op CombineOp) error {
	return x.contribute(id, target, kind, key, contributor, value, op)
}

func (x *Engine) contribute(id ReductionID, target address.Address, kind string, key inbox.Key, contributor address.Address, value any, op CombineOp) error {
	return x.reducer.contribute(id, target, kind, key, contributor, value, op)
}

// Query runs fn against the box of the element at target while holding that
// element's box lock, serializing it with the element's actions, and
// returns fn's result. The inbox and cursor are never touched; queries are
// reads of opportunity, typically to fetch a shared lock handle out of a
// box.
func (x *Engine) Query(target address.Address, fn func(box any) any) (any, error) {
	elem, err := x.elementAt(target)
	if err != nil {
		return nil, err
	}
	var out any
	elem.boxLock.With(func() {
		out = fn(elem.box)
	})
	return out, nil
}

// Subscribe creates an events subscriber fed every engine lifecycle event
// (see events.go for the event types). Subscribing before Run captures the
// whole run.
func (x *Engine) Subscribe() (eventstream.Subscriber, error) {
	if x.stopped.Load() {
		return nil, errors.ErrEngineStopped
	}
	x.locker.Lock()
	subscriber := x.eventsStream.AddSubscriber()
	x.eventsStream.Subscribe(subscriber, eventsTopic)
	x.locker.Unlock()
	return subscriber, nil
}

// Unsubscribe drops the subscriber from the lifecycle events feed.
func (x *Engine) Unsubscribe(subscriber eventstream.Subscriber) error {
	if x.stopped.Load() {
		return errors.ErrEngineStopped
	}
	x.locker.Lock()
	x.eventsStream.Unsubscribe(subscriber, eventsTopic)
	x.eventsStream.RemoveSubscriber(subscriber)
	x.locker.Unlock()
	return nil
}

func (x *Engine) publishEvent(event any) {
	x.eventsStream.Publish(eventsTopic, event)
}

// registerMetrics wires the engine counters to the configured meter. A nil
// provider (the default) leaves metrics off.
func (x *Engine) registerMetrics() error {
	if x.metricProvider == nil || x.metricProvider.Meter() == nil {
		return nil
	}
	meter := x.metricProvider.Meter()
	metrics, err := metric.NewEngineMetric(meter)
	if err != nil {
		return err
	}

	observeOptions := []otelmetric.ObserveOption{
		otelmetric.WithAttributes(attribute.String("engine", x.name)),
	}

	_, err = meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		observer.ObserveInt64(metrics.ElementsCount(), x.elementsAlive.Load(), observeOptions...)
		observer.ObserveInt64(metrics.ActionsCount(), x.actionsCount.Load(), observeOptions...)
		observer.ObserveInt64(metrics.DeliveriesCount(), x.deliveriesCount.Load(), observeOptions...)
		observer.ObserveInt64(metrics.SuspensionsCount(), x.suspensionsCount.Load(), observeOptions...)
		observer.ObserveInt64(metrics.ReductionsCount(), x.reductionsCount.Load(), observeOptions...)
		return nil
	}, metrics.ElementsCount(),
		metrics.ActionsCount(),
		metrics.DeliveriesCount(),
		metrics.SuspensionsCount(),
		metrics.ReductionsCount(),
	)
	if err != nil {
		return err
	}

	x.phaseDuration = metrics.PhaseDuration()
	return nil
}

// recordPhaseDuration records the wall time of a completed phase.
func (x *Engine) recordPhaseDuration(ctx context.Context, phase Phase, elapsed time.Duration) {
	if x.phaseDuration == nil {
		return
	}
	x.phaseDuration.Record(ctx, elapsed.Milliseconds(),
		otelmetric.WithAttributes(
			attribute.String("engine", x.name),
			attribute.Int64("phase", int64(phase)),
		))
}

// progressStamp summarizes run progress for the watchdog. It moves whenever
// an action runs, a delivery lands or a reduction completes.
func (x *Engine) progressStamp() uint64 {
	return uint64(x.actionsCount.Load()) +
		uint64(x.deliveriesCount.Load()) +
		uint64(x.reductionsCount.Load())
}

// elementAt resolves an address to its element through the directory.
func (x *Engine) elementAt(addr address.Address) (*element, error) {
	component, err := x.directory.Get(addr.Component())
	if err != nil {
		return nil, err
	}
	return component.elementAt(addr.Index())
}

func (x *Engine) hasPhase(phase Phase) bool {
	for _, candidate := range x.phases {
		if candidate == phase {
			return true
		}
	}
	return false
}

// Name returns the engine name.
func (x *Engine) Name() string {
	return x.name
}

// Logger returns the engine logger.
func (x *Engine) Logger() log.Logger {
	return x.logger
}

// Directory returns the engine directory.
func (x *Engine) Directory() *Directory {
	return x.directory
}

// Running reports whether the engine is between Run entry and run end.
func (x *Engine) Running() bool {
	return x.started.Load() && !x.stopped.Load()
}

// CurrentPhase returns the phase the engine is driving. It is meaningful
// between the first broadcast and the end of the run; after the last phase
// it reports ExitPhase.
func (x *Engine) CurrentPhase() Phase {
	return Phase(x.currentPhase.Load())
}

// Uptime returns the number of seconds since the engine started, or zero
// before Run.
func (x *Engine) Uptime() int64 {
	if x.started.Load() {
		return int64(time.Since(x.startedAt.Load()).Seconds())
	}
	return 0
}
