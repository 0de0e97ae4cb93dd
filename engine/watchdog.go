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
	"context"
	"strings"
	"sync"
	"time"

	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/stelliform/lockstep/log"
)

// watchdogStopTimeout bounds how long Stop waits for an in-flight tick.
const watchdogStopTimeout = time.Second

// watchdog periodically checks whether the engine made progress and logs the
// diagnostic dump when it did not. It never takes corrective action: a stall
// is legitimate while an element waits for data that is still coming, so
// judging one stays with the operator.
type watchdog struct {
	// helps lock concurrent access
	mu sync.Mutex
	// underlying scheduler
	quartzScheduler quartz.Scheduler
	// states whether the quartzScheduler has started or not
	started *atomic.Bool
	// define the logger
	logger log.Logger

	engine       *Engine
	interval     time.Duration
	lastProgress *atomic.Uint64
}

// newWatchdog creates a watchdog ticking at the given interval.
func newWatchdog(engine *Engine, interval time.Duration) *watchdog {
	// create an instance of quartz scheduler with logger off
	quartzScheduler, _ := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))

	return &watchdog{
		mu:              sync.Mutex{},
		quartzScheduler: quartzScheduler,
		started:         atomic.NewBool(false),
		logger:          engine.logger,
		engine:          engine,
		interval:        interval,
		lastProgress:    atomic.NewUint64(0),
	}
}

// Start schedules the periodic progress check.
func (x *watchdog) Start(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.lastProgress.Store(x.engine.progressStamp())

	watchJob := job.NewFunctionJob[bool](
		func(context.Context) (bool, error) {
			x.check()
			return true, nil
		},
	)
	detail := quartz.NewJobDetail(watchJob, quartz.NewJobKey("watchdog"))
	if err := x.quartzScheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(x.interval)); err != nil {
		return err
	}

	x.quartzScheduler.Start(ctx)
	x.started.Store(x.quartzScheduler.IsStarted())
	return nil
}

// Stop halts the checks and waits briefly for an in-flight tick to end.
func (x *watchdog) Stop(ctx context.Context) {
	if !x.started.Load() {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	_ = x.quartzScheduler.Clear()
	x.quartzScheduler.Stop()
	x.started.Store(x.quartzScheduler.IsStarted())

	ctx, cancel := context.WithTimeout(ctx, watchdogStopTimeout)
	defer cancel()
	x.quartzScheduler.Wait(ctx)
}

// check compares the engine's progress stamp against the previous tick and
// logs the diagnostic dump when nothing moved.
func (x *watchdog) check() {
	current := x.engine.progressStamp()
	previous := x.lastProgress.Swap(current)
	if current != previous {
		return
	}

	var dump strings.Builder
	_ = x.engine.DumpDiagnostics(&dump)
	x.logger.Warnf("no engine progress over the last %s\n%s", x.interval, dump.String())
}
