// Package simulation runs the per-frame loop that applies fetch results to the graph and steps
// the layout until it converges.
package simulation

import (
	"context"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/graph"
	"github.com/bsv-blockchain/txflow/layout"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/looplab/fsm"
)

// Driver states and events. The driver is RUNNING while the layout has not converged since the
// graph last changed, and IDLE otherwise.
const (
	StateIdle    = "IDLE"
	StateRunning = "RUNNING"

	EventWake   = "WAKE"
	EventSettle = "SETTLE"
)

type TickResult struct {
	Poll graph.PollResult
	// Step is nil when the driver was idle.
	Step *layout.StepResult
	Idle bool
}

type Driver struct {
	logger ulogger.Logger
	graph  *graph.Graph
	engine *layout.Engine
	fsm    *fsm.FSM
	seen   uint64
	frames uint64
}

func NewDriver(logger ulogger.Logger, g *graph.Graph, engine *layout.Engine) *Driver {
	initPrometheusMetrics()

	d := &Driver{
		logger: logger,
		graph:  g,
		engine: engine,
	}

	d.fsm = NewFiniteStateMachine(func(_ context.Context, e *fsm.Event) {
		d.logger.Debugf("[Driver] %s -> %s after %d frames", e.Src, e.Dst, d.frames)
		prometheusSimulationTransitions.WithLabelValues(e.Dst).Inc()
	})

	return d
}

// NewFiniteStateMachine returns the driver's state machine, starting IDLE. onEnter is called on
// every state change.
func NewFiniteStateMachine(onEnter fsm.Callback) *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{
				Name: EventWake,
				Src:  []string{StateIdle},
				Dst:  StateRunning,
			},
			{
				Name: EventSettle,
				Src:  []string{StateRunning},
				Dst:  StateIdle,
			},
		},
		fsm.Callbacks{
			"enter_state": onEnter,
		},
	)
}

func (d *Driver) Graph() *graph.Graph {
	return d.graph
}

func (d *Driver) Engine() *layout.Engine {
	return d.engine
}

func (d *Driver) State() string {
	return d.fsm.Current()
}

func (d *Driver) Idle() bool {
	return d.fsm.Is(StateIdle)
}

func (d *Driver) Frames() uint64 {
	return d.frames
}

// Tick runs one frame: it applies completed fetches to the graph, wakes the driver if the graph
// changed, and, unless idle, advances the layout one step and moves the nodes.
func (d *Driver) Tick(ctx context.Context) (TickResult, error) {
	d.frames++
	prometheusSimulationFrames.Inc()

	res := TickResult{Poll: d.graph.Poll()}

	if gen := d.graph.Generation(); gen != d.seen {
		d.seen = gen
		d.engine.Reset()

		if err := d.event(ctx, EventWake); err != nil {
			return res, err
		}
	}

	if d.Idle() {
		res.Idle = true
		return res, nil
	}

	frame := d.graph.Frame()

	step, err := d.engine.Step(ctx, frame.Bodies, frame.Links)
	if err != nil {
		return res, err
	}

	if err = d.graph.ApplyFrame(frame, step); err != nil {
		return res, err
	}

	prometheusSimulationSteps.Inc()

	res.Step = &step

	if step.Converged {
		if err = d.event(ctx, EventSettle); err != nil {
			return res, err
		}
	}

	res.Idle = d.Idle()

	return res, nil
}

// Reflow restarts the layout even though the graph has not changed.
func (d *Driver) Reflow(ctx context.Context) error {
	d.engine.Reset()
	return d.event(ctx, EventWake)
}

// RunUntilConverged ticks until the driver goes idle, at most maxFrames times.
func (d *Driver) RunUntilConverged(ctx context.Context, maxFrames int) (int, error) {
	for frame := 1; frame <= maxFrames; frame++ {
		res, err := d.Tick(ctx)
		if err != nil {
			return frame, err
		}

		if res.Idle {
			return frame, nil
		}
	}

	return maxFrames, errors.NewProcessingError("layout did not converge within %d frames", maxFrames)
}

func (d *Driver) event(ctx context.Context, name string) error {
	if !d.fsm.Can(name) {
		return nil
	}

	if err := d.fsm.Event(ctx, name); err != nil {
		return errors.NewProcessingError("[Driver] %s event failed", name, err)
	}

	return nil
}
