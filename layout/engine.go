package layout

import (
	"context"
	"math"
	"time"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/ordishs/gocore"
)

var stat = gocore.NewStat("layout")

// Body is a rect together with its velocity, which carries over between steps.
type Body struct {
	Rect     Rect
	Velocity Vec2
}

// Link is a value flow from the output side of body From to the input side of body To.
// FromY and ToY are the vertical offsets of the two ports from their rect centres.
type Link struct {
	From  int
	To    int
	FromY float64
	ToY   float64
}

type StepResult struct {
	Displacements   []Vec2
	MaxDisplacement float64
	Iteration       int
	Converged       bool
}

// Engine advances the layout one step at a time and tracks convergence: it converges after
// StableIterations consecutive steps whose largest displacement is below Epsilon, or after
// MaxIterations steps.
type Engine struct {
	logger     ulogger.Logger
	params     Params
	kernel     Kernel
	rects      []Rect
	forces     []Vec2
	stable     int
	iterations int
	converged  bool
}

func NewEngine(logger ulogger.Logger, params Params, kernel Kernel) (*Engine, error) {
	initPrometheusMetrics()

	if err := params.Validate(); err != nil {
		return nil, err
	}

	if kernel == nil {
		kernel = SerialKernel{}
	}

	return &Engine{
		logger: logger,
		params: params,
		kernel: kernel,
	}, nil
}

func (e *Engine) Params() Params {
	return e.params
}

// SetParams replaces the parameters and restarts convergence tracking.
func (e *Engine) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	e.params = params
	e.Reset()

	return nil
}

func (e *Engine) Kernel() Kernel {
	return e.kernel
}

// Reset restarts convergence tracking, after the rect set was perturbed.
func (e *Engine) Reset() {
	e.stable = 0
	e.iterations = 0
	e.converged = false
}

func (e *Engine) Converged() bool {
	return e.converged
}

func (e *Engine) Iterations() int {
	return e.iterations
}

// Step computes one iteration. The velocities of bodies are updated in place, the returned
// displacements are to be added to the rect centres by the caller.
func (e *Engine) Step(ctx context.Context, bodies []Body, links []Link) (StepResult, error) {
	start := time.Now()

	defer func() {
		stat.NewStat("Step").AddTime(start)
		prometheusLayoutStepDuration.Observe(float64(time.Since(start).Microseconds()))
	}()

	n := len(bodies)

	if cap(e.rects) < n {
		e.rects = make([]Rect, n)
		e.forces = make([]Vec2, n)
	}

	e.rects = e.rects[:n]
	e.forces = e.forces[:n]

	for i := range bodies {
		e.rects[i] = bodies[i].Rect
	}

	if err := e.kernel.Repulsion(ctx, e.rects, e.params.Scale, e.params.RepulsionRadius, e.forces); err != nil {
		return StepResult{}, err
	}

	for _, l := range links {
		if l.From < 0 || l.From >= n || l.To < 0 || l.To >= n {
			return StepResult{}, errors.NewLayoutDesyncError("link %d->%d outside of %d bodies", l.From, l.To, n)
		}

		if l.From == l.To {
			continue
		}

		f := e.linkForce(e.rects[l.From], e.rects[l.To], l)
		e.forces[l.From] = e.forces[l.From].Add(f)
		e.forces[l.To] = e.forces[l.To].Sub(f)
	}

	res := StepResult{Displacements: make([]Vec2, n)}

	for i := range bodies {
		f := e.forces[i]
		f.Y /= e.params.YCompress

		if !f.IsFinite() {
			return StepResult{}, errors.NewProcessingError("non finite force %s on body %d", f, i)
		}

		v := bodies[i].Velocity.Add(f.Scale(e.params.DT)).Scale(e.params.Cooloff)
		d := v.Scale(e.params.DT)

		if l := d.Length(); l > e.params.MaxDisplacement {
			d = d.Scale(e.params.MaxDisplacement / l)
			v = d.Scale(1 / e.params.DT)
		}

		bodies[i].Velocity = v
		res.Displacements[i] = d
		res.MaxDisplacement = math.Max(res.MaxDisplacement, d.Length())
	}

	e.iterations++

	if res.MaxDisplacement < e.params.Epsilon {
		e.stable++
	} else {
		e.stable = 0
	}

	if e.stable >= e.params.StableIterations || e.iterations >= e.params.MaxIterations {
		if !e.converged && e.stable < e.params.StableIterations {
			e.logger.Warnf("[Layout] iteration cap %d reached, max displacement %.3f", e.params.MaxIterations, res.MaxDisplacement)
		}

		e.converged = true
	}

	res.Iteration = e.iterations
	res.Converged = e.converged

	prometheusLayoutSteps.WithLabelValues(e.kernel.Name()).Inc()
	prometheusLayoutMaxDisplacement.Set(res.MaxDisplacement)
	prometheusLayoutBodies.Set(float64(n))

	return res, nil
}

// linkForce is the force on the funding rect from, towards the spending rect to. Its negation acts
// on to. A spring pulls the output port towards the input port, and when to is not at least FlowGap
// to the right of from, a flow term pushes the two apart horizontally.
func (e *Engine) linkForce(from, to Rect, l Link) Vec2 {
	out := Vec2{X: from.Right(), Y: from.Y + l.FromY}
	in := Vec2{X: to.Left(), Y: to.Y + l.ToY}

	diff := in.Sub(out)

	var f Vec2

	if length := diff.Length(); length > 0 {
		// |diff|^2 / scale along diff
		f = diff.Scale(length / e.params.Scale)
	}

	if deficit := out.X + e.params.FlowGap - in.X; deficit > 0 {
		f.X -= e.params.FlowStrength * deficit * e.params.Scale / e.params.FlowGap
	}

	return f
}
