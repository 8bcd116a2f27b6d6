package layout

import (
	"context"
	"math"
	"runtime"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/util"
	"golang.org/x/sync/errgroup"
)

// MinClearSpacing keeps the repulsion finite when rectangles touch or overlap.
const MinClearSpacing = 2.0

// Kernel computes the summed repulsion acting on every rect. Implementations write out[i] for rect i
// only, and must be safe to call with len(out) == len(rects).
type Kernel interface {
	Repulsion(ctx context.Context, rects []Rect, scale, radius float64, out []Vec2) error
	Name() string
}

// NewKernel returns the kernel registered under name: serial, parallel or buffer.
func NewKernel(name string, workers int) (Kernel, error) {
	switch name {
	case "serial":
		return SerialKernel{}, nil
	case "parallel", "":
		return NewParallelKernel(workers), nil
	case "buffer":
		return NewBufferKernel(workers), nil
	default:
		return nil, errors.NewConfigurationError("unknown layout kernel %q", name)
	}
}

// Repulsion is the force rect j exerts on rect i. It is zero when their clear spacing d is at least
// radius, and (1-(d/r)^2)^2 * scale^2 / d along the centre delta otherwise. Coincident centres push
// apart along the x axis, the direction decided by index order.
func Repulsion(ri, rj Rect, i, j int, scale, radius float64) Vec2 {
	d := ri.ClearSpacing(rj)
	if d >= radius {
		return Vec2{}
	}

	k := 1 - (d/radius)*(d/radius)
	magnitude := k * k * scale * scale / d

	dx := ri.X - rj.X
	dy := ri.Y - rj.Y
	length := math.Hypot(dx, dy)

	if length == 0 {
		if i > j {
			return Vec2{X: magnitude}
		}

		return Vec2{X: -magnitude}
	}

	return Vec2{X: dx / length * magnitude, Y: dy / length * magnitude}
}

// sumRepulsion is the net repulsion on rect i.
func sumRepulsion(rects []Rect, i int, scale, radius float64) Vec2 {
	var f Vec2

	for j := range rects {
		if j == i {
			continue
		}

		f = f.Add(Repulsion(rects[i], rects[j], i, j, scale, radius))
	}

	return f
}

type SerialKernel struct{}

func (SerialKernel) Name() string { return "serial" }

func (SerialKernel) Repulsion(ctx context.Context, rects []Rect, scale, radius float64, out []Vec2) error {
	if len(out) != len(rects) {
		return errors.NewLayoutDesyncError("output has %d slots for %d rects", len(out), len(rects))
	}

	for i := range rects {
		if i%256 == 0 && ctx.Err() != nil {
			return errors.NewContextCanceledError("repulsion canceled", ctx.Err())
		}

		out[i] = sumRepulsion(rects, i, scale, radius)
	}

	return nil
}

// ParallelKernel splits the rects into contiguous ranges and sums each range on its own goroutine.
type ParallelKernel struct {
	workers int
}

func NewParallelKernel(workers int) *ParallelKernel {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &ParallelKernel{workers: workers}
}

func (k *ParallelKernel) Name() string { return "parallel" }

func (k *ParallelKernel) Repulsion(ctx context.Context, rects []Rect, scale, radius float64, out []Vec2) error {
	if len(out) != len(rects) {
		return errors.NewLayoutDesyncError("output has %d slots for %d rects", len(out), len(rects))
	}

	return parallelFor(ctx, len(rects), k.workers, func(i int) {
		out[i] = sumRepulsion(rects, i, scale, radius)
	})
}

// parallelFor calls fn for every index in [0, n), in chunks spread over at most workers goroutines.
func parallelFor(ctx context.Context, n, workers int, fn func(i int)) error {
	if n == 0 {
		return nil
	}

	workers = clamp(workers, 1, n)
	chunk := (n + workers - 1) / workers

	g, gCtx := errgroup.WithContext(ctx)
	util.SafeSetLimit(g, workers)

	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)

		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return errors.NewContextCanceledError("repulsion canceled", err)
			}

			for i := start; i < end; i++ {
				fn(i)
			}

			return nil
		})
	}

	return g.Wait()
}
