package layout

import (
	"context"

	"github.com/bsv-blockchain/txflow/errors"
)

const (
	// texels per rect in both buffers: x, y, w, h on upload and fx, fy, 0, 0 on readback
	bufferStride = 4
)

// BufferKernel runs the repulsion as a compute device would: the rects are uploaded into a flat
// float32 buffer, the kernel is dispatched once per texel, and the forces are read back from an
// output buffer. Each upload starts a new generation. Dispatching or reading back a generation that
// is not the current upload is a LAYOUT_DESYNC error, so a readback can never be applied to a node
// set it was not computed for.
type BufferKernel struct {
	workers    int
	in         []float32
	out        []float32
	count      int
	generation uint64
	dispatched uint64
}

func NewBufferKernel(workers int) *BufferKernel {
	return &BufferKernel{workers: workers}
}

func (k *BufferKernel) Name() string { return "buffer" }

// Upload copies rects into the input buffer and returns the new generation.
func (k *BufferKernel) Upload(rects []Rect) uint64 {
	n := len(rects) * bufferStride

	if cap(k.in) < n {
		k.in = make([]float32, n)
		k.out = make([]float32, n)
	}

	k.in = k.in[:n]
	k.out = k.out[:n]

	for i, r := range rects {
		o := i * bufferStride
		k.in[o] = float32(r.X)
		k.in[o+1] = float32(r.Y)
		k.in[o+2] = float32(r.W)
		k.in[o+3] = float32(r.H)
	}

	k.count = len(rects)
	k.generation++

	return k.generation
}

// Dispatch computes the force for every uploaded rect of generation gen.
func (k *BufferKernel) Dispatch(ctx context.Context, gen uint64, scale, radius float64) error {
	if gen != k.generation {
		return errors.NewLayoutDesyncError("dispatch of generation %d, current upload is %d", gen, k.generation)
	}

	err := parallelFor(ctx, k.count, k.workers, func(i int) {
		ri := k.texel(i)

		var f Vec2

		for j := 0; j < k.count; j++ {
			if j == i {
				continue
			}

			f = f.Add(Repulsion(ri, k.texel(j), i, j, scale, radius))
		}

		o := i * bufferStride
		k.out[o] = float32(f.X)
		k.out[o+1] = float32(f.Y)
		k.out[o+2] = 0
		k.out[o+3] = 0
	})
	if err != nil {
		return err
	}

	k.dispatched = gen

	return nil
}

// Readback copies the forces of generation gen into out.
func (k *BufferKernel) Readback(gen uint64, out []Vec2) error {
	if gen != k.generation || k.dispatched != gen {
		return errors.NewLayoutDesyncError("readback of generation %d, uploaded %d, dispatched %d", gen, k.generation, k.dispatched)
	}

	if len(out) != k.count {
		return errors.NewLayoutDesyncError("readback into %d slots, buffer holds %d rects", len(out), k.count)
	}

	for i := range out {
		o := i * bufferStride
		out[i] = Vec2{X: float64(k.out[o]), Y: float64(k.out[o+1])}

		if !out[i].IsFinite() {
			out[i] = Vec2{}
		}
	}

	return nil
}

func (k *BufferKernel) Repulsion(ctx context.Context, rects []Rect, scale, radius float64, out []Vec2) error {
	gen := k.Upload(rects)

	if err := k.Dispatch(ctx, gen, scale, radius); err != nil {
		return err
	}

	return k.Readback(gen, out)
}

func (k *BufferKernel) texel(i int) Rect {
	o := i * bufferStride

	return Rect{
		X: float64(k.in[o]),
		Y: float64(k.in[o+1]),
		W: float64(k.in[o+2]),
		H: float64(k.in[o+3]),
	}
}

