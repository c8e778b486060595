// Package field computes the time-modulated 2-D sample grid that gets
// streamed to the viewer. Workers each own a horizontal band; Assemble
// runs all bands in lock-step and gathers them into the leader's frame.
package field

import (
    "context"
    "fmt"
    "math"

    "golang.org/x/sync/errgroup"
)

// Scale converts between real-valued samples and the int16 wire encoding.
// It is a channel-wide constant agreed out-of-band, never negotiated.
const Scale = 32767.0

// Frame is a fixed-dimension grid of signed fixed-point samples, row-major.
// The buffer is overwritten in place each cycle.
type Frame struct {
    Width   int
    Height  int
    Samples []int16
}

// NewFrame allocates a zeroed frame.
func NewFrame(w, h int) *Frame {
    return &Frame{Width: w, Height: h, Samples: make([]int16, w*h)}
}

// CopyFrom overwrites the frame with src. Dimensions must match.
func (f *Frame) CopyFrom(src *Frame) {
    copy(f.Samples, src.Samples)
}

// At returns the sample at (x, y).
func (f *Frame) At(x, y int) int16 { return f.Samples[x+y*f.Width] }

// Generator evaluates the closed-form base field on a w×h grid with both
// axes scaled to [-4, 4]. The base grid is computed once; per-tick output
// is the base modulated by Scale*|sin(elapsed)| and quantized to int16.
type Generator struct {
    width  int
    height int
    base   []float64
}

// NewGenerator precomputes the base grid.
func NewGenerator(w, h int) *Generator {
    g := &Generator{width: w, height: h, base: make([]float64, w*h)}
    for y := 0; y < h; y++ {
        for x := 0; x < w; x++ {
            g.base[x+y*w] = baseValue(x, y, w, h)
        }
    }
    return g
}

func baseValue(x, y, w, h int) float64 {
    fx := float64(x)/float64(w)*8.0 - 4.0
    fy := float64(y)/float64(h)*8.0 - 4.0
    r := 3.0*math.Sqrt(fx*fx+fy*fy) + 1e-2
    return 2.0 * fx * (math.Cos(r+2.0)/r - math.Sin(r+2.0)/r)
}

// FillBand quantizes rows [y0, y1) into dst for the given elapsed time.
func (g *Generator) FillBand(dst *Frame, y0, y1 int, elapsed float64) {
    factor := Scale * math.Abs(math.Sin(elapsed))
    for y := y0; y < y1; y++ {
        for x := 0; x < g.width; x++ {
            i := x + y*g.width
            dst.Samples[i] = int16(g.base[i] * factor)
        }
    }
}

// Group is a fixed set of cooperating workers. Each worker owns one
// horizontal band of the frame; Assemble recomputes every band and gathers
// the result into the leader's buffer, acting as both barrier and gather.
type Group struct {
    gen     *Generator
    workers int
    frame   *Frame
}

// NewGroup validates the worker layout and builds the group. The band
// split must be even so every worker carries the same load.
func NewGroup(w, h, workers int) (*Group, error) {
    if workers < 1 {
        return nil, fmt.Errorf("field: worker count %d, need at least 1", workers)
    }
    if h%workers != 0 {
        return nil, fmt.Errorf("field: height %d not divisible by %d workers", h, workers)
    }
    return &Group{gen: NewGenerator(w, h), workers: workers, frame: NewFrame(w, h)}, nil
}

// Workers reports the worker count.
func (g *Group) Workers() int { return g.workers }

// Assemble recomputes all bands for the given elapsed time and returns the
// gathered frame. The returned frame is the group's single live buffer;
// callers must finish with it before the next Assemble.
func (g *Group) Assemble(ctx context.Context, elapsed float64) (*Frame, error) {
    band := g.frame.Height / g.workers
    eg, _ := errgroup.WithContext(ctx)
    for i := 0; i < g.workers; i++ {
        y0 := i * band
        eg.Go(func() error {
            g.gen.FillBand(g.frame, y0, y0+band, elapsed)
            return nil
        })
    }
    if err := eg.Wait(); err != nil {
        return nil, err
    }
    return g.frame, nil
}
