package uniformity

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/odincare/spectqc/dicomlog"
	"github.com/odincare/spectqc/volume"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Kind selects the uniformity metric.
type Kind int

const (
	Integral Kind = iota
	Differential
)

func (k Kind) String() string {
	switch k {
	case Integral:
		return "Integral"
	case Differential:
		return "Differential"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DefaultStep is the frame selection step used when Options.Step is 0.
const DefaultStep = 2

// Options for Run.
type Options struct {
	// Radius of the field of view, in rendered pixels.
	Radius int
	// RenderSize is the edge of the rendered layers; 0 keeps the frame size.
	RenderSize int
	// Step selects frames 0, Step, 2*Step, ...
	Step int
	// Workers bounds the number of concurrent tasks. 0 means runtime.NumCPU().
	Workers int
}

// LayerResult is the metric value of one frame.
type LayerResult struct {
	Frame int
	Value float64
}

// Result is one metric over the selected frames.
type Result struct {
	Kind Kind
	// Value is the maximum over PerLayer, 0 when no frame was selected.
	Value    float64
	PerLayer []LayerResult
}

func newResult(kind Kind, frames []int, values []float64) *Result {
	r := &Result{Kind: kind, PerLayer: make([]LayerResult, len(frames))}
	for i, f := range frames {
		r.PerLayer[i] = LayerResult{Frame: f, Value: values[i]}
		if values[i] > r.Value {
			r.Value = values[i]
		}
	}
	return r
}

// SelectFrames returns 0, step, 2*step, ... below frames.
func SelectFrames(frames, step int) []int {
	if step < 1 {
		step = DefaultStep
	}
	var out []int
	for f := 0; f < frames; f += step {
		out = append(out, f)
	}
	return out
}

// Run computes integral and differential uniformity over the selected frames
// of v. Each (frame, metric) pair is one task on a pool of opts.Workers
// goroutines. Cancelling ctx stops submitting tasks; tasks already running
// finish, then Run returns ctx.Err().
func Run(ctx context.Context, v *volume.Volume, opts Options) (integral, differential *Result, err error) {
	if !v.Valid() {
		return nil, nil, fmt.Errorf("uniformity.Run: malformed volume %dx%dx%d", v.Frames, v.Rows, v.Columns)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	render := RenderOptions{Size: opts.RenderSize, Radius: opts.Radius}

	frames := SelectFrames(v.Frames, opts.Step)
	integrals := make([]float64, len(frames))
	differentials := make([]float64, len(frames))
	dicomlog.Vprintf(1, "uniformity.Run: %d layers, %d workers", len(frames), workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, f := range frames {
		if ctx.Err() != nil {
			break
		}
		s, err := v.Frame(f)
		if err != nil {
			g.Wait()
			return nil, nil, err
		}
		layer := NewLayer(Render(s, render))
		i := i
		g.Go(func() error {
			integrals[i] = layer.Integral()
			return nil
		})
		g.Go(func() error {
			differentials[i] = layer.Differential()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return newResult(Integral, frames, integrals), newResult(Differential, frames, differentials), nil
}

// Header describes the run in a report.
type Header struct {
	Radius int
	Kernel mat.Matrix
	Step   int
}

// Report writes r in the plain text layout:
//
//	Differential Uniformity Results:
//	FoV Radius 80 px
//	Convolution: [[1, 2, 1], [2, 4, 2], [1, 2, 1]]
//
//	Layer 2: 3.14
//
// Layers are numbered (i+1)*Step.
func (r *Result) Report(w io.Writer, h Header) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Uniformity Results:\nFoV Radius %d px \nConvolution: %s\n\n",
		r.Kind, h.Radius, FormatKernel(h.Kernel))
	step := h.Step
	if step < 1 {
		step = DefaultStep
	}
	for i, l := range r.PerLayer {
		fmt.Fprintf(&b, "Layer %d: %v\n", (i+1)*step, l.Value)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Summary is the one line headline, e.g. "Integral Uniformity: 4.2%".
func (r *Result) Summary() string {
	return fmt.Sprintf("%s Uniformity: %.2f%%", r.Kind, r.Value)
}

// FormatKernel prints m as nested lists, "[[1, 2, 1], [2, 4, 2]]". A nil
// kernel prints "none".
func FormatKernel(m mat.Matrix) string {
	if m == nil {
		return "none"
	}
	rows, cols := m.Dims()
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		for j := 0; j < cols; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%g", m.At(i, j))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}
