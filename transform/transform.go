// Package transform holds the volume operations run before uniformity
// analysis: central crop, smoothing convolution and field of view masks.
package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/odincare/spectqc/dicomlog"
	"github.com/odincare/spectqc/volume"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is returned for malformed volumes, kernels or masks.
	ErrShape = errors.New("bad shape")

	// ErrRange is returned when a crop does not fit inside the volume.
	ErrRange = errors.New("out of range")

	// ErrEmptyMask is returned by MinMax when no pixel is valid.
	ErrEmptyMask = errors.New("no valid pixels")
)

// DefaultKernel returns the NEMA style 3x3 smoothing kernel.
func DefaultKernel() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 2, 1,
		2, 4, 2,
		1, 2, 1,
	})
}

// Crop returns the central k×k×k cube of v. The centre is Frames/2 on all
// three axes and the cube spans [centre-k/2, centre-k/2+k).
func Crop(v *volume.Volume, k int) (*volume.Volume, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("transform.Crop: %w", ErrShape)
	}
	if k < 1 {
		return nil, fmt.Errorf("transform.Crop: size %d: %w", k, ErrRange)
	}
	start := v.Frames/2 - k/2
	end := start + k
	if start < 0 || end > v.Frames || end > v.Rows || end > v.Columns {
		return nil, fmt.Errorf("transform.Crop: [%d,%d) outside %dx%dx%d: %w",
			start, end, v.Frames, v.Rows, v.Columns, ErrRange)
	}

	out := volume.New(k, k, k)
	for f := 0; f < k; f++ {
		for r := 0; r < k; r++ {
			src := v.Data[((start+f)*v.Rows+start+r)*v.Columns+start:]
			copy(out.Data[(f*k+r)*k:(f*k+r+1)*k], src[:k])
		}
	}
	dicomlog.Vprintf(1, "transform.Crop: %d -> [%d,%d)", v.Frames, start, end)
	return out, nil
}

// Smooth convolves every frame of v with kernel, keeping the frame size and
// treating pixels outside the frame as 0. The kernel is normalized by its sum
// unless the sum is 0. Results are rounded to the nearest integer.
func Smooth(v *volume.Volume, kernel mat.Matrix) (*volume.Volume, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("transform.Smooth: %w", ErrShape)
	}
	if kernel == nil {
		return nil, fmt.Errorf("transform.Smooth: nil kernel: %w", ErrShape)
	}
	kr, kc := kernel.Dims()
	if kr == 0 || kc == 0 {
		return nil, fmt.Errorf("transform.Smooth: empty kernel: %w", ErrShape)
	}

	k := mat.DenseCopyOf(kernel)
	if sum := mat.Sum(k); sum != 0 {
		k.Scale(1/sum, k)
	}
	// 'same' output is the centre of the full convolution.
	offR, offC := (kr-1)/2, (kc-1)/2

	out := volume.New(v.Frames, v.Rows, v.Columns)
	for f := 0; f < v.Frames; f++ {
		for r := 0; r < v.Rows; r++ {
			for c := 0; c < v.Columns; c++ {
				var acc float64
				for m := 0; m < kr; m++ {
					sr := r + offR - m
					if sr < 0 || sr >= v.Rows {
						continue
					}
					for n := 0; n < kc; n++ {
						sc := c + offC - n
						if sc < 0 || sc >= v.Columns {
							continue
						}
						acc += k.At(m, n) * float64(v.At(f, sr, sc))
					}
				}
				out.Set(f, r, c, int(math.Round(acc)))
			}
		}
	}
	return out, nil
}

// Mask marks which pixels of a frame take part in statistics.
type Mask struct {
	Rows    int
	Columns int
	Valid   []bool
}

func (m *Mask) At(r, c int) bool { return m.Valid[r*m.Columns+c] }

// Count returns the number of valid pixels.
func (m *Mask) Count() int {
	n := 0
	for _, ok := range m.Valid {
		if ok {
			n++
		}
	}
	return n
}

func circle(rows, columns, cx, cy, radius int) *Mask {
	m := &Mask{Rows: rows, Columns: columns, Valid: make([]bool, rows*columns)}
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			dx, dy := c-cx, r-cy
			m.Valid[r*columns+c] = dx*dx+dy*dy <= radius*radius
		}
	}
	return m
}

// CircularMask keeps the pixels within radius (inclusive) of the frame
// centre (columns/2, rows/2).
func CircularMask(rows, columns, radius int) *Mask {
	return circle(rows, columns, columns/2, rows/2, radius)
}

// EdgeMask keeps the circle of radius Frames/2 centred at (Frames/2,
// Frames/2), the field of view of a cubic acquisition.
func EdgeMask(v *volume.Volume) *Mask {
	radius := v.Frames / 2
	return circle(v.Rows, v.Columns, radius, radius, radius)
}

// MinMax reduces the valid pixels of s.
func MinMax(s *volume.Slice, m *Mask) (lo, hi int, err error) {
	if m.Rows != s.Rows || m.Columns != s.Columns || len(m.Valid) != len(s.Data) {
		return 0, 0, fmt.Errorf("transform.MinMax: mask %dx%d for slice %dx%d: %w",
			m.Rows, m.Columns, s.Rows, s.Columns, ErrShape)
	}
	values := Masked(s, m)
	if len(values) == 0 {
		return 0, 0, fmt.Errorf("transform.MinMax: %w", ErrEmptyMask)
	}
	return int(floats.Min(values)), int(floats.Max(values)), nil
}

// Masked returns the valid pixels of s as float64, in row-major order.
func Masked(s *volume.Slice, m *Mask) []float64 {
	values := make([]float64, 0, len(s.Data))
	for i, ok := range m.Valid {
		if ok && i < len(s.Data) {
			values = append(values, float64(s.Data[i]))
		}
	}
	return values
}
