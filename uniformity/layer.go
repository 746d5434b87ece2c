// Package uniformity computes the integral and differential uniformity of
// flood images, following the NEMA style extrema ratio
// |max-min| / ((max+min)/2) * 100 inside a circular field of view.
package uniformity

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/odincare/spectqc/volume"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// WindowSize is the length of the differential uniformity windows.
const WindowSize = 5

// RenderOptions controls how a slice is turned into a displayable image.
type RenderOptions struct {
	// Size is the edge of the square output in pixels; 0 keeps the slice size.
	Size int
	// Radius of the field of view circle around the image centre, in output
	// pixels. Pixels outside it get alpha 0.
	Radius int
}

// Render normalizes s to 0..255 (truncating), optionally resizes it with a
// Lanczos filter and makes everything outside the field of view transparent.
//
// Only slice pixels whose centre falls inside the field of view, once scaled
// to the output size, set the normalization range. The others are replaced by
// the mean of those inside before resizing, so their values never reach the
// rendered image. A slice that is flat inside the field of view renders black.
func Render(s *volume.Slice, opts RenderOptions) *image.NRGBA {
	width, height := s.Columns, s.Rows
	if opts.Size > 0 {
		width, height = opts.Size, opts.Size
	}
	inside := fieldOfView(s.Rows, s.Columns, width, height, opts.Radius)

	gray := image.NewGray(image.Rect(0, 0, s.Columns, s.Rows))
	var lo, hi, n int
	var sum float64
	for i, v := range s.Data {
		if !inside[i] {
			continue
		}
		if n == 0 || v < lo {
			lo = v
		}
		if n == 0 || v > hi {
			hi = v
		}
		sum += float64(v)
		n++
	}
	if n > 0 && hi > lo {
		fill := int(math.Round(sum / float64(n)))
		for i, v := range s.Data {
			if !inside[i] {
				v = fill
			}
			gray.Pix[i] = uint8(float64(v-lo) / float64(hi-lo) * 255)
		}
	}

	var img *image.NRGBA
	if opts.Size > 0 {
		img = imaging.Resize(gray, opts.Size, opts.Size, imaging.Lanczos)
	} else {
		img = imaging.Clone(gray)
	}
	cropToCircle(img, opts.Radius)
	return img
}

// fieldOfView marks the slice pixels whose centre, mapped onto a width×height
// output, lies within radius of the output centre. At native size this is the
// same test cropToCircle applies.
func fieldOfView(rows, columns, width, height, radius int) []bool {
	sx := float64(width) / float64(columns)
	sy := float64(height) / float64(rows)
	cx, cy := float64(width/2), float64(height/2)
	r2 := float64(radius) * float64(radius)

	inside := make([]bool, rows*columns)
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			dx := (float64(c)+0.5)*sx - 0.5 - cx
			dy := (float64(r)+0.5)*sy - 0.5 - cy
			inside[r*columns+c] = dx*dx+dy*dy <= r2
		}
	}
	return inside
}

func cropToCircle(img *image.NRGBA, radius int) {
	b := img.Bounds()
	cx, cy := b.Dx()/2, b.Dy()/2
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > radius*radius {
				img.Pix[y*img.Stride+x*4+3] = 0
			}
		}
	}
}

// Layer is a rendered slice reduced to perceptual grayscale with a validity
// plane taken from the alpha channel.
type Layer struct {
	Width  int
	Height int
	Gray   []float64
	Valid  []bool
}

// NewLayer converts img. Grayscale is 0.299R+0.587G+0.114B on 8 bit
// channels; a pixel is valid when its alpha is non-zero.
func NewLayer(img image.Image) *Layer {
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Bounds().Min != (image.Point{}) {
		nrgba = imaging.Clone(img)
	}
	b := nrgba.Bounds()
	l := &Layer{
		Width:  b.Dx(),
		Height: b.Dy(),
		Gray:   make([]float64, b.Dx()*b.Dy()),
		Valid:  make([]bool, b.Dx()*b.Dy()),
	}
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			p := nrgba.Pix[y*nrgba.Stride+x*4:]
			i := y*l.Width + x
			l.Gray[i] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
			l.Valid[i] = p[3] > 0
		}
	}
	return l
}

// ratio 返回 |max-min|/((max+min)/2)*100; ok is false when max+min is 0.
func ratio(lo, hi float64) (float64, bool) {
	if hi+lo == 0 {
		return 0, false
	}
	return math.Abs((hi - lo) / ((hi + lo) / 2) * 100), true
}

// Integral returns the extrema ratio over all valid pixels, or 0 when there
// are none.
func (l *Layer) Integral() float64 {
	values := make([]float64, 0, len(l.Gray))
	for i, ok := range l.Valid {
		if ok {
			values = append(values, l.Gray[i])
		}
	}
	if len(values) == 0 {
		return 0
	}
	u, _ := ratio(floats.Min(values), floats.Max(values))
	return u
}

// Differential returns the worst extrema ratio over every horizontal and
// vertical window of WindowSize pixels holding at least 2 valid pixels. The
// two directions are scanned concurrently.
func (l *Layer) Differential() float64 {
	var h, v float64
	var g errgroup.Group
	g.Go(func() error {
		h = l.scan(l.Height, l.Width, func(line, pos int) int { return line*l.Width + pos })
		return nil
	})
	g.Go(func() error {
		v = l.scan(l.Width, l.Height, func(line, pos int) int { return pos*l.Width + line })
		return nil
	})
	g.Wait()
	return math.Max(h, v)
}

// scan walks lines of length n; index maps (line, position) to a pixel.
func (l *Layer) scan(lines, n int, index func(line, pos int) int) float64 {
	var worst float64
	for line := 0; line < lines; line++ {
		for start := 0; start+WindowSize <= n; start++ {
			count := 0
			lo, hi := math.Inf(1), math.Inf(-1)
			for pos := start; pos < start+WindowSize; pos++ {
				i := index(line, pos)
				if !l.Valid[i] {
					continue
				}
				count++
				lo = math.Min(lo, l.Gray[i])
				hi = math.Max(hi, l.Gray[i])
			}
			if count < 2 {
				continue
			}
			if u, ok := ratio(lo, hi); ok && u > worst {
				worst = u
			}
		}
	}
	return worst
}

// IntegralUniformity renders s and returns its integral uniformity.
func IntegralUniformity(s *volume.Slice, opts RenderOptions) float64 {
	return NewLayer(Render(s, opts)).Integral()
}

// DifferentialUniformity renders s and returns its differential uniformity.
func DifferentialUniformity(s *volume.Slice, opts RenderOptions) float64 {
	return NewLayer(Render(s, opts)).Differential()
}
