// Package volume turns the pixel data of a parsed file into a 3D voxel grid.
package volume

import (
	"errors"
	"fmt"
	"math"

	dicom "github.com/odincare/spectqc"
	"github.com/odincare/spectqc/dicomio"
	"github.com/odincare/spectqc/dicomlog"
	"github.com/odincare/spectqc/dicomtag"
)

var (
	// ErrDimensionMismatch is returned when the pixel data length does not
	// match frames*rows*columns*bytesPerSample.
	ErrDimensionMismatch = errors.New("pixel data does not match image dimensions")

	// ErrUnsupportedBitDepth is returned when BitsAllocated is not a whole
	// number of bytes between 1 and 8.
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

	// ErrMissingElement is returned when a geometry element is absent.
	ErrMissingElement = errors.New("missing element")
)

// Volume 是一个3D体素网格, row-major (frame, row, column).
type Volume struct {
	Frames  int
	Rows    int
	Columns int
	Data    []int
}

// Slice is one frame of a Volume.
type Slice struct {
	Rows    int
	Columns int
	Data    []int
}

// New allocates a zero volume.
func New(frames, rows, columns int) *Volume {
	return &Volume{
		Frames:  frames,
		Rows:    rows,
		Columns: columns,
		Data:    make([]int, frames*rows*columns),
	}
}

// Valid reports whether the dimensions are positive and agree with Data.
func (v *Volume) Valid() bool {
	return v != nil && v.Frames > 0 && v.Rows > 0 && v.Columns > 0 &&
		len(v.Data) == v.Frames*v.Rows*v.Columns
}

func (v *Volume) index(f, r, c int) int {
	return (f*v.Rows+r)*v.Columns + c
}

func (v *Volume) At(f, r, c int) int { return v.Data[v.index(f, r, c)] }

func (v *Volume) Set(f, r, c, value int) { v.Data[v.index(f, r, c)] = value }

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	data := make([]int, len(v.Data))
	copy(data, v.Data)
	return &Volume{Frames: v.Frames, Rows: v.Rows, Columns: v.Columns, Data: data}
}

// Frame copies frame i out of the volume.
func (v *Volume) Frame(i int) (*Slice, error) {
	if i < 0 || i >= v.Frames {
		return nil, fmt.Errorf("volume.Frame: index %d out of range [0,%d)", i, v.Frames)
	}
	n := v.Rows * v.Columns
	data := make([]int, n)
	copy(data, v.Data[i*n:(i+1)*n])
	return &Slice{Rows: v.Rows, Columns: v.Columns, Data: data}, nil
}

func (s *Slice) At(r, c int) int { return s.Data[r*s.Columns+c] }

// Decode 将pixel data按照bits/8的步长解码为little endian unsigned样本,
// then shapes them as (frames, rows, columns). No partial volume is returned
// on error.
func Decode(bits, frames, rows, columns int, blob []byte) (*Volume, error) {
	if bits <= 0 || bits%8 != 0 || bits > 64 {
		return nil, fmt.Errorf("volume.Decode: BitsAllocated %d: %w", bits, ErrUnsupportedBitDepth)
	}
	bps := bits / 8
	if frames <= 0 || rows <= 0 || columns <= 0 {
		return nil, fmt.Errorf("volume.Decode: shape (%d,%d,%d): %w", frames, rows, columns, ErrDimensionMismatch)
	}
	n := frames * rows * columns
	if len(blob)%bps != 0 || len(blob)/bps != n {
		return nil, fmt.Errorf("volume.Decode: %d bytes for %d samples of %d bytes: %w",
			len(blob), n, bps, ErrDimensionMismatch)
	}

	v := New(frames, rows, columns)
	for i := range v.Data {
		sample, err := dicomio.LittleEndianUnsigned(blob[i*bps : (i+1)*bps])
		if err != nil {
			return nil, fmt.Errorf("volume.Decode: sample %d: %v", i, err)
		}
		if sample > math.MaxInt {
			return nil, fmt.Errorf("volume.Decode: sample %d value %d overflows int: %w", i, sample, ErrUnsupportedBitDepth)
		}
		v.Data[i] = int(sample)
	}
	dicomlog.Vprintf(1, "volume.Decode: %dx%dx%d, %d bytes per sample", frames, rows, columns, bps)
	return v, nil
}

// Reconstruct builds the volume of ds from its NumberOfFrames, Rows, Columns
// and BitsAllocated elements and its pixel data.
func Reconstruct(ds *dicom.DataSet) (*Volume, error) {
	var dims [4]int
	for i, tag := range []dicomtag.Tag{
		dicomtag.BitsAllocated,
		dicomtag.NumberOfFrames,
		dicomtag.Rows,
		dicomtag.Columns,
	} {
		elem, err := ds.FindElementByTag(tag)
		if err != nil {
			return nil, fmt.Errorf("volume.Reconstruct: %v: %w", tag, ErrMissingElement)
		}
		n, err := elem.GetInt()
		if err != nil {
			return nil, fmt.Errorf("volume.Reconstruct: %v: %w", tag, err)
		}
		dims[i] = n
	}
	if ds.PixelData == nil {
		return nil, fmt.Errorf("volume.Reconstruct: %v: %w", dicomtag.PixelData, ErrMissingElement)
	}
	return Decode(dims[0], dims[1], dims[2], dims[3], ds.PixelData)
}
