package volume

import (
	"errors"
	"math"
	"testing"

	dicom "github.com/odincare/spectqc"
	"github.com/odincare/spectqc/dicomtag"
	"github.com/odincare/spectqc/internal/dicomtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, data []byte) *dicom.DataSet {
	ds, err := dicom.Parse(data, dicom.ReadOptions{})
	require.NoError(t, err)
	return ds
}

func TestReconstruct(t *testing.T) {
	for _, bits := range []int{8, 16, 32} {
		sample := func(f, r, c int) int { return f*100 + r*10 + c }
		ds := parse(t, dicomtest.Image(3, 4, 5, bits, sample))

		v, err := Reconstruct(ds)
		require.NoError(t, err, bits)
		assert.Equal(t, 3, v.Frames)
		assert.Equal(t, 4, v.Rows)
		assert.Equal(t, 5, v.Columns)
		require.Len(t, v.Data, 60)
		for f := 0; f < 3; f++ {
			for r := 0; r < 4; r++ {
				for c := 0; c < 5; c++ {
					assert.Equal(t, sample(f, r, c), v.At(f, r, c))
				}
			}
		}
	}
}

func TestDecodeLittleEndian(t *testing.T) {
	v, err := Decode(16, 1, 1, 2, []byte{0x01, 0x02, 0xff, 0xff})
	require.NoError(t, err)
	assert.Equal(t, []int{0x0201, 0xffff}, v.Data)
}

func TestDecodeDimensionMismatch(t *testing.T) {
	_, err := Decode(16, 2, 2, 2, make([]byte, 15))
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = Decode(16, 2, 2, 2, make([]byte, 18))
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = Decode(8, 0, 2, 2, nil)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestDecodeUnsupportedBitDepth(t *testing.T) {
	for _, bits := range []int{0, 12, 72, -8} {
		_, err := Decode(bits, 1, 1, 1, make([]byte, 2))
		assert.True(t, errors.Is(err, ErrUnsupportedBitDepth), bits)
	}
}

func TestDecodeSixtyFourBit(t *testing.T) {
	v, err := Decode(64, 1, 1, 1, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt64, v.Data[0])

	_, err = Decode(64, 1, 1, 2, []byte{
		1, 0, 0, 0, 0, 0, 0, 0,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	})
	assert.True(t, errors.Is(err, ErrUnsupportedBitDepth))
}

func TestReconstructMissingElement(t *testing.T) {
	data := dicomtest.NewBuilder().
		IS(dicomtag.NumberOfFrames, 1).
		US(dicomtag.Rows, 1).
		US(dicomtag.BitsAllocated, 8).
		PixelData([]byte{1, 2}).
		Bytes()
	_, err := Reconstruct(parse(t, data))
	assert.True(t, errors.Is(err, ErrMissingElement))

	data = dicomtest.NewBuilder().
		IS(dicomtag.NumberOfFrames, 1).
		US(dicomtag.Rows, 1).
		US(dicomtag.Columns, 1).
		US(dicomtag.BitsAllocated, 8).
		Bytes()
	_, err = Reconstruct(parse(t, data))
	assert.True(t, errors.Is(err, ErrMissingElement))
}

func TestFrameAndClone(t *testing.T) {
	v := New(2, 2, 2)
	v.Set(1, 0, 1, 7)

	s, err := v.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 7, 0, 0}, s.Data)
	assert.Equal(t, 7, s.At(0, 1))
	s.Data[1] = 9
	assert.Equal(t, 7, v.At(1, 0, 1))

	_, err = v.Frame(2)
	require.Error(t, err)

	c := v.Clone()
	c.Set(0, 0, 0, 5)
	assert.Equal(t, 0, v.At(0, 0, 0))
	assert.True(t, c.Valid())
	assert.False(t, (&Volume{Frames: 1, Rows: 1, Columns: 2, Data: []int{1}}).Valid())
}
