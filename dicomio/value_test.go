package dicomio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	for _, vr := range []string{"AE", "CS", "DA", "LO", "PN", "UI", "UT", "UV"} {
		v, stripped, err := DecodeValue(vr, []byte("ORIGINAL "))
		require.NoError(t, err, vr)
		assert.Equal(t, "ORIGINAL ", v, vr)
		assert.Equal(t, 0, stripped, vr)
	}
}

func TestDecodeTagHex(t *testing.T) {
	v, _, err := DecodeValue("AT", []byte{0x28, 0x00, 0x10, 0x00})
	require.NoError(t, err)
	assert.Equal(t, "28001000", v)
}

func TestDecodeIS(t *testing.T) {
	v, _, err := DecodeValue("IS", []byte("128 "))
	require.NoError(t, err)
	assert.Equal(t, int64(128), v)

	v, _, err = DecodeValue("IS", []byte("-4"))
	require.NoError(t, err)
	assert.Equal(t, int64(-4), v)
}

func TestDecodeUnsignedIsLittleEndian(t *testing.T) {
	v, _, err := DecodeValue("US", []byte{0x40, 0x00})
	require.NoError(t, err)
	assert.Equal(t, uint64(64), v)

	v, _, err = DecodeValue("UL", []byte{0x01, 0x02, 0x03, 0x04})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x04030201), v)
}

// Signed and floating point VRs are big endian in the files we read; decoding
// then encoding with the same order must give the input back.
func TestNumericRoundTrip(t *testing.T) {
	t.Run("FL", func(t *testing.T) {
		for _, f := range []float32{0, 1.5, -3.25, math.MaxFloat32} {
			raw := make([]byte, 4)
			binary.BigEndian.PutUint32(raw, math.Float32bits(f))
			v, _, err := DecodeValue("FL", raw)
			require.NoError(t, err)
			out := make([]byte, 4)
			binary.BigEndian.PutUint32(out, math.Float32bits(v.(float32)))
			assert.Equal(t, raw, out)
		}
	})
	t.Run("FD", func(t *testing.T) {
		for _, f := range []float64{0, 2.75, -1e300} {
			raw := make([]byte, 8)
			binary.BigEndian.PutUint64(raw, math.Float64bits(f))
			v, _, err := DecodeValue("FD", raw)
			require.NoError(t, err)
			out := make([]byte, 8)
			binary.BigEndian.PutUint64(out, math.Float64bits(v.(float64)))
			assert.Equal(t, raw, out)
		}
	})
	t.Run("SS", func(t *testing.T) {
		for _, n := range []int16{0, 1, -1, math.MinInt16, math.MaxInt16} {
			raw := make([]byte, 2)
			binary.BigEndian.PutUint16(raw, uint16(n))
			v, _, err := DecodeValue("SS", raw)
			require.NoError(t, err)
			assert.Equal(t, int64(n), v)
			out := make([]byte, 2)
			binary.BigEndian.PutUint16(out, uint16(int16(v.(int64))))
			assert.Equal(t, raw, out)
		}
	})
	t.Run("SL", func(t *testing.T) {
		for _, n := range []int32{0, 7, -70000, math.MinInt32} {
			raw := make([]byte, 4)
			binary.BigEndian.PutUint32(raw, uint32(n))
			v, _, err := DecodeValue("SL", raw)
			require.NoError(t, err)
			out := make([]byte, 4)
			binary.BigEndian.PutUint32(out, uint32(int32(v.(int64))))
			assert.Equal(t, raw, out)
		}
	})
	t.Run("SV", func(t *testing.T) {
		for _, n := range []int64{0, -9, math.MaxInt64} {
			raw := make([]byte, 8)
			binary.BigEndian.PutUint64(raw, uint64(n))
			v, _, err := DecodeValue("SV", raw)
			require.NoError(t, err)
			out := make([]byte, 8)
			binary.BigEndian.PutUint64(out, uint64(v.(int64)))
			assert.Equal(t, raw, out)
		}
	})
}

func TestDecodePassThrough(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	v, stripped, err := DecodeValue("OB", raw)
	require.NoError(t, err)
	assert.Equal(t, raw, v)
	assert.Equal(t, 0, stripped)
}

func TestDecodeStripsTrailingGarbage(t *testing.T) {
	// A 4 byte float followed by 2 junk bytes.
	raw := make([]byte, 6)
	binary.BigEndian.PutUint32(raw, math.Float32bits(2.5))
	v, stripped, err := DecodeValue("FL", raw)
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), v)
	assert.Equal(t, 2, stripped)

	v, stripped, err = DecodeValue("IS", []byte("42\xff\xff"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
	assert.Equal(t, 2, stripped)
}

func TestDecodeExhausted(t *testing.T) {
	_, _, err := DecodeValue("FD", []byte{1, 2, 3, 4, 5, 6})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedValue))

	_, _, err = DecodeValue("SS", nil)
	assert.True(t, errors.Is(err, ErrMalformedValue))
}

func TestDecodeRetryBound(t *testing.T) {
	raw := append([]byte("7"), make([]byte, 9)...)
	raw[1] = 'x'
	// "7x" followed by NULs: needs 4 strips to reach "7x", then fails again.
	_, _, err := DecodeValueWithRetries("IS", raw, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedValue))

	_, stripped, err := DecodeValueWithRetries("IS", []byte("12\x00\x00\x00\x00"), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, stripped)
}

func TestLittleEndianUnsigned(t *testing.T) {
	v, err := LittleEndianUnsigned(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	v, err = LittleEndianUnsigned([]byte{0xff})
	require.NoError(t, err)
	assert.Equal(t, uint64(255), v)

	_, err = LittleEndianUnsigned(make([]byte, 9))
	require.Error(t, err)
}
