package dicomio

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/odincare/spectqc/dicomtag"
)

// DefaultMaxStripRetries bounds how many times DecodeValue drops two
// trailing bytes before giving up.
const DefaultMaxStripRetries = 32

// DecodeValue decodes raw according to vr. See DecodeValueWithRetries.
func DecodeValue(vr string, raw []byte) (interface{}, int, error) {
	return DecodeValueWithRetries(vr, raw, DefaultMaxStripRetries)
}

// DecodeValueWithRetries decodes raw according to vr. When decoding fails the
// last two bytes are dropped and decoding is tried again, at most maxRetries
// times. stripped is the number of bytes dropped for the returned value; a
// non-zero stripped means the value was recovered from a damaged field.
//
// Value types by VR kind:
//
//	text      string (padding kept)
//	taghex    string
//	float32   float32
//	float64   float64
//	intstring int64
//	int16/32/64 int64
//	unsigned  uint64
//	bytes     []byte
func DecodeValueWithRetries(vr string, raw []byte, maxRetries int) (v interface{}, stripped int, err error) {
	kind := dicomtag.GetVRKind(vr)
	for try := 0; ; try++ {
		v, err = decodeKind(kind, raw)
		if err == nil {
			return v, stripped, nil
		}
		if len(raw) == 0 || try >= maxRetries {
			return nil, stripped, fmt.Errorf("dicomio.DecodeValue: VR %s after stripping %d bytes: %v: %w",
				vr, stripped, err, ErrMalformedValue)
		}
		n := 2
		if len(raw) < n {
			n = len(raw)
		}
		raw = raw[:len(raw)-n]
		stripped += n
	}
}

func decodeKind(kind dicomtag.VRKind, raw []byte) (interface{}, error) {
	switch kind {
	case dicomtag.VRText:
		if i := nonASCIIIndex(raw); i >= 0 {
			return nil, fmt.Errorf("non-ASCII byte 0x%02x at index %d", raw[i], i)
		}
		return string(raw), nil
	case dicomtag.VRTagHex:
		return hex.EncodeToString(raw), nil
	case dicomtag.VRFloat32:
		if err := wantLength(raw, 4); err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(raw)), nil
	case dicomtag.VRFloat64:
		if err := wantLength(raw, 8); err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(raw)), nil
	case dicomtag.VRIntString:
		if i := nonASCIIIndex(raw); i >= 0 {
			return nil, fmt.Errorf("non-ASCII byte 0x%02x at index %d", raw[i], i)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case dicomtag.VRInt16:
		if err := wantLength(raw, 2); err != nil {
			return nil, err
		}
		return int64(int16(binary.BigEndian.Uint16(raw))), nil
	case dicomtag.VRInt32:
		if err := wantLength(raw, 4); err != nil {
			return nil, err
		}
		return int64(int32(binary.BigEndian.Uint32(raw))), nil
	case dicomtag.VRInt64:
		if err := wantLength(raw, 8); err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(raw)), nil
	case dicomtag.VRUnsigned:
		return LittleEndianUnsigned(raw)
	case dicomtag.VRBytes:
		return raw, nil
	}
	panic(fmt.Sprintf("dicomio: unhandled VR kind %v", kind))
}

// LittleEndianUnsigned folds up to 8 bytes into an unsigned integer, least
// significant byte first. An empty input is 0.
func LittleEndianUnsigned(raw []byte) (uint64, error) {
	if len(raw) > 8 {
		return 0, fmt.Errorf("%d bytes do not fit an unsigned 64 bit integer", len(raw))
	}
	var v uint64
	for i := len(raw) - 1; i >= 0; i-- {
		v = v<<8 | uint64(raw[i])
	}
	return v, nil
}

func wantLength(raw []byte, n int) error {
	if len(raw) != n {
		return fmt.Errorf("expect %d bytes, found %d", n, len(raw))
	}
	return nil
}

func nonASCIIIndex(b []byte) int {
	for i, c := range b {
		if c >= 0x80 {
			return i
		}
	}
	return -1
}
