// package dicomio provides utility functions for decoding low-level DICOM
// data types, such as tags, lengths and typed values
package dicomio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ! ---- types/consts/variables ----

var (
	// ErrTruncatedStream is reported when a declared length runs past the
	// end of the input.
	ErrTruncatedStream = errors.New("truncated stream")

	// ErrMalformedValue is reported when a value cannot be decoded even
	// after stripping trailing bytes.
	ErrMalformedValue = errors.New("malformed value")
)

// Decoder用来解码low-level的dicom data 类型（types）. It reads from an in-memory
// byte slice, always little endian, and keeps the first error it meets
// ("sticky" error): once an error is set every read returns a zero value.
type Decoder struct {
	data []byte
	err  error

	// Cumulative # bytes read.
	pos int64
}

// NewDecoder创建一个decoder对象读取data
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// SetError 将之后Error() call的错误设为已上报（reported）
// 要求: err != nil
func (d *Decoder) SetError(err error) {
	if err != nil && d.err == nil {
		if err != io.EOF {
			err = fmt.Errorf("%w (file offset %d)", err, d.pos)
		}
		d.err = err
	}
}

// SetErrorf 与 SetError相似，但需要一个可打印的string
func (d *Decoder) SetErrorf(format string, args ...interface{}) {
	d.SetError(fmt.Errorf(format, args...))
}

// Error returns an error encountered so far.
func (d *Decoder) Error() error { return d.err }

// EOF 检查如果没有可读数据了
func (d *Decoder) EOF() bool {
	return d.err != nil || d.Len() <= 0
}

// BytesRead returns the cumulative # of bytes read so far.
func (d *Decoder) BytesRead() int64 { return d.pos }

// Len 返回 剩余未读的bytes数
func (d *Decoder) Len() int64 {
	return int64(len(d.data)) - d.pos
}

// ReadBytes returns the next length bytes. The returned slice aliases the
// decoder input; callers must not modify it. On a short input it returns nil
// and sets ErrTruncatedStream.
func (d *Decoder) ReadBytes(length int) []byte {
	if d.err != nil {
		return nil
	}
	if length < 0 || d.Len() < int64(length) {
		d.SetError(fmt.Errorf("ReadBytes: requested %d, available %d: %w", length, d.Len(), ErrTruncatedStream))
		return nil
	}
	v := d.data[d.pos : d.pos+int64(length) : d.pos+int64(length)]
	d.pos += int64(length)
	return v
}

// Skip advances the input by length bytes.
func (d *Decoder) Skip(length int) {
	if d.err != nil {
		return
	}
	if d.Len() < int64(length) {
		d.SetError(fmt.Errorf("Skip: requested %d, available %d: %w", length, d.Len(), ErrTruncatedStream))
		return
	}
	d.pos += int64(length)
}

func (d *Decoder) ReadUInt16() uint16 {
	b := d.ReadBytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *Decoder) ReadUInt32() uint32 {
	b := d.ReadBytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadString reads length bytes as an ASCII string. Non-ASCII bytes set an
// error.
func (d *Decoder) ReadString(length int) string {
	b := d.ReadBytes(length)
	if b == nil {
		return ""
	}
	if i := nonASCIIIndex(b); i >= 0 {
		d.SetErrorf("ReadString: non-ASCII byte 0x%02x at index %d", b[i], i)
		return ""
	}
	return string(b)
}
