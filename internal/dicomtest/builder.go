// Package dicomtest builds synthetic explicit VR little endian DICOM streams
// for tests.
package dicomtest

import (
	"bytes"
	"encoding/binary"
	"strconv"

	"github.com/odincare/spectqc/dicomtag"
)

// Builder accumulates a file: 128 byte preamble, "DICM", then elements in
// the order they are added.
type Builder struct {
	buf bytes.Buffer
}

func NewBuilder() *Builder {
	b := &Builder{}
	b.buf.Write(make([]byte, 128))
	b.buf.WriteString("DICM")
	return b
}

// Raw appends an element with the given value bytes, unchanged.
func (b *Builder) Raw(tag dicomtag.Tag, vr string, value []byte) *Builder {
	b.header(tag, vr, uint32(len(value)))
	b.buf.Write(value)
	return b
}

// Header appends only an element header. Use it to build streams whose
// declared length does not match the bytes that follow.
func (b *Builder) Header(tag dicomtag.Tag, vr string, length uint32) *Builder {
	b.header(tag, vr, length)
	return b
}

func (b *Builder) header(tag dicomtag.Tag, vr string, length uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint16(scratch[:2], tag.Group)
	binary.LittleEndian.PutUint16(scratch[2:], tag.Element)
	b.buf.Write(scratch[:])
	b.buf.WriteString(vr)
	if dicomtag.HasShortLength(vr) {
		binary.LittleEndian.PutUint16(scratch[:2], uint16(length))
		b.buf.Write(scratch[:2])
		return
	}
	b.buf.Write([]byte{0, 0})
	binary.LittleEndian.PutUint32(scratch[:], length)
	b.buf.Write(scratch[:])
}

// String appends a text element, space padded to an even length.
func (b *Builder) String(tag dicomtag.Tag, vr, s string) *Builder {
	if len(s)%2 == 1 {
		s += " "
	}
	return b.Raw(tag, vr, []byte(s))
}

func (b *Builder) US(tag dicomtag.Tag, v uint16) *Builder {
	raw := make([]byte, 2)
	binary.LittleEndian.PutUint16(raw, v)
	return b.Raw(tag, "US", raw)
}

func (b *Builder) UL(tag dicomtag.Tag, v uint32) *Builder {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, v)
	return b.Raw(tag, "UL", raw)
}

func (b *Builder) IS(tag dicomtag.Tag, v int) *Builder {
	return b.String(tag, "IS", strconv.Itoa(v))
}

// PixelData appends the pixel data element with VR OW.
func (b *Builder) PixelData(data []byte) *Builder {
	return b.Raw(dicomtag.PixelData, "OW", data)
}

// Write appends arbitrary bytes.
func (b *Builder) Write(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Image returns a complete SPECT-like file with the given geometry. sample
// gives the value of each voxel; it is stored little endian with bits/8
// bytes per sample.
func Image(frames, rows, columns, bits int, sample func(f, r, c int) int) []byte {
	bps := bits / 8
	pixels := make([]byte, 0, frames*rows*columns*bps)
	for f := 0; f < frames; f++ {
		for r := 0; r < rows; r++ {
			for c := 0; c < columns; c++ {
				v := uint64(sample(f, r, c))
				for i := 0; i < bps; i++ {
					pixels = append(pixels, byte(v>>(8*i)))
				}
			}
		}
	}
	return NewBuilder().
		String(dicomtag.TransferSyntaxUID, "UI", "1.2.840.10008.1.2.1\x00").
		String(dicomtag.Tag{Group: 0x0008, Element: 0x0060}, "CS", "NM").
		IS(dicomtag.NumberOfFrames, frames).
		US(dicomtag.Rows, uint16(rows)).
		US(dicomtag.Columns, uint16(columns)).
		US(dicomtag.BitsAllocated, uint16(bits)).
		PixelData(pixels).
		Bytes()
}
